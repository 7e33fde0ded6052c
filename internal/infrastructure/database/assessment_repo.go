package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
)

// Ensure AssessmentRepo implements AssessmentRepository
var _ repositories.AssessmentRepository = (*AssessmentRepo)(nil)

// AssessmentRepo implements AssessmentRepository using PostgreSQL
type AssessmentRepo struct {
	db *sqlx.DB
}

// NewAssessmentRepo creates a new assessment repository
func NewAssessmentRepo(db *sqlx.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

type assessmentRow struct {
	ID           int64     `db:"id"`
	ChainID      int64     `db:"chain_id"`
	TokenAddress string    `db:"token_address"`
	Score        int       `db:"score"`
	ScoreLabel   string    `db:"score_label"`
	Reason       string    `db:"reason"`
	Strategy     string    `db:"strategy"`
	CheckList    []byte    `db:"checklist"`
	SignalErrors []byte    `db:"signal_errors"`
	AssessedAt   time.Time `db:"assessed_at"`
}

// Save stores a report and sets its ID
func (r *AssessmentRepo) Save(ctx context.Context, report *entities.AssessmentReport) error {
	row, err := toRow(report)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO token_assessments
			(chain_id, token_address, score, score_label, reason, strategy, checklist, signal_errors, assessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err = r.db.QueryRowxContext(ctx, query,
		row.ChainID,
		row.TokenAddress,
		row.Score,
		row.ScoreLabel,
		row.Reason,
		row.Strategy,
		row.CheckList,
		row.SignalErrors,
		row.AssessedAt,
	).Scan(&report.ID)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	return nil
}

// GetLatest returns the most recent report for a token, or nil if none exists
func (r *AssessmentRepo) GetLatest(ctx context.Context, chain entities.Chain, tokenAddress string) (*entities.AssessmentReport, error) {
	var row assessmentRow
	query := `
		SELECT id, chain_id, token_address, score, score_label, reason, strategy, checklist, signal_errors, assessed_at
		FROM token_assessments
		WHERE chain_id = $1 AND token_address = $2
		ORDER BY assessed_at DESC
		LIMIT 1
	`

	if err := r.db.GetContext(ctx, &row, query, chain.ID(), strings.ToLower(tokenAddress)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return fromRow(row)
}

// ListRecent returns the newest reports across all tokens
func (r *AssessmentRepo) ListRecent(ctx context.Context, limit int) ([]entities.AssessmentReport, error) {
	var rows []assessmentRow
	query := `
		SELECT id, chain_id, token_address, score, score_label, reason, strategy, checklist, signal_errors, assessed_at
		FROM token_assessments
		ORDER BY assessed_at DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	reports := make([]entities.AssessmentReport, 0, len(rows))
	for _, row := range rows {
		report, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func toRow(report *entities.AssessmentReport) (assessmentRow, error) {
	checklist, err := json.Marshal(report.CheckList)
	if err != nil {
		return assessmentRow{}, fmt.Errorf("failed to marshal checklist: %w", err)
	}

	signalErrors := report.SignalErrors
	if signalErrors == nil {
		signalErrors = map[string]string{}
	}
	errs, err := json.Marshal(signalErrors)
	if err != nil {
		return assessmentRow{}, fmt.Errorf("failed to marshal signal errors: %w", err)
	}

	return assessmentRow{
		ChainID:      report.CheckList.Chain.ID(),
		TokenAddress: strings.ToLower(report.CheckList.Address),
		Score:        int(report.Score),
		ScoreLabel:   report.Score.String(),
		Reason:       report.Reason,
		Strategy:     string(report.Strategy),
		CheckList:    checklist,
		SignalErrors: errs,
		AssessedAt:   report.AssessedAt.UTC(),
	}, nil
}

func fromRow(row assessmentRow) (*entities.AssessmentReport, error) {
	report := &entities.AssessmentReport{
		ID:         row.ID,
		Score:      entities.TokenScore(row.Score),
		ScoreLabel: row.ScoreLabel,
		Reason:     row.Reason,
		Strategy:   entities.ScoringStrategy(row.Strategy),
		AssessedAt: row.AssessedAt,
	}

	if err := json.Unmarshal(row.CheckList, &report.CheckList); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checklist: %w", err)
	}
	if len(row.SignalErrors) > 0 {
		if err := json.Unmarshal(row.SignalErrors, &report.SignalErrors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signal errors: %w", err)
		}
		if len(report.SignalErrors) == 0 {
			report.SignalErrors = nil
		}
	}
	return report, nil
}
