package repositories

import (
	"context"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// AssessmentRepository defines the interface for storing finished assessments
type AssessmentRepository interface {
	// Save stores a report and sets its ID
	Save(ctx context.Context, report *entities.AssessmentReport) error

	// GetLatest returns the most recent report for a token, or nil if none exists
	GetLatest(ctx context.Context, chain entities.Chain, tokenAddress string) (*entities.AssessmentReport, error)

	// ListRecent returns the newest reports across all tokens
	ListRecent(ctx context.Context, limit int) ([]entities.AssessmentReport, error)
}
