package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// RulesScorer scores a checklist with a fixed decision table
type RulesScorer struct {
	minLiquidityLockedPct float64
	minLiquidityUSD       float64
	maxTopHolderPct       float64
}

// NewRulesScorer creates a rules scorer with thresholds from cfg
func NewRulesScorer(cfg config.ScoringConfig) *RulesScorer {
	return &RulesScorer{
		minLiquidityLockedPct: cfg.MinLiquidityLockedPct,
		minLiquidityUSD:       cfg.MinLiquidityUSD,
		maxTopHolderPct:       cfg.MaxTopHolderPct,
	}
}

// Score returns the score and a short explanation.
// Undetermined signals never satisfy a threshold; unmatched combinations score Scam.
func (s *RulesScorer) Score(cl *entities.TokenCheckList) (entities.TokenScore, string) {
	if cl.IsTokenSellable != nil && !*cl.IsTokenSellable {
		return entities.ScoreScam, "token cannot be sold after buying"
	}

	review := cl.CodeReview
	if review != nil && review.PossibleScam && !review.CouldLegitimatelyJustifySuspiciousCode {
		return entities.ScoreScam, "contract code contains unjustifiable scam mechanisms"
	}

	locked := cl.PercentageLiquidityLockedOrBurned != nil && *cl.PercentageLiquidityLockedOrBurned > s.minLiquidityLockedPct
	deep := cl.LiquidityUSD != nil && *cl.LiquidityUSD >= s.minLiquidityUSD
	spread := cl.TopHolderPercentage != nil && *cl.TopHolderPercentage < s.maxTopHolderPct

	if review != nil && !review.PossibleScam {
		return s.scoreCleanCode(locked, deep, spread)
	}
	return s.scoreSuspiciousCode(cl, locked, deep, spread)
}

func (s *RulesScorer) scoreCleanCode(locked, deep, spread bool) (entities.TokenScore, string) {
	switch {
	case locked && deep && spread:
		return entities.ScoreLegit, "clean code, locked liquidity, deep pool and no dominant holder"
	case locked && !deep && spread:
		return entities.ScoreLikelyLegit, "clean code and locked liquidity but a shallow pool"
	case locked && !spread:
		return entities.ScoreUncertain, "clean code and locked liquidity but a dominant holder"
	case !locked && deep && spread:
		return entities.ScoreLikelyScam, "liquidity is not locked or burned"
	default:
		return entities.ScoreScam, "liquidity is not locked and supply or pool depth is unsafe"
	}
}

func (s *RulesScorer) scoreSuspiciousCode(cl *entities.TokenCheckList, locked, deep, spread bool) (entities.TokenScore, string) {
	websiteOK := isTrue(cl.HasWebsite) && (cl.WebsiteReview == nil || !cl.WebsiteReview.PossibleScam)
	socialOK := isTrue(cl.HasTwitterOrDiscord) && (cl.SocialReview == nil || !cl.SocialReview.PossibleScam)
	both := websiteOK && socialOK
	one := websiteOK != socialOK

	switch {
	case locked && deep && spread && both:
		return entities.ScoreLikelyLegit, "suspicious but justifiable code, healthy liquidity and an established presence"
	case locked && deep && spread && one:
		return entities.ScoreUncertain, "suspicious but justifiable code with a partial online presence"
	case locked && !deep && spread && both:
		return entities.ScoreUncertain, "suspicious but justifiable code and a shallow pool"
	case locked:
		return entities.ScoreLikelyScam, "suspicious code without enough supporting signals"
	default:
		return entities.ScoreScam, "suspicious code and liquidity is not locked"
	}
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// AIScorer asks the language model for a holistic score
type AIScorer struct {
	reviewer *Reviewer
	logger   *zap.Logger
}

// NewAIScorer creates a new AI scorer
func NewAIScorer(reviewer *Reviewer, logger *zap.Logger) *AIScorer {
	return &AIScorer{
		reviewer: reviewer,
		logger:   logger,
	}
}

// Score returns the model's verdict, or nil when the answer is unusable
func (s *AIScorer) Score(ctx context.Context, cl *entities.TokenCheckList) (*entities.FinalScoreVerdict, error) {
	data, err := json.MarshalIndent(cl, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checklist: %w", err)
	}

	verdict, err := Review[entities.FinalScoreVerdict](ctx, s.reviewer, ReviewRequest{
		Kind:         ReviewKindScore,
		Persona:      finalScorePersona,
		Instructions: finalScoreInstructions,
		Label:        "Token checklist",
		Content:      string(data),
	})
	if err != nil || verdict == nil {
		return nil, err
	}

	if !entities.TokenScore(verdict.Score).Valid() {
		s.logger.Warn("Model returned a score outside the scale", zap.Int("score", verdict.Score))
		return nil, nil
	}
	return verdict, nil
}
