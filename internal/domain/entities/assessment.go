package entities

import (
	"time"
)

// ScoringStrategy names which scorer produced a report's score
type ScoringStrategy string

const (
	StrategyRules ScoringStrategy = "rules"
	StrategyAI    ScoringStrategy = "ai"
)

// Signal names used as keys in AssessmentReport.SignalErrors
const (
	SignalMetadata   = "metadata"
	SignalProfile    = "profile"
	SignalSource     = "source_code"
	SignalPool       = "pool"
	SignalLiquidity  = "liquidity"
	SignalSimulation = "simulation"
	SignalCode       = "code_review"
	SignalWebsite    = "website_review"
	SignalSocial     = "social_review"
	SignalScoring    = "ai_scoring"
)

// AssessmentRequest describes one token to assess
type AssessmentRequest struct {
	Chain          Chain  `json:"chain_id"`
	TokenAddress   string `json:"token_address"`
	WebsiteURL     string `json:"website_url,omitempty"`
	WebsiteContent string `json:"website_content,omitempty"`
	TwitterURL     string `json:"twitter_url,omitempty"`
	DiscordURL     string `json:"discord_url,omitempty"`
	SocialContent  string `json:"social_content,omitempty"`
}

// AssessmentReport is the final output: the full checklist plus a score
type AssessmentReport struct {
	ID           int64             `json:"id,omitempty"`
	CheckList    TokenCheckList    `json:"checklist"`
	Score        TokenScore        `json:"score"`
	ScoreLabel   string            `json:"score_label"`
	Reason       string            `json:"reason,omitempty"`
	Strategy     ScoringStrategy   `json:"strategy"`
	SignalErrors map[string]string `json:"signal_errors,omitempty"`
	AssessedAt   time.Time         `json:"assessed_at"`
}
