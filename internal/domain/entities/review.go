package entities

// CodeReviewVerdict is the LLM's structured opinion on contract source
type CodeReviewVerdict struct {
	PossibleScam                           bool   `json:"possible_scam"`
	Reason                                 string `json:"reason"`
	CouldLegitimatelyJustifySuspiciousCode bool   `json:"could_legitimately_justify_suspicious_code"`
	ReasonForJustification                 string `json:"reason_for_justification"`
}

// WebsiteReviewVerdict is the LLM's structured opinion on website text
type WebsiteReviewVerdict struct {
	PossibleScam bool   `json:"possible_scam"`
	Reason       string `json:"reason"`
}

// SocialReviewVerdict is the LLM's structured opinion on social presence
type SocialReviewVerdict struct {
	PossibleScam bool   `json:"possible_scam"`
	Reason       string `json:"reason"`
}

// FinalScoreVerdict is the LLM's holistic score for a full checklist
type FinalScoreVerdict struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}
