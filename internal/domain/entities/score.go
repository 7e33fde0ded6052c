package entities

// TokenScore is the ordinal legitimacy score
type TokenScore int

const (
	ScoreScam TokenScore = iota
	ScoreLikelyScam
	ScoreUncertain
	ScoreLikelyLegit
	ScoreLegit
)

func (s TokenScore) String() string {
	switch s {
	case ScoreScam:
		return "scam"
	case ScoreLikelyScam:
		return "likely_scam"
	case ScoreUncertain:
		return "uncertain"
	case ScoreLikelyLegit:
		return "likely_legit"
	case ScoreLegit:
		return "legit"
	default:
		return "invalid"
	}
}

// Valid reports whether the score is within 0..4
func (s TokenScore) Valid() bool {
	return s >= ScoreScam && s <= ScoreLegit
}
