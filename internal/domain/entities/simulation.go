package entities

// SimulationOutcome classifies tradability observed on a forked chain
type SimulationOutcome string

const (
	SimulationLegit      SimulationOutcome = "legit"
	SimulationCannotBuy  SimulationOutcome = "cannot_buy"
	SimulationCannotSell SimulationOutcome = "cannot_sell"
)

// SimulationResult is the terminal state of one buy/sell replay
type SimulationResult struct {
	Outcome      SimulationOutcome `json:"outcome"`
	Reason       string            `json:"reason,omitempty"`
	BuyTxHash    string            `json:"buy_tx_hash,omitempty"`
	SellTxHash   string            `json:"sell_tx_hash,omitempty"`
	TokensBought string            `json:"tokens_bought,omitempty"`
}

// Sellable maps the outcome onto the checklist's sellability signal.
// CannotBuy is indeterminate: new pools may legitimately reject early buys.
func (r *SimulationResult) Sellable() *bool {
	if r == nil {
		return nil
	}
	switch r.Outcome {
	case SimulationLegit:
		v := true
		return &v
	case SimulationCannotSell:
		v := false
		return &v
	default:
		return nil
	}
}
