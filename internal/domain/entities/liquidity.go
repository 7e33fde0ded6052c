package entities

import (
	"math/big"
)

// HolderEntry is one holder of a token or liquidity asset
type HolderEntry struct {
	Address  string   `json:"holder_address"`
	Quantity *big.Int `json:"-"`
}

// LiquidityHolderReport carries the concentration and lock signals.
// A nil field means the value could not be determined.
type LiquidityHolderReport struct {
	TopHolderPercentage               *float64 `json:"top_holder_percentage"`
	TopHolderAddress                  string   `json:"top_holder_address,omitempty"`
	PercentageLockedOrBurned          *float64 `json:"percentage_locked_or_burned"`
	PercentageLiquidityLockedOrBurned *float64 `json:"percentage_liquidity_locked_or_burned"`
}
