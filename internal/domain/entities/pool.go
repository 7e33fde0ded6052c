package entities

import (
	"strings"
)

// DEX identifies the AMM protocol family of a pool
type DEX int

const (
	DEXUniswapV2 DEX = iota + 1
	DEXUniswapV3
)

func (d DEX) String() string {
	switch d {
	case DEXUniswapV2:
		return "uniswap_v2"
	case DEXUniswapV3:
		return "uniswap_v3"
	default:
		return "unknown"
	}
}

// MarshalText renders the DEX as its string name
func (d DEX) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a DEX name
func (d *DEX) UnmarshalText(b []byte) error {
	switch string(b) {
	case "uniswap_v2":
		*d = DEXUniswapV2
	case "uniswap_v3":
		*d = DEXUniswapV3
	default:
		*d = 0
	}
	return nil
}

// TokenPosition says which side of a pair the target token is on
type TokenPosition int

const (
	PositionToken0 TokenPosition = iota
	PositionToken1
)

// PoolInfo describes a resolved trading pool. Immutable once resolved.
type PoolInfo struct {
	DEX              DEX     `json:"dex"`
	Address          string  `json:"pair_or_pool_address"`
	Token0           string  `json:"token0"`
	Token1           string  `json:"token1"`
	IsTargetToken0   bool    `json:"is_target_token0"`
	BaseTokenAddress string  `json:"base_token_address"`
	BaseTokenSymbol  string  `json:"base_token_symbol"`
	FeeBps           uint32  `json:"fee_bps"`
	FeeTier          uint32  `json:"fee_tier,omitempty"` // V3 fee in hundredths of a bip
	LiquidityUSD     float64 `json:"liquidity_usd"`
	CreatedAtBlock   uint64  `json:"created_at_block"`
}

// TargetToken returns the address of the assessed token in this pool
func (p *PoolInfo) TargetToken() string {
	if p.IsTargetToken0 {
		return p.Token0
	}
	return p.Token1
}

// SameAddress compares two hex addresses case-insensitively
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
