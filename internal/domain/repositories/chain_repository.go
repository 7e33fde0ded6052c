package repositories

import (
	"context"
	"math/big"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// ChainReader defines read-only on-chain calls used by the analyzers
type ChainReader interface {
	// TokenMetadata reads name, symbol, decimals and total supply
	TokenMetadata(ctx context.Context, chain entities.Chain, token string) (*entities.Token, error)

	// TotalSupply reads totalSupply() of an ERC-20 or LP token
	TotalSupply(ctx context.Context, chain entities.Chain, asset string) (*big.Int, error)
}

// LockerRegistry knows the per-chain liquidity lockers and burn addresses
type LockerRegistry interface {
	IsLockerOrBurn(chain entities.Chain, address string) bool
}
