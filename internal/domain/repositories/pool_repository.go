package repositories

import (
	"context"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// PoolRepository defines the interface for DEX pool index queries
type PoolRepository interface {
	// TopPools returns the highest-liquidity pools of one protocol where the
	// token sits at the given position. An empty slice is not an error.
	TopPools(ctx context.Context, chain entities.Chain, dex entities.DEX, token string, position entities.TokenPosition) ([]entities.PoolInfo, error)

	// LiquidityHolders returns holders of the pool's liquidity asset: LP tokens
	// for V2 pairs, position NFTs scoped to the pool for V3.
	LiquidityHolders(ctx context.Context, chain entities.Chain, pool *entities.PoolInfo) ([]entities.HolderEntry, error)
}
