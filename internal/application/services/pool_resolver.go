package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/cache"
)

const poolCacheTTL = 5 * time.Minute

// PoolResolver finds the deepest pool a token trades in
type PoolResolver struct {
	poolRepo repositories.PoolRepository
	cache    *cache.RedisCache
	logger   *zap.Logger
}

// NewPoolResolver creates a new pool resolver
func NewPoolResolver(
	poolRepo repositories.PoolRepository,
	cache *cache.RedisCache,
	logger *zap.Logger,
) *PoolResolver {
	return &PoolResolver{
		poolRepo: poolRepo,
		cache:    cache,
		logger:   logger,
	}
}

// FindTopPool queries every protocol and token position and returns the pool
// with the highest USD liquidity. It returns (nil, nil) when no pool exists.
func (r *PoolResolver) FindTopPool(ctx context.Context, token string, chain entities.Chain) (*entities.PoolInfo, error) {
	token = strings.ToLower(token)
	cacheKey := cache.PoolKey(chain, token)

	if r.cache != nil {
		var cached entities.PoolInfo
		if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
			r.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("Failed to read pool cache", zap.Error(err))
		}
	}

	candidates, err := r.candidates(ctx, token, chain)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		r.logger.Info("No liquidity pool found",
			zap.String("token", token),
			zap.String("chain", chain.String()),
		)
		return nil, nil
	}

	sortByLiquidity(candidates)
	top := candidates[0]

	r.logger.Debug("Resolved top pool",
		zap.String("token", token),
		zap.String("pool", top.Address),
		zap.String("dex", top.DEX.String()),
		zap.Float64("liquidity_usd", top.LiquidityUSD),
		zap.Int("candidates", len(candidates)),
	)

	if r.cache != nil {
		if err := r.cache.SetWithTTL(ctx, cacheKey, top, poolCacheTTL); err != nil {
			r.logger.Warn("Failed to cache pool", zap.Error(err))
		}
	}

	return &top, nil
}

// candidates runs the four protocol/position queries concurrently
func (r *PoolResolver) candidates(ctx context.Context, token string, chain entities.Chain) ([]entities.PoolInfo, error) {
	var (
		mu  sync.Mutex
		all []entities.PoolInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, dex := range []entities.DEX{entities.DEXUniswapV2, entities.DEXUniswapV3} {
		for _, pos := range []entities.TokenPosition{entities.PositionToken0, entities.PositionToken1} {
			dex, pos := dex, pos
			g.Go(func() error {
				pools, err := r.poolRepo.TopPools(gctx, chain, dex, token, pos)
				if err != nil {
					return fmt.Errorf("failed to query %s pools: %w", dex, err)
				}
				mu.Lock()
				all = append(all, pools...)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// sortByLiquidity orders pools by USD liquidity descending, then by address
func sortByLiquidity(pools []entities.PoolInfo) {
	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].LiquidityUSD != pools[j].LiquidityUSD {
			return pools[i].LiquidityUSD > pools[j].LiquidityUSD
		}
		return strings.ToLower(pools[i].Address) < strings.ToLower(pools[j].Address)
	})
}
