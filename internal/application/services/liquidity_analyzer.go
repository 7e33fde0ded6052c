package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
)

// DefaultHolderLimit is how many top token holders are requested from the explorer
const DefaultHolderLimit = 50

// LiquidityAnalyzer computes liquidity lock and holder concentration signals
type LiquidityAnalyzer struct {
	poolRepo     repositories.PoolRepository
	chainReader  repositories.ChainReader
	explorerRepo repositories.ExplorerRepository
	lockers      repositories.LockerRegistry
	holderLimit  int
	logger       *zap.Logger
}

// NewLiquidityAnalyzer creates a new liquidity analyzer
func NewLiquidityAnalyzer(
	poolRepo repositories.PoolRepository,
	chainReader repositories.ChainReader,
	explorerRepo repositories.ExplorerRepository,
	lockers repositories.LockerRegistry,
	holderLimit int,
	logger *zap.Logger,
) *LiquidityAnalyzer {
	if holderLimit <= 0 {
		holderLimit = DefaultHolderLimit
	}
	return &LiquidityAnalyzer{
		poolRepo:     poolRepo,
		chainReader:  chainReader,
		explorerRepo: explorerRepo,
		lockers:      lockers,
		holderLimit:  holderLimit,
		logger:       logger,
	}
}

// Analyze always returns a report. Fields that could not be computed stay nil
// and the reasons are joined into the returned error.
func (a *LiquidityAnalyzer) Analyze(ctx context.Context, chain entities.Chain, token string, pool *entities.PoolInfo) (*entities.LiquidityHolderReport, error) {
	report := &entities.LiquidityHolderReport{}
	var errs []error

	if pool != nil {
		pct, err := a.liquidityLocked(ctx, chain, pool)
		if err != nil {
			errs = append(errs, err)
		}
		report.PercentageLiquidityLockedOrBurned = pct
	}

	if err := a.tokenHolders(ctx, chain, token, pool, report); err != nil {
		errs = append(errs, err)
	}

	a.logger.Debug("Liquidity analysis finished",
		zap.String("token", token),
		zap.Any("liquidity_locked_pct", report.PercentageLiquidityLockedOrBurned),
		zap.Any("top_holder_pct", report.TopHolderPercentage),
		zap.Any("locked_or_burned_pct", report.PercentageLockedOrBurned),
	)

	return report, errors.Join(errs...)
}

// liquidityLocked returns the share of the pool's liquidity held by lockers or burn addresses
func (a *LiquidityAnalyzer) liquidityLocked(ctx context.Context, chain entities.Chain, pool *entities.PoolInfo) (*float64, error) {
	holders, err := a.poolRepo.LiquidityHolders(ctx, chain, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to get liquidity holders: %w", err)
	}
	if len(holders) == 0 {
		return nil, nil
	}

	var total *big.Int
	switch pool.DEX {
	case entities.DEXUniswapV2:
		total, err = a.chainReader.TotalSupply(ctx, chain, pool.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to get LP total supply: %w", err)
		}
	default:
		total = sumQuantities(holders)
	}

	locked := new(big.Int)
	for _, h := range holders {
		if h.Quantity != nil && a.lockers.IsLockerOrBurn(chain, h.Address) {
			locked.Add(locked, h.Quantity)
		}
	}

	return percent(locked, total), nil
}

// tokenHolders fills the top holder and locked-or-burned token shares
func (a *LiquidityAnalyzer) tokenHolders(ctx context.Context, chain entities.Chain, token string, pool *entities.PoolInfo, report *entities.LiquidityHolderReport) error {
	holders, err := a.explorerRepo.GetTokenHolders(ctx, chain, token, a.holderLimit)
	if err != nil {
		return fmt.Errorf("failed to get token holders: %w", err)
	}
	if len(holders) == 0 {
		return nil
	}

	total, err := a.chainReader.TotalSupply(ctx, chain, token)
	if err != nil {
		return fmt.Errorf("failed to get token total supply: %w", err)
	}

	burned := new(big.Int)
	top := new(big.Int)
	for _, h := range holders {
		if h.Quantity == nil {
			continue
		}
		if a.lockers.IsLockerOrBurn(chain, h.Address) {
			burned.Add(burned, h.Quantity)
			continue
		}
		if pool != nil && entities.SameAddress(h.Address, pool.Address) {
			continue
		}
		if h.Quantity.Cmp(top) > 0 {
			top = h.Quantity
			report.TopHolderAddress = h.Address
		}
	}

	report.TopHolderPercentage = percent(top, total)
	report.PercentageLockedOrBurned = percent(burned, total)
	return nil
}

func sumQuantities(holders []entities.HolderEntry) *big.Int {
	sum := new(big.Int)
	for _, h := range holders {
		if h.Quantity != nil {
			sum.Add(sum, h.Quantity)
		}
	}
	return sum
}

// percent returns part/total*100 clamped to [0, 100], or nil when total is not positive.
// Precision beyond float64's 53-bit mantissa is lost.
func percent(part, total *big.Int) *float64 {
	if part == nil || total == nil || total.Sign() <= 0 {
		return nil
	}

	ratio := new(big.Float).Quo(new(big.Float).SetInt(part), new(big.Float).SetInt(total))
	ratio.Mul(ratio, big.NewFloat(100))
	v, _ := ratio.Float64()

	switch {
	case v < 0:
		v = 0
	case v > 100:
		v = 100
	}
	return &v
}
