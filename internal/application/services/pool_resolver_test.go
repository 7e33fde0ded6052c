package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/testutil"
)

func setupPoolResolverTest() (*PoolResolver, *testutil.MockPoolRepository) {
	repo := testutil.NewMockPoolRepository()
	return NewPoolResolver(repo, nil, zap.NewNop()), repo
}

func TestPoolResolver_FindTopPool_NoPools(t *testing.T) {
	resolver, repo := setupPoolResolverTest()

	pool, err := resolver.FindTopPool(context.Background(), testutil.TokenAddress, entities.ChainEthereum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool != nil {
		t.Errorf("expected nil pool, got %+v", pool)
	}
	if repo.CallCount("TopPools") != 4 {
		t.Errorf("expected 4 queries, got %d", repo.CallCount("TopPools"))
	}
}

func TestPoolResolver_FindTopPool_PicksDeepest(t *testing.T) {
	resolver, repo := setupPoolResolverTest()

	repo.AddPools(
		testutil.CreateTestPool(testutil.PoolWithLiquidityUSD(20_000)),
		testutil.CreateTestPool(testutil.PoolWithV3(3000), testutil.PoolWithTargetToken1(), testutil.PoolWithLiquidityUSD(80_000)),
		testutil.CreateTestPool(testutil.PoolWithAddress(testutil.AliceAddress), testutil.PoolWithLiquidityUSD(500)),
	)

	pool, err := resolver.FindTopPool(context.Background(), testutil.TokenAddress, entities.ChainEthereum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool == nil {
		t.Fatal("expected a pool")
	}
	if pool.DEX != entities.DEXUniswapV3 {
		t.Errorf("expected V3 pool, got %s", pool.DEX)
	}
	if pool.LiquidityUSD != 80_000 {
		t.Errorf("expected liquidity 80000, got %f", pool.LiquidityUSD)
	}
	if pool.IsTargetToken0 {
		t.Error("expected token on token1 side")
	}
}

func TestPoolResolver_FindTopPool_QueryError(t *testing.T) {
	resolver, repo := setupPoolResolverTest()
	repo.AddPools(testutil.CreateTestPool())

	repo.TopPoolsFunc = func(ctx context.Context, chain entities.Chain, dex entities.DEX, token string, position entities.TokenPosition) ([]entities.PoolInfo, error) {
		if dex == entities.DEXUniswapV3 {
			return nil, errors.New("subgraph unavailable")
		}
		return []entities.PoolInfo{testutil.CreateTestPool()}, nil
	}

	pool, err := resolver.FindTopPool(context.Background(), testutil.TokenAddress, entities.ChainEthereum)
	if err == nil {
		t.Fatal("expected error")
	}
	if pool != nil {
		t.Errorf("expected nil pool on error, got %+v", pool)
	}
}

func TestSortByLiquidity(t *testing.T) {
	pools := []entities.PoolInfo{
		{Address: "0xcc", LiquidityUSD: 100},
		{Address: "0xBB", LiquidityUSD: 300},
		{Address: "0xaa", LiquidityUSD: 100},
		{Address: "0xdd", LiquidityUSD: 300},
		{Address: "0xee", LiquidityUSD: 0},
	}

	sortByLiquidity(pools)

	want := []string{"0xBB", "0xdd", "0xaa", "0xcc", "0xee"}
	for i, addr := range want {
		if pools[i].Address != addr {
			t.Errorf("position %d: expected %s, got %s", i, addr, pools[i].Address)
		}
	}

	for i := 1; i < len(pools); i++ {
		if pools[i].LiquidityUSD > pools[i-1].LiquidityUSD {
			t.Errorf("pools not sorted descending at %d", i)
		}
	}
}

func TestSortByLiquidity_Reproducible(t *testing.T) {
	a := []entities.PoolInfo{
		{Address: "0x02", LiquidityUSD: 10},
		{Address: "0x01", LiquidityUSD: 10},
		{Address: "0x03", LiquidityUSD: 10},
	}
	b := []entities.PoolInfo{a[2], a[0], a[1]}

	sortByLiquidity(a)
	sortByLiquidity(b)

	for i := range a {
		if a[i].Address != b[i].Address {
			t.Errorf("position %d differs: %s vs %s", i, a[i].Address, b[i].Address)
		}
	}
}
