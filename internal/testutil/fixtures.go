package testutil

import (
	"math/big"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// Common test addresses
const (
	TokenAddress   = "0x6982508145454ce325ddbe47a25d4ec3d2311933"
	WETHAddress    = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	USDCAddress    = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	PairAddress    = "0xa43fe16908251ee70ef74718545e4fe6c5ccec9f"
	V3PoolAddress  = "0x11950d141ecb863f01007add7d1a342041227b58"
	LockerAddress  = "0x663a5c229c09b049e36dcc11a9b0d4a8eb9db214"
	ZeroAddress    = "0x0000000000000000000000000000000000000000"
	DeadAddress    = "0x000000000000000000000000000000000000dead"
	AliceAddress   = "0x1111111111111111111111111111111111111111"
	BobAddress     = "0x2222222222222222222222222222222222222222"
	CreatorAddress = "0x3333333333333333333333333333333333333333"
)

// Ether is 1e18 wei
var Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Tokens returns n whole tokens with 18 decimals
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Ether)
}

// CreateTestPool creates a V2 WETH pair for TokenAddress with default values
func CreateTestPool(opts ...PoolOption) entities.PoolInfo {
	p := entities.PoolInfo{
		DEX:              entities.DEXUniswapV2,
		Address:          PairAddress,
		Token0:           TokenAddress,
		Token1:           WETHAddress,
		IsTargetToken0:   true,
		BaseTokenAddress: WETHAddress,
		BaseTokenSymbol:  "WETH",
		FeeBps:           30,
		LiquidityUSD:     50_000,
		CreatedAtBlock:   17046833,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

type PoolOption func(*entities.PoolInfo)

func PoolWithAddress(addr string) PoolOption {
	return func(p *entities.PoolInfo) {
		p.Address = addr
	}
}

func PoolWithLiquidityUSD(usd float64) PoolOption {
	return func(p *entities.PoolInfo) {
		p.LiquidityUSD = usd
	}
}

// PoolWithV3 turns the pool into a V3 pool with the given fee tier
func PoolWithV3(feeTier uint32) PoolOption {
	return func(p *entities.PoolInfo) {
		p.DEX = entities.DEXUniswapV3
		p.Address = V3PoolAddress
		p.FeeTier = feeTier
		p.FeeBps = feeTier / 100
	}
}

// PoolWithTargetToken1 puts the assessed token on the token1 side
func PoolWithTargetToken1() PoolOption {
	return func(p *entities.PoolInfo) {
		p.Token0, p.Token1 = p.BaseTokenAddress, TokenAddress
		p.IsTargetToken0 = false
	}
}

// PoolWithBase pairs the token against a different base asset
func PoolWithBase(addr, symbol string) PoolOption {
	return func(p *entities.PoolInfo) {
		if p.IsTargetToken0 {
			p.Token1 = addr
		} else {
			p.Token0 = addr
		}
		p.BaseTokenAddress = addr
		p.BaseTokenSymbol = symbol
	}
}

// CreateTestToken creates token metadata for TokenAddress
func CreateTestToken() entities.Token {
	return entities.Token{
		Address:     TokenAddress,
		Name:        "Pepe",
		Symbol:      "PEPE",
		Decimals:    18,
		TotalSupply: Tokens(1_000_000),
	}
}

// CreateTestCheckList creates a checklist that passes every rule
func CreateTestCheckList(opts ...CheckListOption) entities.TokenCheckList {
	pool := CreateTestPool()
	cl := entities.TokenCheckList{
		Chain:                             entities.ChainEthereum,
		Address:                           TokenAddress,
		Name:                              "Pepe",
		Symbol:                            "PEPE",
		IsContractVerified:                entities.BoolPtr(true),
		Pool:                              &pool,
		LiquidityUSD:                      entities.Float64Ptr(50_000),
		TopHolderPercentage:               entities.Float64Ptr(3),
		PercentageLockedOrBurned:          entities.Float64Ptr(0),
		PercentageLiquidityLockedOrBurned: entities.Float64Ptr(95),
		IsTokenSellable:                   entities.BoolPtr(true),
		CodeReview:                        &entities.CodeReviewVerdict{},
		HasWebsite:                        entities.BoolPtr(true),
		HasTwitterOrDiscord:               entities.BoolPtr(true),
	}

	for _, opt := range opts {
		opt(&cl)
	}

	return cl
}

type CheckListOption func(*entities.TokenCheckList)

func WithSellable(v *bool) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.IsTokenSellable = v
	}
}

func WithLiquidityLocked(pct *float64) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.PercentageLiquidityLockedOrBurned = pct
	}
}

func WithLiquidityUSD(usd *float64) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.LiquidityUSD = usd
	}
}

func WithTopHolder(pct *float64) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.TopHolderPercentage = pct
	}
}

func WithCodeReview(v *entities.CodeReviewVerdict) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.CodeReview = v
	}
}

// WithSuspiciousCode marks the code as possibly a scam, with or without a justification
func WithSuspiciousCode(justifiable bool) CheckListOption {
	return WithCodeReview(&entities.CodeReviewVerdict{
		PossibleScam:                           true,
		Reason:                                 "owner can pause transfers",
		CouldLegitimatelyJustifySuspiciousCode: justifiable,
	})
}

func WithPresence(website, social *bool) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.HasWebsite = website
		cl.HasTwitterOrDiscord = social
	}
}

func WithWebsiteReview(v *entities.WebsiteReviewVerdict) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.WebsiteReview = v
	}
}

func WithSocialReview(v *entities.SocialReviewVerdict) CheckListOption {
	return func(cl *entities.TokenCheckList) {
		cl.SocialReview = v
	}
}
