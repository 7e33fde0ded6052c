package repositories

import (
	"context"
	"math/big"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// ForkLauncher starts an isolated forked node for one simulation
type ForkLauncher interface {
	Launch(ctx context.Context, chain entities.Chain) (ForkSession, error)
}

// ForkSession is a forked node exclusively owned by one simulation.
// Reverted calls and transactions are reported as errors the caller can classify.
type ForkSession interface {
	// Fund credits the simulator wallet with amount wei
	Fund(ctx context.Context, amount *big.Int) error

	// QuoteBuy returns the expected token output for amountIn wei
	QuoteBuy(ctx context.Context, pool *entities.PoolInfo, amountIn *big.Int) (*big.Int, error)

	// Buy swaps amountIn wei for the target token and returns the tx hash
	Buy(ctx context.Context, pool *entities.PoolInfo, amountIn, minOut *big.Int) (string, error)

	// TokenBalance returns the simulator wallet's balance of token
	TokenBalance(ctx context.Context, token string) (*big.Int, error)

	// Approve lets the pool's router spend amount of the target token
	Approve(ctx context.Context, pool *entities.PoolInfo, amount *big.Int) (string, error)

	// QuoteSell returns the expected output for selling amountIn tokens
	QuoteSell(ctx context.Context, pool *entities.PoolInfo, amountIn *big.Int) (*big.Int, error)

	// Sell swaps amountIn tokens back and returns the tx hash
	Sell(ctx context.Context, pool *entities.PoolInfo, amountIn, minOut *big.Int) (string, error)

	// Close tears the node down; safe to call more than once
	Close() error
}
