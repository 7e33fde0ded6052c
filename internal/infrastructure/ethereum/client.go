package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// Client wraps the Ethereum client with retry logic and utilities
type Client struct {
	client  *ethclient.Client
	config  config.EthereumConfig
	logger  *zap.Logger
	chain   entities.Chain
	rpcURL  string
	chainID *big.Int
}

// NewClient connects to a chain node and verifies it serves the expected chain
func NewClient(ctx context.Context, chain entities.Chain, rpcURL string, cfg config.EthereumConfig, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s node: %w", chain, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	if chainID.Int64() != chain.ID() {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", chain.ID(), chainID.Int64())
	}

	logger.Info("Connected to chain node",
		zap.String("chain", chain.String()),
		zap.Int64("chain_id", chainID.Int64()),
	)

	return &Client{
		client:  client,
		config:  cfg,
		logger:  logger,
		chain:   chain,
		rpcURL:  rpcURL,
		chainID: chainID,
	}, nil
}

// Close closes the node connection
func (c *Client) Close() {
	c.client.Close()
}

// GetLatestBlockNumber returns the latest block number
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	var blockNumber uint64
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		attemptCtx, cancel := c.attemptContext(ctx)
		blockNumber, err = c.client.BlockNumber(attemptCtx)
		cancel()
		if err == nil {
			return blockNumber, nil
		}

		c.logger.Warn("Failed to get latest block number, retrying",
			zap.String("chain", c.chain.String()),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			if err := sleepContext(ctx, c.config.RetryDelay); err != nil {
				return 0, err
			}
		}
	}

	return 0, fmt.Errorf("failed to get latest block number after %d retries: %w", c.config.MaxRetries, err)
}

// CallContract performs an eth_call against the latest block
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}

	var result []byte
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		attemptCtx, cancel := c.attemptContext(ctx)
		result, err = c.client.CallContract(attemptCtx, msg, nil)
		cancel()
		if err == nil {
			return result, nil
		}

		// A revert is deterministic; retrying cannot change it
		if isRevert(err) {
			return nil, err
		}

		c.logger.Warn("eth_call failed, retrying",
			zap.String("to", to.Hex()),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			if err := sleepContext(ctx, c.config.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("eth_call to %s failed after %d retries: %w", to.Hex(), c.config.MaxRetries, err)
}

// attemptContext bounds one RPC attempt by ETH_REQUEST_TIMEOUT
func (c *Client) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.RequestTimeout)
}

// Chain returns the chain this client is bound to
func (c *Client) Chain() entities.Chain {
	return c.chain
}

// ChainID returns the chain ID
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// RPCURL returns the upstream endpoint, used as the fork source for simulations
func (c *Client) RPCURL() string {
	return c.rpcURL
}

// EthClient returns the underlying ethclient for advanced operations
func (c *Client) EthClient() *ethclient.Client {
	return c.client
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
