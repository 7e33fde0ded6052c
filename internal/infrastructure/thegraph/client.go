package thegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
)

// Ensure Client implements PoolRepository
var _ repositories.PoolRepository = (*Client)(nil)

// V2 pairs always charge 0.30%
const v2FeeBps = 30

type subgraphKey struct {
	chain entities.Chain
	dex   entities.DEX
}

var defaultSubgraphs = map[subgraphKey]string{
	{entities.ChainEthereum, entities.DEXUniswapV2}: "A3Np3RQbaBA6oKJgiwDJeo5T3zrYfGHPWFYayMwtNDum",
	{entities.ChainEthereum, entities.DEXUniswapV3}: "5zvR82QoaXYFyDEKLZ9t6v9adgnptxYpKpSbxtgVENFV",
	{entities.ChainBase, entities.DEXUniswapV2}:     "4jGhpKjW4prWoyt5Bwk1ZHUwdEmNWveJcjEyjoTZWCY9",
	{entities.ChainBase, entities.DEXUniswapV3}:     "43Hwfi3dJSoGpyas9VwNoDAv55yjgGrPpNSmbQZArzMG",
}

// QueryError is returned when the subgraph answers with GraphQL errors
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	return "subgraph query failed: " + strings.Join(e.Messages, "; ")
}

// Client queries Uniswap subgraphs through The Graph gateway
type Client struct {
	httpClient *http.Client
	config     config.IndexerConfig
	subgraphs  map[subgraphKey]string
	logger     *zap.Logger
}

// NewClient creates a subgraph client. Deployment IDs from config override the defaults.
func NewClient(cfg config.IndexerConfig, logger *zap.Logger) *Client {
	subgraphs := make(map[subgraphKey]string, len(defaultSubgraphs))
	for k, v := range defaultSubgraphs {
		subgraphs[k] = v
	}
	overrides := map[subgraphKey]string{
		{entities.ChainEthereum, entities.DEXUniswapV2}: cfg.MainnetV2Subgraph,
		{entities.ChainEthereum, entities.DEXUniswapV3}: cfg.MainnetV3Subgraph,
		{entities.ChainBase, entities.DEXUniswapV2}:     cfg.BaseV2Subgraph,
		{entities.ChainBase, entities.DEXUniswapV3}:     cfg.BaseV3Subgraph,
	}
	for k, v := range overrides {
		if v != "" {
			subgraphs[k] = v
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		config:     cfg,
		subgraphs:  subgraphs,
		logger:     logger,
	}
}

// TopPools returns the deepest pools of one protocol with the token at the given position
func (c *Client) TopPools(ctx context.Context, chain entities.Chain, dex entities.DEX, token string, position entities.TokenPosition) ([]entities.PoolInfo, error) {
	token = strings.ToLower(token)
	vars := map[string]interface{}{"token": token}

	switch dex {
	case entities.DEXUniswapV2:
		var data struct {
			Pairs []pairNode `json:"pairs"`
		}
		if err := c.query(ctx, chain, dex, topPairsQuery(position), vars, &data); err != nil {
			return nil, err
		}

		pools := make([]entities.PoolInfo, 0, len(data.Pairs))
		for _, p := range data.Pairs {
			pool, err := pairToPool(p, position)
			if err != nil {
				return nil, err
			}
			pools = append(pools, pool)
		}
		return pools, nil

	case entities.DEXUniswapV3:
		var data struct {
			Pools []poolNode `json:"pools"`
		}
		if err := c.query(ctx, chain, dex, topPoolsQuery(position), vars, &data); err != nil {
			return nil, err
		}

		pools := make([]entities.PoolInfo, 0, len(data.Pools))
		for _, p := range data.Pools {
			pool, err := v3NodeToPool(p, position)
			if err != nil {
				return nil, err
			}
			pools = append(pools, pool)
		}
		return pools, nil

	default:
		return nil, fmt.Errorf("unknown DEX %d", dex)
	}
}

// LiquidityHolders returns LP token balances for V2 pairs and
// position liquidity for V3 pools, paging by ID.
func (c *Client) LiquidityHolders(ctx context.Context, chain entities.Chain, pool *entities.PoolInfo) ([]entities.HolderEntry, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}

	pageSize := c.config.HolderPageSize
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}

	var holders []entities.HolderEntry
	lastID := ""

	for page := 0; page < maxHolderPages; page++ {
		var (
			batch  []entities.HolderEntry
			nextID string
			err    error
		)

		switch pool.DEX {
		case entities.DEXUniswapV2:
			batch, nextID, err = c.liquidityPositions(ctx, chain, pool.Address, pageSize, lastID)
		case entities.DEXUniswapV3:
			batch, nextID, err = c.positions(ctx, chain, pool.Address, pageSize, lastID)
		default:
			return nil, fmt.Errorf("unknown DEX %d", pool.DEX)
		}
		if err != nil {
			return nil, err
		}

		holders = append(holders, batch...)
		if len(batch) < pageSize {
			return holders, nil
		}
		lastID = nextID
	}

	c.logger.Warn("Liquidity holder list truncated",
		zap.String("pool", pool.Address),
		zap.Int("holders", len(holders)),
	)

	return holders, nil
}

func (c *Client) liquidityPositions(ctx context.Context, chain entities.Chain, pair string, first int, lastID string) ([]entities.HolderEntry, string, error) {
	var data struct {
		LiquidityPositions []liquidityPositionNode `json:"liquidityPositions"`
	}
	vars := map[string]interface{}{
		"pair":   strings.ToLower(pair),
		"first":  first,
		"lastID": lastID,
	}
	if err := c.query(ctx, chain, entities.DEXUniswapV2, liquidityPositionsQuery, vars, &data); err != nil {
		return nil, "", err
	}

	holders := make([]entities.HolderEntry, 0, len(data.LiquidityPositions))
	nextID := lastID
	for _, lp := range data.LiquidityPositions {
		qty, err := lpBalanceToWei(lp.LiquidityTokenBalance)
		if err != nil {
			return nil, "", err
		}
		holders = append(holders, entities.HolderEntry{
			Address:  strings.ToLower(lp.User.ID),
			Quantity: qty,
		})
		nextID = lp.ID
	}
	return holders, nextID, nil
}

func (c *Client) positions(ctx context.Context, chain entities.Chain, pool string, first int, lastID string) ([]entities.HolderEntry, string, error) {
	var data struct {
		Positions []positionNode `json:"positions"`
	}
	vars := map[string]interface{}{
		"pool":   strings.ToLower(pool),
		"first":  first,
		"lastID": lastID,
	}
	if err := c.query(ctx, chain, entities.DEXUniswapV3, positionsQuery, vars, &data); err != nil {
		return nil, "", err
	}

	holders := make([]entities.HolderEntry, 0, len(data.Positions))
	nextID := lastID
	for _, p := range data.Positions {
		liquidity, ok := new(big.Int).SetString(p.Liquidity, 10)
		if !ok {
			return nil, "", fmt.Errorf("invalid position liquidity %q", p.Liquidity)
		}
		holders = append(holders, entities.HolderEntry{
			Address:  strings.ToLower(p.Owner),
			Quantity: liquidity,
		})
		nextID = p.ID
	}
	return holders, nextID, nil
}

func (c *Client) endpoint(chain entities.Chain, dex entities.DEX) (string, error) {
	id, ok := c.subgraphs[subgraphKey{chain, dex}]
	if !ok {
		return "", fmt.Errorf("%w: no %s subgraph for %s", entities.ErrUnsupportedChain, dex, chain)
	}
	return fmt.Sprintf("%s/%s/subgraphs/id/%s", strings.TrimRight(c.config.GatewayURL, "/"), c.config.APIKey, id), nil
}

// query posts a GraphQL document and decodes its data into out.
// Transport failures, 429 and 5xx are retried; GraphQL errors are not.
func (c *Client) query(ctx context.Context, chain entities.Chain, dex entities.DEX, query string, vars map[string]interface{}, out interface{}) error {
	url, err := c.endpoint(chain, dex)
	if err != nil {
		return err
	}

	body, err := json.Marshal(graphRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	operation := func() (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to query subgraph: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read subgraph response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("subgraph returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("subgraph returned status %d: %s", resp.StatusCode, truncate(raw, 200)))
		}

		var envelope struct {
			Data   json.RawMessage `json:"data"`
			Errors []graphError    `json:"errors"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to decode subgraph response: %w", err))
		}
		if len(envelope.Errors) > 0 {
			qe := &QueryError{}
			for _, e := range envelope.Errors {
				qe.Messages = append(qe.Messages, e.Message)
			}
			return nil, backoff.Permanent(qe)
		}
		return envelope.Data, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.config.MaxRetries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.logger.Warn("Subgraph query failed, retrying",
				zap.String("chain", chain.String()),
				zap.String("dex", dex.String()),
				zap.Duration("backoff", d),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return err
	}

	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("subgraph returned no data")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode subgraph data: %w", err)
	}
	return nil
}

func pairToPool(p pairNode, position entities.TokenPosition) (entities.PoolInfo, error) {
	usd, err := decimal.NewFromString(p.ReserveUSD)
	if err != nil {
		return entities.PoolInfo{}, fmt.Errorf("invalid reserveUSD %q: %w", p.ReserveUSD, err)
	}

	pool := newPool(entities.DEXUniswapV2, p.ID, p.Token0, p.Token1, position)
	pool.FeeBps = v2FeeBps
	pool.LiquidityUSD = usd.InexactFloat64()
	pool.CreatedAtBlock = parseBlock(p.CreatedAtBlockNumber)
	return pool, nil
}

func v3NodeToPool(p poolNode, position entities.TokenPosition) (entities.PoolInfo, error) {
	usd, err := decimal.NewFromString(p.TotalValueLockedUSD)
	if err != nil {
		return entities.PoolInfo{}, fmt.Errorf("invalid totalValueLockedUSD %q: %w", p.TotalValueLockedUSD, err)
	}
	feeTier, err := strconv.ParseUint(p.FeeTier, 10, 32)
	if err != nil {
		return entities.PoolInfo{}, fmt.Errorf("invalid feeTier %q: %w", p.FeeTier, err)
	}

	pool := newPool(entities.DEXUniswapV3, p.ID, p.Token0, p.Token1, position)
	pool.FeeTier = uint32(feeTier)
	pool.FeeBps = uint32(feeTier / 100)
	pool.LiquidityUSD = usd.InexactFloat64()
	pool.CreatedAtBlock = parseBlock(p.CreatedAtBlockNumber)
	return pool, nil
}

func newPool(dex entities.DEX, id string, token0, token1 tokenRef, position entities.TokenPosition) entities.PoolInfo {
	pool := entities.PoolInfo{
		DEX:            dex,
		Address:        strings.ToLower(id),
		Token0:         strings.ToLower(token0.ID),
		Token1:         strings.ToLower(token1.ID),
		IsTargetToken0: position == entities.PositionToken0,
	}
	if pool.IsTargetToken0 {
		pool.BaseTokenAddress = pool.Token1
		pool.BaseTokenSymbol = token1.Symbol
	} else {
		pool.BaseTokenAddress = pool.Token0
		pool.BaseTokenSymbol = token0.Symbol
	}
	return pool
}

// lpBalanceToWei converts a decimal LP balance into raw 18-decimal units
func lpBalanceToWei(balance string) (*big.Int, error) {
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid liquidityTokenBalance %q: %w", balance, err)
	}
	return d.Shift(18).BigInt(), nil
}

func parseBlock(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
