package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
)

// Ensure Client implements ExplorerRepository
var _ repositories.ExplorerRepository = (*Client)(nil)

// Client talks to the Etherscan v2 multichain API
type Client struct {
	httpClient *http.Client
	config     config.ExplorerConfig
	logger     *zap.Logger
}

// NewClient creates a new explorer client
func NewClient(cfg config.ExplorerConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		config:     cfg,
		logger:     logger,
	}
}

// GetSourceCode returns verified source for a contract.
// Unverified contracts yield a ContractSource with empty SourceCode.
func (c *Client) GetSourceCode(ctx context.Context, chain entities.Chain, address string) (*entities.ContractSource, error) {
	var results []sourceCodeResult
	err := c.get(ctx, chain, "getsourcecode", url.Values{
		"module":  {"contract"},
		"action":  {"getsourcecode"},
		"address": {address},
	}, &results)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &entities.ContractSource{}, nil
	}

	r := results[0]
	return &entities.ContractSource{
		ContractName:    r.ContractName,
		CompilerVersion: r.CompilerVersion,
		SourceCode:      r.SourceCode,
		IsProxy:         r.Proxy == "1",
		Implementation:  strings.ToLower(r.Implementation),
	}, nil
}

// GetTokenProfile returns creator details and project links.
// tokeninfo is a paid endpoint on some plans, so its failure only drops the links.
func (c *Client) GetTokenProfile(ctx context.Context, chain entities.Chain, address string) (*entities.TokenProfile, error) {
	profile := &entities.TokenProfile{}

	var creations []contractCreationResult
	creationErr := c.get(ctx, chain, "getcontractcreation", url.Values{
		"module":            {"contract"},
		"action":            {"getcontractcreation"},
		"contractaddresses": {address},
	}, &creations)
	if creationErr == nil && len(creations) > 0 {
		profile.CreatorAddress = strings.ToLower(creations[0].ContractCreator)
		profile.CreationTxHash = creations[0].TxHash
	}

	var infos []tokenInfoResult
	infoErr := c.get(ctx, chain, "tokeninfo", url.Values{
		"module":          {"token"},
		"action":          {"tokeninfo"},
		"contractaddress": {address},
	}, &infos)
	if infoErr != nil {
		c.logger.Debug("Token info unavailable",
			zap.String("token", address),
			zap.Error(infoErr),
		)
	} else if len(infos) > 0 {
		profile.Website = strings.TrimSpace(infos[0].Website)
		profile.Twitter = strings.TrimSpace(infos[0].Twitter)
		profile.Discord = strings.TrimSpace(infos[0].Discord)
		profile.Telegram = strings.TrimSpace(infos[0].Telegram)
	}

	if creationErr != nil && infoErr != nil {
		return nil, fmt.Errorf("failed to get token profile: %w", creationErr)
	}
	return profile, nil
}

// ErrHoldersIncomplete is returned when the holder list is longer than the explorer lets us page
var ErrHoldersIncomplete = errors.New("holder list exceeds paging limit")

// Pages of tokenholderlist read before giving up on a complete list
const maxHolderPages = 10

// GetTokenHolders returns the limit largest holders, sorted by quantity descending.
// topholders is tried first; without it the whole tokenholderlist is read and sorted,
// since that endpoint has no defined order.
func (c *Client) GetTokenHolders(ctx context.Context, chain entities.Chain, token string, limit int) ([]entities.HolderEntry, error) {
	if limit <= 0 {
		limit = c.config.HolderLimit
	}

	var results []tokenHolderResult
	err := c.get(ctx, chain, "topholders", url.Values{
		"module":          {"token"},
		"action":          {"topholders"},
		"contractaddress": {token},
		"offset":          {strconv.Itoa(limit)},
	}, &results)
	if err == nil {
		holders, err := parseHolders(results)
		if err != nil {
			return nil, err
		}
		sortByQuantity(holders)
		return truncateHolders(holders, limit), nil
	}

	var se *StatusError
	if !errors.As(err, &se) {
		return nil, err
	}
	if se.IsNoData() {
		return []entities.HolderEntry{}, nil
	}

	c.logger.Debug("Top holders unavailable, reading full holder list",
		zap.String("token", token),
		zap.Error(err),
	)

	holders, err := c.allHolders(ctx, chain, token)
	if err != nil {
		return nil, err
	}
	sortByQuantity(holders)
	return truncateHolders(holders, limit), nil
}

// allHolders pages through tokenholderlist until a short page ends the list
func (c *Client) allHolders(ctx context.Context, chain entities.Chain, token string) ([]entities.HolderEntry, error) {
	pageSize := c.config.HolderLimit
	if pageSize <= 0 {
		pageSize = 1000
	}

	var holders []entities.HolderEntry
	for page := 1; page <= maxHolderPages; page++ {
		var results []tokenHolderResult
		err := c.get(ctx, chain, "tokenholderlist", url.Values{
			"module":          {"token"},
			"action":          {"tokenholderlist"},
			"contractaddress": {token},
			"page":            {strconv.Itoa(page)},
			"offset":          {strconv.Itoa(pageSize)},
		}, &results)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.IsNoData() {
				return holders, nil
			}
			return nil, err
		}

		parsed, err := parseHolders(results)
		if err != nil {
			return nil, err
		}
		holders = append(holders, parsed...)

		if len(results) < pageSize {
			return holders, nil
		}
	}

	return nil, fmt.Errorf("%w: more than %d holders of %s", ErrHoldersIncomplete, maxHolderPages*pageSize, token)
}

func parseHolders(results []tokenHolderResult) ([]entities.HolderEntry, error) {
	holders := make([]entities.HolderEntry, 0, len(results))
	for _, r := range results {
		qty, ok := new(big.Int).SetString(r.TokenHolderQuantity, 10)
		if !ok {
			return nil, fmt.Errorf("invalid holder quantity %q for %s", r.TokenHolderQuantity, r.TokenHolderAddress)
		}
		holders = append(holders, entities.HolderEntry{
			Address:  strings.ToLower(r.TokenHolderAddress),
			Quantity: qty,
		})
	}
	return holders, nil
}

// sortByQuantity orders holders largest first, ties by address
func sortByQuantity(holders []entities.HolderEntry) {
	sort.SliceStable(holders, func(i, j int) bool {
		if c := holders[i].Quantity.Cmp(holders[j].Quantity); c != 0 {
			return c > 0
		}
		return holders[i].Address < holders[j].Address
	})
}

func truncateHolders(holders []entities.HolderEntry, limit int) []entities.HolderEntry {
	if limit > 0 && len(holders) > limit {
		return holders[:limit]
	}
	return holders
}

// get issues one API call and decodes result into out.
// Transport errors, 5xx and rate limiting are retried.
func (c *Client) get(ctx context.Context, chain entities.Chain, action string, params url.Values, out interface{}) error {
	params.Set("chainid", strconv.FormatInt(chain.ID(), 10))
	params.Set("apikey", c.config.APIKey)
	endpoint := c.config.BaseURL + "?" + params.Encode()

	operation := func() (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call explorer %s: %w", action, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read explorer response: %w", err)
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("explorer %s returned status %d", action, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("explorer %s returned status %d", action, resp.StatusCode))
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to decode explorer response: %w", err))
		}

		if env.Status != "1" {
			se := &StatusError{Action: action, Message: env.Message, Result: rawString(env.Result)}
			if se.IsRateLimited() {
				return nil, se
			}
			return nil, backoff.Permanent(se)
		}
		return env.Result, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.config.MaxRetries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.logger.Warn("Explorer request failed, retrying",
				zap.String("chain", chain.String()),
				zap.String("action", action),
				zap.Duration("backoff", d),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("failed to decode explorer %s result: %w", action, err)
	}
	return nil
}

// rawString renders a result that may be a JSON string or any other value
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
