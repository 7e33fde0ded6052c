package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
)

// Ensure Registry implements ChainReader and LockerRegistry
var (
	_ repositories.ChainReader    = (*Registry)(nil)
	_ repositories.LockerRegistry = (*Registry)(nil)
)

// ChainEntry is everything the engine knows about one chain
type ChainEntry struct {
	Client   *Client
	Metadata *MetadataFetcher
	Book     AddressBook
	Lockers  LockerSet
}

// Registry holds per-chain connections and address tables.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	chains map[entities.Chain]*ChainEntry
	logger *zap.Logger
}

// NewRegistry dials every enabled chain. Any failure is fatal to startup.
func NewRegistry(ctx context.Context, cfg config.EthereumConfig, extraLockers []string, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		chains: make(map[entities.Chain]*ChainEntry, len(cfg.EnabledChains)),
		logger: logger,
	}

	for _, id := range cfg.EnabledChains {
		chain, err := entities.ParseChain(id)
		if err != nil {
			r.Close()
			return nil, err
		}

		book, ok := LookupAddressBook(chain)
		if !ok {
			r.Close()
			return nil, fmt.Errorf("%w: no address book for %s", entities.ErrUnsupportedChain, chain)
		}

		client, err := NewClient(ctx, chain, cfg.RPCURL(id), cfg, logger)
		if err != nil {
			r.Close()
			return nil, err
		}

		r.chains[chain] = &ChainEntry{
			Client:   client,
			Metadata: NewMetadataFetcher(client, logger),
			Book:     book,
			Lockers:  NewLockerSet(book, extraLockers),
		}
	}

	return r, nil
}

// NewStaticRegistry builds a registry from prepared entries, used by tests and tools
func NewStaticRegistry(entries map[entities.Chain]*ChainEntry, logger *zap.Logger) *Registry {
	return &Registry{chains: entries, logger: logger}
}

// Entry returns the chain entry or ErrUnsupportedChain
func (r *Registry) Entry(chain entities.Chain) (*ChainEntry, error) {
	entry, ok := r.chains[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not enabled", entities.ErrUnsupportedChain, chain)
	}
	return entry, nil
}

// Chains lists enabled chains
func (r *Registry) Chains() []entities.Chain {
	out := make([]entities.Chain, 0, len(r.chains))
	for c := range r.chains {
		out = append(out, c)
	}
	return out
}

// TokenMetadata reads name, symbol, decimals and total supply
func (r *Registry) TokenMetadata(ctx context.Context, chain entities.Chain, token string) (*entities.Token, error) {
	entry, err := r.Entry(chain)
	if err != nil {
		return nil, err
	}
	return entry.Metadata.FetchMetadata(ctx, token)
}

// TotalSupply reads totalSupply() of an ERC-20 or LP token
func (r *Registry) TotalSupply(ctx context.Context, chain entities.Chain, asset string) (*big.Int, error) {
	entry, err := r.Entry(chain)
	if err != nil {
		return nil, err
	}
	return entry.Metadata.TotalSupply(ctx, common.HexToAddress(asset))
}

// IsLockerOrBurn reports whether address is a known locker or burn address on chain
func (r *Registry) IsLockerOrBurn(chain entities.Chain, address string) bool {
	entry, ok := r.chains[chain]
	if !ok {
		return IsBurnAddress(address)
	}
	return entry.Lockers.Contains(address)
}

// HealthCheck asks every chain for its latest block
func (r *Registry) HealthCheck(ctx context.Context) error {
	for chain, entry := range r.chains {
		if _, err := entry.Client.GetLatestBlockNumber(ctx); err != nil {
			return fmt.Errorf("%s: %w", chain, err)
		}
	}
	return nil
}

// Close closes every chain connection
func (r *Registry) Close() {
	for _, entry := range r.chains {
		if entry.Client != nil {
			entry.Client.Close()
		}
	}
}
