package repositories

import (
	"context"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// ExplorerRepository defines the interface for block-explorer lookups
type ExplorerRepository interface {
	// GetSourceCode returns verified source; SourceCode is empty for unverified contracts
	GetSourceCode(ctx context.Context, chain entities.Chain, address string) (*entities.ContractSource, error)

	// GetTokenProfile returns token links and contract creation details
	GetTokenProfile(ctx context.Context, chain entities.Chain, address string) (*entities.TokenProfile, error)

	// GetTokenHolders returns the largest holders of an ERC-20
	GetTokenHolders(ctx context.Context, chain entities.Chain, token string, limit int) ([]entities.HolderEntry, error)
}
