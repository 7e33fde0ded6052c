package entities

import (
	"math/big"
)

// Token holds the ERC-20 identity read from chain and explorer
type Token struct {
	Address     string   `json:"address"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    int      `json:"decimals"`
	TotalSupply *big.Int `json:"-"`
}

// TokenProfile is the explorer's view of a token: links and contract provenance
type TokenProfile struct {
	Website        string `json:"website,omitempty"`
	Twitter        string `json:"twitter,omitempty"`
	Discord        string `json:"discord,omitempty"`
	Telegram       string `json:"telegram,omitempty"`
	CreatorAddress string `json:"creator_address,omitempty"`
	CreationTxHash string `json:"creation_tx_hash,omitempty"`
}

// ContractSource is verified source code published on the explorer
type ContractSource struct {
	ContractName    string `json:"contract_name"`
	CompilerVersion string `json:"compiler_version"`
	SourceCode      string `json:"-"`
	IsProxy         bool   `json:"is_proxy"`
	Implementation  string `json:"implementation,omitempty"`
}

// IsVerified reports whether the explorer returned any source
func (s *ContractSource) IsVerified() bool {
	return s != nil && s.SourceCode != ""
}
