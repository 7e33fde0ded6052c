package explorer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the common Etherscan response wrapper
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// StatusError is returned when the explorer answers with status != "1"
type StatusError struct {
	Action  string
	Message string
	Result  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("explorer %s failed: %s (%s)", e.Action, e.Message, e.Result)
}

// IsNoData reports whether the explorer simply had nothing to return
func (e *StatusError) IsNoData() bool {
	return e.Message == "No data found" || e.Message == "No token holders found" || e.Result == "[]"
}

// IsRateLimited reports whether the explorer throttled the request
func (e *StatusError) IsRateLimited() bool {
	return strings.Contains(strings.ToLower(e.Result), "rate limit")
}

type sourceCodeResult struct {
	SourceCode      string `json:"SourceCode"`
	ABI             string `json:"ABI"`
	ContractName    string `json:"ContractName"`
	CompilerVersion string `json:"CompilerVersion"`
	Proxy           string `json:"Proxy"`
	Implementation  string `json:"Implementation"`
}

type contractCreationResult struct {
	ContractAddress string `json:"contractAddress"`
	ContractCreator string `json:"contractCreator"`
	TxHash          string `json:"txHash"`
}

type tokenInfoResult struct {
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	Symbol          string `json:"symbol"`
	Website         string `json:"website"`
	Twitter         string `json:"twitter"`
	Discord         string `json:"discord"`
	Telegram        string `json:"telegram"`
}

type tokenHolderResult struct {
	TokenHolderAddress  string `json:"TokenHolderAddress"`
	TokenHolderQuantity string `json:"TokenHolderQuantity"`
}
