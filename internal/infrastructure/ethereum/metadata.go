package ethereum

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// ERC-20 function selectors (first 4 bytes of keccak256 hash)
var (
	// name() -> 0x06fdde03
	nameSig = common.FromHex("0x06fdde03")
	// symbol() -> 0x95d89b41
	symbolSig = common.FromHex("0x95d89b41")
	// decimals() -> 0x313ce567
	decimalsSig = common.FromHex("0x313ce567")
)

// MetadataFetcher reads ERC-20 identity and supply via eth_call
type MetadataFetcher struct {
	client *Client
	logger *zap.Logger
}

// NewMetadataFetcher creates a new metadata fetcher
func NewMetadataFetcher(client *Client, logger *zap.Logger) *MetadataFetcher {
	return &MetadataFetcher{
		client: client,
		logger: logger,
	}
}

// FetchMetadata reads name, symbol, decimals and totalSupply of a token.
// Name and symbol stay empty when the contract does not expose them;
// a missing totalSupply is an error because nothing can be computed without it.
func (f *MetadataFetcher) FetchMetadata(ctx context.Context, tokenAddress string) (*entities.Token, error) {
	addr := common.HexToAddress(tokenAddress)

	token := &entities.Token{Address: strings.ToLower(addr.Hex())}

	name, err := f.fetchString(ctx, addr, nameSig)
	if err != nil {
		f.logger.Warn("Failed to fetch token name",
			zap.String("token", tokenAddress),
			zap.Error(err),
		)
	}
	token.Name = name

	symbol, err := f.fetchString(ctx, addr, symbolSig)
	if err != nil {
		f.logger.Warn("Failed to fetch token symbol",
			zap.String("token", tokenAddress),
			zap.Error(err),
		)
	}
	token.Symbol = symbol

	decimals, err := f.fetchDecimals(ctx, addr)
	if err != nil {
		f.logger.Warn("Failed to fetch token decimals, assuming 18",
			zap.String("token", tokenAddress),
			zap.Error(err),
		)
		decimals = 18
	}
	token.Decimals = int(decimals)

	supply, err := f.TotalSupply(ctx, addr)
	if err != nil {
		return nil, err
	}
	token.TotalSupply = supply

	return token, nil
}

// TotalSupply reads totalSupply() of an ERC-20 or LP token
func (f *MetadataFetcher) TotalSupply(ctx context.Context, asset common.Address) (*big.Int, error) {
	data, err := ERC20ABI.Pack("totalSupply")
	if err != nil {
		return nil, fmt.Errorf("failed to pack totalSupply: %w", err)
	}

	result, err := f.client.CallContract(ctx, asset, data)
	if err != nil {
		return nil, fmt.Errorf("failed to call totalSupply on %s: %w", asset.Hex(), err)
	}

	out, err := ERC20ABI.Unpack("totalSupply", result)
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("failed to decode totalSupply of %s: %v", asset.Hex(), err)
	}

	supply, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected totalSupply type %T", out[0])
	}
	return supply, nil
}

func (f *MetadataFetcher) fetchString(ctx context.Context, addr common.Address, selector []byte) (string, error) {
	result, err := f.client.CallContract(ctx, addr, selector)
	if err != nil {
		return "", err
	}
	return decodeStringOrBytes32(result)
}

func (f *MetadataFetcher) fetchDecimals(ctx context.Context, addr common.Address) (uint8, error) {
	result, err := f.client.CallContract(ctx, addr, decimalsSig)
	if err != nil {
		return 0, err
	}

	// Decimals returns uint8, but padded to 32 bytes
	if len(result) < 32 {
		return 0, fmt.Errorf("invalid decimals response length: %d", len(result))
	}

	return result[31], nil
}

// decodeStringOrBytes32 decodes a response that could be either:
// 1. ABI-encoded string: offset (32 bytes) + length (32 bytes) + data (padded to 32 bytes)
// 2. bytes32: raw 32 bytes (e.g., MKR token)
func decodeStringOrBytes32(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty data")
	}

	if len(data) < 32 {
		return "", fmt.Errorf("data too short: %d bytes", len(data))
	}

	if len(data) >= 64 {
		offset := new(big.Int).SetBytes(data[:32])
		if offset.IsUint64() && offset.Uint64() == 32 {
			length := new(big.Int).SetBytes(data[32:64])

			// Lengths past the payload fall through to the bytes32 reading
			if length.IsUint64() && length.Uint64() <= uint64(len(data)-64) {
				strLen := int(length.Uint64())
				if strLen == 0 {
					return "", nil
				}
				return strings.TrimRight(string(data[64:64+strLen]), "\x00"), nil
			}
		}
	}

	result := bytes.TrimRight(data[:32], "\x00")
	if isPrintableASCII(result) {
		return string(result), nil
	}

	return "0x" + hex.EncodeToString(data[:32]), nil
}

// isPrintableASCII checks if all bytes are printable ASCII characters
func isPrintableASCII(data []byte) bool {
	for _, b := range data {
		if b < 32 || b > 126 {
			return false
		}
	}
	return len(data) > 0
}
