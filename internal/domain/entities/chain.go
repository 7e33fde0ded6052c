package entities

import (
	"errors"
	"fmt"
)

// ErrUnsupportedChain is returned for chain IDs the engine has no address book for
var ErrUnsupportedChain = errors.New("unsupported chain")

// Chain identifies an EVM network by its chain ID
type Chain int64

const (
	ChainEthereum Chain = 1
	ChainBase     Chain = 8453
)

// ParseChain validates a numeric chain ID
func ParseChain(id int64) (Chain, error) {
	switch Chain(id) {
	case ChainEthereum, ChainBase:
		return Chain(id), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedChain, id)
	}
}

// ID returns the numeric chain ID
func (c Chain) ID() int64 {
	return int64(c)
}

func (c Chain) String() string {
	switch c {
	case ChainEthereum:
		return "ethereum"
	case ChainBase:
		return "base"
	default:
		return fmt.Sprintf("chain-%d", int64(c))
	}
}
