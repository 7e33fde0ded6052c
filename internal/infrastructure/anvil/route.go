package anvil

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/ethereum"
)

// Fee tier assumed for the WETH/base hop of a two-hop V3 route
const wethBaseFeeTier = 500

// route is an ordered token path; fees[i] is the V3 tier between tokens[i] and tokens[i+1]
type route struct {
	tokens []common.Address
	fees   []uint32
}

// buyRoute returns WETH -> token, or WETH -> base -> token when the pool's base isn't WETH
func buyRoute(book ethereum.AddressBook, pool *entities.PoolInfo) route {
	target := common.HexToAddress(pool.TargetToken())
	base := common.HexToAddress(pool.BaseTokenAddress)

	if base == book.WETH {
		return route{
			tokens: []common.Address{book.WETH, target},
			fees:   []uint32{pool.FeeTier},
		}
	}
	return route{
		tokens: []common.Address{book.WETH, base, target},
		fees:   []uint32{wethBaseFeeTier, pool.FeeTier},
	}
}

func (r route) reverse() route {
	n := len(r.tokens)
	out := route{
		tokens: make([]common.Address, n),
		fees:   make([]uint32, len(r.fees)),
	}
	for i, t := range r.tokens {
		out.tokens[n-1-i] = t
	}
	for i, f := range r.fees {
		out.fees[len(r.fees)-1-i] = f
	}
	return out
}

func (r route) singleHop() bool {
	return len(r.tokens) == 2
}

// encodeV3Path packs token(20) | fee(3) | token(20) | ... as the V3 router expects
func encodeV3Path(r route) []byte {
	out := make([]byte, 0, 20*len(r.tokens)+3*len(r.fees))
	for i, t := range r.tokens {
		out = append(out, t.Bytes()...)
		if i < len(r.fees) {
			f := r.fees[i]
			out = append(out, byte(f>>16), byte(f>>8), byte(f))
		}
	}
	return out
}
