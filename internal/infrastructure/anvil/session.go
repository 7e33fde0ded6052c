package anvil

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os/exec"
	"sync"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/ethereum"
)

// Session is one forked node owned by a single simulation.
// Close must be called on every path; it is safe to call more than once.
type Session struct {
	cmd    *exec.Cmd
	exited <-chan struct{}
	rpc    *rpc.Client
	eth    *ethclient.Client

	book    ethereum.AddressBook
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address

	closeOnce sync.Once
	closeErr  error
	logger    *zap.Logger
}

// Wallet returns the simulator wallet address
func (s *Session) Wallet() string {
	return s.from.Hex()
}

// Fund credits the simulator wallet with amount wei
func (s *Session) Fund(ctx context.Context, amount *big.Int) error {
	if err := s.rpc.CallContext(ctx, nil, "anvil_setBalance", s.from, (*hexutil.Big)(amount)); err != nil {
		return fmt.Errorf("failed to fund simulator wallet: %w", err)
	}
	return nil
}

// QuoteBuy returns the expected token output for amountIn wei of ETH.
// An empty V2 pair is reported as a revert before the router is asked.
func (s *Session) QuoteBuy(ctx context.Context, pool *entities.PoolInfo, amountIn *big.Int) (*big.Int, error) {
	if pool.DEX == entities.DEXUniswapV2 {
		if err := s.checkReserves(ctx, pool); err != nil {
			return nil, err
		}
	}
	return s.quote(ctx, pool, buyRoute(s.book, pool), amountIn)
}

// QuoteSell returns the expected WETH output for amountIn tokens
func (s *Session) QuoteSell(ctx context.Context, pool *entities.PoolInfo, amountIn *big.Int) (*big.Int, error) {
	return s.quote(ctx, pool, buyRoute(s.book, pool).reverse(), amountIn)
}

// Buy swaps amountIn wei of ETH for the pool's target token
func (s *Session) Buy(ctx context.Context, pool *entities.PoolInfo, amountIn, minOut *big.Int) (string, error) {
	r := buyRoute(s.book, pool)

	switch pool.DEX {
	case entities.DEXUniswapV2:
		data, err := ethereum.V2RouterABI.Pack("swapExactETHForTokensSupportingFeeOnTransferTokens",
			minOut, r.tokens, s.from, deadline())
		if err != nil {
			return "", fmt.Errorf("failed to pack V2 buy: %w", err)
		}
		return s.send(ctx, "buy", s.book.V2Router, amountIn, data)

	case entities.DEXUniswapV3:
		data, err := s.packV3Swap(r, amountIn, minOut)
		if err != nil {
			return "", err
		}
		return s.send(ctx, "buy", s.book.V3SwapRouter, amountIn, data)

	default:
		return "", fmt.Errorf("unknown DEX %d", pool.DEX)
	}
}

// Approve lets the pool's router spend amount of token from the simulator wallet
func (s *Session) Approve(ctx context.Context, pool *entities.PoolInfo, amount *big.Int) (string, error) {
	data, err := ethereum.ERC20ABI.Pack("approve", s.router(pool), amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack approve: %w", err)
	}
	return s.send(ctx, "approve", common.HexToAddress(pool.TargetToken()), big.NewInt(0), data)
}

// Sell swaps amountIn tokens back towards WETH
func (s *Session) Sell(ctx context.Context, pool *entities.PoolInfo, amountIn, minOut *big.Int) (string, error) {
	r := buyRoute(s.book, pool).reverse()

	switch pool.DEX {
	case entities.DEXUniswapV2:
		data, err := ethereum.V2RouterABI.Pack("swapExactTokensForETHSupportingFeeOnTransferTokens",
			amountIn, minOut, r.tokens, s.from, deadline())
		if err != nil {
			return "", fmt.Errorf("failed to pack V2 sell: %w", err)
		}
		return s.send(ctx, "sell", s.book.V2Router, big.NewInt(0), data)

	case entities.DEXUniswapV3:
		data, err := s.packV3Swap(r, amountIn, minOut)
		if err != nil {
			return "", err
		}
		return s.send(ctx, "sell", s.book.V3SwapRouter, big.NewInt(0), data)

	default:
		return "", fmt.Errorf("unknown DEX %d", pool.DEX)
	}
}

// TokenBalance returns the simulator wallet's balance of token
func (s *Session) TokenBalance(ctx context.Context, token string) (*big.Int, error) {
	data, err := ethereum.ERC20ABI.Pack("balanceOf", s.from)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}

	out, err := s.call(ctx, "balanceOf", common.HexToAddress(token), data)
	if err != nil {
		return nil, err
	}

	values, err := ethereum.ERC20ABI.Unpack("balanceOf", out)
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("failed to decode balanceOf: %v", err)
	}
	return values[0].(*big.Int), nil
}

// Close kills the node and releases its connections
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.eth != nil {
			s.eth.Close()
		} else if s.rpc != nil {
			s.rpc.Close()
		}

		if s.cmd != nil && s.cmd.Process != nil {
			select {
			case <-s.exited:
			default:
				if err := s.cmd.Process.Kill(); err != nil {
					s.closeErr = fmt.Errorf("failed to kill anvil: %w", err)
				}
				<-s.exited
			}
		}
	})
	return s.closeErr
}

func (s *Session) router(pool *entities.PoolInfo) common.Address {
	if pool.DEX == entities.DEXUniswapV3 {
		return s.book.V3SwapRouter
	}
	return s.book.V2Router
}

type quoteSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactInputParams struct {
	Path             []byte
	Recipient        common.Address
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

func (s *Session) quote(ctx context.Context, pool *entities.PoolInfo, r route, amountIn *big.Int) (*big.Int, error) {
	switch pool.DEX {
	case entities.DEXUniswapV2:
		data, err := ethereum.V2RouterABI.Pack("getAmountsOut", amountIn, r.tokens)
		if err != nil {
			return nil, fmt.Errorf("failed to pack getAmountsOut: %w", err)
		}
		out, err := s.call(ctx, "quote", s.book.V2Router, data)
		if err != nil {
			return nil, err
		}
		values, err := ethereum.V2RouterABI.Unpack("getAmountsOut", out)
		if err != nil || len(values) == 0 {
			return nil, fmt.Errorf("failed to decode getAmountsOut: %v", err)
		}
		amounts := values[0].([]*big.Int)
		if len(amounts) == 0 {
			return big.NewInt(0), nil
		}
		return amounts[len(amounts)-1], nil

	case entities.DEXUniswapV3:
		var (
			method string
			data   []byte
			err    error
		)
		if r.singleHop() {
			method = "quoteExactInputSingle"
			data, err = ethereum.V3QuoterABI.Pack(method, quoteSingleParams{
				TokenIn:           r.tokens[0],
				TokenOut:          r.tokens[1],
				AmountIn:          amountIn,
				Fee:               new(big.Int).SetUint64(uint64(r.fees[0])),
				SqrtPriceLimitX96: big.NewInt(0),
			})
		} else {
			method = "quoteExactInput"
			data, err = ethereum.V3QuoterABI.Pack(method, encodeV3Path(r), amountIn)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to pack %s: %w", method, err)
		}

		out, err := s.call(ctx, "quote", s.book.V3Quoter, data)
		if err != nil {
			return nil, err
		}
		values, err := ethereum.V3QuoterABI.Unpack(method, out)
		if err != nil || len(values) == 0 {
			return nil, fmt.Errorf("failed to decode %s: %v", method, err)
		}
		return values[0].(*big.Int), nil

	default:
		return nil, fmt.Errorf("unknown DEX %d", pool.DEX)
	}
}

// checkReserves reads getReserves of a V2 pair; either side empty is a revert
func (s *Session) checkReserves(ctx context.Context, pool *entities.PoolInfo) error {
	data, err := ethereum.V2PairABI.Pack("getReserves")
	if err != nil {
		return fmt.Errorf("failed to pack getReserves: %w", err)
	}

	out, err := s.call(ctx, "getReserves", common.HexToAddress(pool.Address), data)
	if err != nil {
		return err
	}

	values, err := ethereum.V2PairABI.Unpack("getReserves", out)
	if err != nil || len(values) < 2 {
		return fmt.Errorf("failed to decode getReserves: %v", err)
	}
	reserve0, ok0 := values[0].(*big.Int)
	reserve1, ok1 := values[1].(*big.Int)
	if !ok0 || !ok1 {
		return fmt.Errorf("unexpected getReserves types %T, %T", values[0], values[1])
	}

	if reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return &RevertError{Op: "quote", Reason: "pair has no reserves"}
	}
	return nil
}

func (s *Session) packV3Swap(r route, amountIn, minOut *big.Int) ([]byte, error) {
	if r.singleHop() {
		data, err := ethereum.V3SwapRouterABI.Pack("exactInputSingle", exactInputSingleParams{
			TokenIn:           r.tokens[0],
			TokenOut:          r.tokens[1],
			Fee:               new(big.Int).SetUint64(uint64(r.fees[0])),
			Recipient:         s.from,
			AmountIn:          amountIn,
			AmountOutMinimum:  minOut,
			SqrtPriceLimitX96: big.NewInt(0),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to pack exactInputSingle: %w", err)
		}
		return data, nil
	}

	data, err := ethereum.V3SwapRouterABI.Pack("exactInput", exactInputParams{
		Path:             encodeV3Path(r),
		Recipient:        s.from,
		AmountIn:         amountIn,
		AmountOutMinimum: minOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactInput: %w", err)
	}
	return data, nil
}

func (s *Session) call(ctx context.Context, op string, to common.Address, data []byte) ([]byte, error) {
	out, err := s.eth.CallContract(ctx, goethereum.CallMsg{From: s.from, To: &to, Data: data}, nil)
	if err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// send signs and submits a transaction, then waits for its receipt.
// Gas-estimation reverts and failed receipts come back as *RevertError.
func (s *Session) send(ctx context.Context, op string, to common.Address, value *big.Int, data []byte) (string, error) {
	msg := goethereum.CallMsg{From: s.from, To: &to, Value: value, Data: data}

	gas, err := s.eth.EstimateGas(ctx, msg)
	if err != nil {
		return "", classify(op, err)
	}

	nonce, err := s.eth.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := s.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas * 12 / 10,
		To:       &to,
		Value:    value,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(s.chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", op, err)
	}

	if err := s.eth.SendTransaction(ctx, signed); err != nil {
		return "", classify(op, err)
	}

	receipt, err := bind.WaitMined(ctx, s.eth, signed)
	if err != nil {
		return "", fmt.Errorf("failed to wait for %s receipt: %w", op, err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return signed.Hash().Hex(), &RevertError{Op: op, Reason: ReasonUnavailable}
	}

	s.logger.Debug("Fork transaction mined",
		zap.String("op", op),
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)

	return signed.Hash().Hex(), nil
}

func deadline() *big.Int {
	return big.NewInt(time.Now().Add(time.Hour).Unix())
}
