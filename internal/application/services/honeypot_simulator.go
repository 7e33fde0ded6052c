package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/anvil"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/metrics"
)

// ErrNoPool is returned when a simulation is requested without a resolved pool
var ErrNoPool = errors.New("no pool to simulate against")

const bpsDenominator = 10_000

type simulationState string

const (
	stateInitializing    simulationState = "initializing"
	stateFunded          simulationState = "funded"
	stateBoughtAttempted simulationState = "bought_attempted"
	stateBought          simulationState = "bought"
	stateSoldAttempted   simulationState = "sold_attempted"
)

// SimulatorSettings are the parsed simulator parameters
type SimulatorSettings struct {
	Timeout     time.Duration
	SlippageBps int64
	BuyAmount   *big.Int
	FundAmount  *big.Int
}

// NewSimulatorSettings parses wei amounts from configuration
func NewSimulatorSettings(cfg config.SimulatorConfig) (SimulatorSettings, error) {
	buy, ok := new(big.Int).SetString(cfg.BuyAmountWei, 10)
	if !ok || buy.Sign() <= 0 {
		return SimulatorSettings{}, fmt.Errorf("invalid SIMULATOR_BUY_AMOUNT_WEI %q", cfg.BuyAmountWei)
	}
	fund, ok := new(big.Int).SetString(cfg.FundAmountWei, 10)
	if !ok || fund.Cmp(buy) <= 0 {
		return SimulatorSettings{}, fmt.Errorf("invalid SIMULATOR_FUND_AMOUNT_WEI %q: must exceed the buy amount", cfg.FundAmountWei)
	}
	if cfg.SlippageBps < 0 || cfg.SlippageBps >= bpsDenominator {
		return SimulatorSettings{}, fmt.Errorf("invalid SIMULATOR_SLIPPAGE_BPS %d", cfg.SlippageBps)
	}

	return SimulatorSettings{
		Timeout:     cfg.Timeout,
		SlippageBps: cfg.SlippageBps,
		BuyAmount:   buy,
		FundAmount:  fund,
	}, nil
}

// HoneypotSimulator replays a buy and a sell on a forked chain
type HoneypotSimulator struct {
	launcher repositories.ForkLauncher
	settings SimulatorSettings
	metrics  *metrics.AssessmentMetrics
	logger   *zap.Logger
}

// NewHoneypotSimulator creates a new honeypot simulator
func NewHoneypotSimulator(
	launcher repositories.ForkLauncher,
	settings SimulatorSettings,
	m *metrics.AssessmentMetrics,
	logger *zap.Logger,
) *HoneypotSimulator {
	return &HoneypotSimulator{
		launcher: launcher,
		settings: settings,
		metrics:  m,
		logger:   logger,
	}
}

// Simulate forks the chain, buys the token and sells it back.
// Reverts are classified into the result; only infrastructure failures return an error.
// The forked node is torn down before Simulate returns.
func (s *HoneypotSimulator) Simulate(ctx context.Context, chain entities.Chain, pool *entities.PoolInfo) (*entities.SimulationResult, error) {
	if pool == nil {
		return nil, ErrNoPool
	}

	if s.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.Timeout)
		defer cancel()
	}

	logger := s.logger.With(
		zap.String("chain", chain.String()),
		zap.String("pool", pool.Address),
		zap.String("token", pool.TargetToken()),
	)

	logger.Debug("Simulation state", zap.String("state", string(stateInitializing)))
	session, err := s.launcher.Launch(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to launch fork: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to tear down fork", zap.Error(err))
		}
	}()

	result, err := s.run(ctx, session, pool, logger)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSimulation(chain, result.Outcome)
	logger.Info("Simulation finished",
		zap.String("outcome", string(result.Outcome)),
		zap.String("reason", result.Reason),
	)
	return result, nil
}

func (s *HoneypotSimulator) run(ctx context.Context, session repositories.ForkSession, pool *entities.PoolInfo, logger *zap.Logger) (*entities.SimulationResult, error) {
	if err := session.Fund(ctx, s.settings.FundAmount); err != nil {
		return nil, fmt.Errorf("failed to fund simulator wallet: %w", err)
	}
	logger.Debug("Simulation state", zap.String("state", string(stateFunded)))

	buyQuote, err := session.QuoteBuy(ctx, pool, s.settings.BuyAmount)
	if err != nil {
		return classifyStep(err, entities.SimulationCannotBuy)
	}
	if buyQuote == nil || buyQuote.Sign() <= 0 {
		return &entities.SimulationResult{Outcome: entities.SimulationCannotBuy, Reason: "buy quote returned zero output"}, nil
	}

	logger.Debug("Simulation state", zap.String("state", string(stateBoughtAttempted)), zap.String("quote", buyQuote.String()))
	buyTx, err := session.Buy(ctx, pool, s.settings.BuyAmount, s.minOut(buyQuote))
	if err != nil {
		return classifyStep(err, entities.SimulationCannotBuy)
	}

	balance, err := session.TokenBalance(ctx, pool.TargetToken())
	if err != nil {
		return nil, fmt.Errorf("failed to read token balance: %w", err)
	}

	result := &entities.SimulationResult{
		BuyTxHash:    buyTx,
		TokensBought: balance.String(),
	}
	if balance.Sign() <= 0 {
		result.Outcome = entities.SimulationCannotSell
		result.Reason = "buy returned zero tokens"
		return result, nil
	}
	logger.Debug("Simulation state", zap.String("state", string(stateBought)), zap.String("balance", balance.String()))

	if _, err := session.Approve(ctx, pool, balance); err != nil {
		return classifyInto(result, err, entities.SimulationCannotSell)
	}

	sellQuote, err := session.QuoteSell(ctx, pool, balance)
	if err != nil {
		return classifyInto(result, err, entities.SimulationCannotSell)
	}
	if sellQuote == nil || sellQuote.Sign() <= 0 {
		result.Outcome = entities.SimulationCannotSell
		result.Reason = "sell quote returned zero output"
		return result, nil
	}

	logger.Debug("Simulation state", zap.String("state", string(stateSoldAttempted)), zap.String("quote", sellQuote.String()))
	sellTx, err := session.Sell(ctx, pool, balance, s.minOut(sellQuote))
	if err != nil {
		return classifyInto(result, err, entities.SimulationCannotSell)
	}

	result.Outcome = entities.SimulationLegit
	result.SellTxHash = sellTx
	return result, nil
}

// minOut applies the slippage tolerance to a quote
func (s *HoneypotSimulator) minOut(quote *big.Int) *big.Int {
	out := new(big.Int).Mul(quote, big.NewInt(bpsDenominator-s.settings.SlippageBps))
	return out.Quo(out, big.NewInt(bpsDenominator))
}

func classifyStep(err error, outcome entities.SimulationOutcome) (*entities.SimulationResult, error) {
	return classifyInto(&entities.SimulationResult{}, err, outcome)
}

// classifyInto turns a revert into a terminal outcome and passes other errors through
func classifyInto(result *entities.SimulationResult, err error, outcome entities.SimulationOutcome) (*entities.SimulationResult, error) {
	if !anvil.IsRevert(err) {
		return nil, err
	}
	result.Outcome = outcome
	result.Reason = anvil.ExtractRevertReason(err)
	return result, nil
}
