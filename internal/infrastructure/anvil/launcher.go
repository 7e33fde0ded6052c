package anvil

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/ethereum"
)

// Ensure Launcher and Session implement the fork interfaces
var (
	_ repositories.ForkLauncher = (*Launcher)(nil)
	_ repositories.ForkSession  = (*Session)(nil)
)

// Seed for the simulator wallet when no key is configured
const simulatorKeySeed = "tokencheck-simulator"

// Launcher starts forked anvil nodes for simulations
type Launcher struct {
	registry *ethereum.Registry
	config   config.SimulatorConfig
	key      *ecdsa.PrivateKey
	logger   *zap.Logger
}

// NewLauncher creates a launcher. The simulator wallet is derived once here.
func NewLauncher(registry *ethereum.Registry, cfg config.SimulatorConfig, logger *zap.Logger) (*Launcher, error) {
	key, err := simulatorKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	if _, err := exec.LookPath(cfg.AnvilPath); err != nil {
		return nil, fmt.Errorf("anvil binary %q not found: %w", cfg.AnvilPath, err)
	}

	return &Launcher{
		registry: registry,
		config:   cfg,
		key:      key,
		logger:   logger,
	}, nil
}

// Launch forks the chain at its current head and returns a ready session.
// The process is bound to ctx: cancelling ctx kills it.
func (l *Launcher) Launch(ctx context.Context, chain entities.Chain) (repositories.ForkSession, error) {
	entry, err := l.registry.Entry(chain)
	if err != nil {
		return nil, err
	}

	head, err := entry.Client.GetLatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get fork block: %w", err)
	}

	port, err := freePort()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, l.config.AnvilPath,
		"--fork-url", entry.Client.RPCURL(),
		"--fork-block-number", strconv.FormatUint(head, 10),
		"--chain-id", strconv.FormatInt(chain.ID(), 10),
		"--port", strconv.Itoa(port),
		"--silent",
	)
	procLog := l.logger.Named("anvil").With(zap.Int("port", port))
	cmd.Stdout = &zapio.Writer{Log: procLog, Level: zap.DebugLevel}
	cmd.Stderr = &zapio.Writer{Log: procLog, Level: zap.WarnLevel}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start anvil: %w", err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	session := &Session{
		cmd:     cmd,
		exited:  exited,
		book:    entry.Book,
		chainID: entry.Client.ChainID(),
		key:     l.key,
		from:    crypto.PubkeyToAddress(l.key.PublicKey),
		logger:  l.logger,
	}

	rpcClient, err := l.waitReady(ctx, port, exited)
	if err != nil {
		session.Close()
		return nil, err
	}
	session.rpc = rpcClient
	session.eth = ethclient.NewClient(rpcClient)

	l.logger.Debug("Fork ready",
		zap.String("chain", chain.String()),
		zap.Uint64("block", head),
		zap.Int("port", port),
		zap.String("wallet", session.Wallet()),
	)

	return session, nil
}

// waitReady polls the websocket endpoint until eth_chainId answers
func (l *Launcher) waitReady(ctx context.Context, port int, exited <-chan struct{}) (*rpc.Client, error) {
	endpoint := fmt.Sprintf("ws://127.0.0.1:%d", port)

	operation := func() (*rpc.Client, error) {
		select {
		case <-exited:
			return nil, backoff.Permanent(fmt.Errorf("anvil exited before becoming ready"))
		default:
		}

		client, err := rpc.DialContext(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var id hexutil.Big
		if err := client.CallContext(ctx, &id, "eth_chainId"); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = time.Second

	client, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(l.config.StartTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("anvil did not become ready: %w", err)
	}
	return client, nil
}

func simulatorKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid SIMULATOR_PRIVATE_KEY: %w", err)
		}
		return key, nil
	}
	return crypto.ToECDSA(crypto.Keccak256([]byte(simulatorKeySeed)))
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to reserve port: %w", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}
