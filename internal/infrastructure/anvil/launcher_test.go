package anvil

import (
	"context"
	"math/big"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
)

func newTestLauncher(startTimeout time.Duration) *Launcher {
	return &Launcher{
		config: config.SimulatorConfig{StartTimeout: startTimeout},
		logger: zap.NewNop(),
	}
}

// unusedPort returns a port nothing listens on
func unusedPort(t *testing.T) int {
	t.Helper()
	port, err := freePort()
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	return port
}

func TestWaitReady_ProcessAlreadyExited(t *testing.T) {
	l := newTestLauncher(30 * time.Second)
	exited := make(chan struct{})
	close(exited)

	start := time.Now()
	_, err := l.waitReady(context.Background(), unusedPort(t), exited)
	if err == nil {
		t.Fatal("expected error for exited process")
	}
	if !strings.Contains(err.Error(), "exited before becoming ready") {
		t.Errorf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected immediate failure, took %s", elapsed)
	}
}

func TestWaitReady_ProcessDiesWhileWaiting(t *testing.T) {
	cmd, exited := startChild(t, "sleep", "0.3")
	defer cmd.Process.Kill()

	l := newTestLauncher(30 * time.Second)

	start := time.Now()
	_, err := l.waitReady(context.Background(), unusedPort(t), exited)
	if err == nil {
		t.Fatal("expected error once the process died")
	}
	if !strings.Contains(err.Error(), "exited before becoming ready") {
		t.Errorf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("expected to stop well before the start timeout, took %s", elapsed)
	}
}

func TestWaitReady_StartTimeout(t *testing.T) {
	l := newTestLauncher(300 * time.Millisecond)

	start := time.Now()
	if _, err := l.waitReady(context.Background(), unusedPort(t), make(chan struct{})); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected timeout near 300ms, took %s", elapsed)
	}
}

type chainIDService struct{}

func (chainIDService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(1))
}

func TestWaitReady_Ready(t *testing.T) {
	server := rpc.NewServer()
	if err := server.RegisterName("eth", chainIDService{}); err != nil {
		t.Fatalf("failed to register service: %v", err)
	}
	t.Cleanup(server.Stop)

	srv := httptest.NewServer(server.WebsocketHandler([]string{"*"}))
	t.Cleanup(srv.Close)
	port := srv.Listener.Addr().(*net.TCPAddr).Port

	l := newTestLauncher(5 * time.Second)
	client, err := l.waitReady(context.Background(), port, make(chan struct{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	var id hexutil.Big
	if err := client.CallContext(context.Background(), &id, "eth_chainId"); err != nil {
		t.Fatalf("expected usable client, got %v", err)
	}
	if id.ToInt().Int64() != 1 {
		t.Errorf("expected chain id 1, got %s", id.ToInt())
	}
}

func TestSimulatorKey(t *testing.T) {
	t.Run("seeded key is stable", func(t *testing.T) {
		a, err := simulatorKey("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, _ := simulatorKey("")
		if crypto.PubkeyToAddress(a.PublicKey) != crypto.PubkeyToAddress(b.PublicKey) {
			t.Error("expected the same seeded wallet")
		}
	})

	t.Run("configured key with 0x prefix", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("failed to generate key: %v", err)
		}
		hexKey := hexutil.Encode(crypto.FromECDSA(key))

		got, err := simulatorKey(hexKey)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crypto.PubkeyToAddress(got.PublicKey) != crypto.PubkeyToAddress(key.PublicKey) {
			t.Error("expected configured wallet")
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		if _, err := simulatorKey("not-a-key"); err == nil {
			t.Error("expected error for invalid key")
		}
	})
}

func TestNewLauncher_MissingBinary(t *testing.T) {
	_, err := NewLauncher(nil, config.SimulatorConfig{AnvilPath: "/nonexistent/anvil"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for missing anvil binary")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}
