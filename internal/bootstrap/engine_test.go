package bootstrap

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		format    string
		wantLevel zapcore.Level
	}{
		{"debug", "json", zapcore.DebugLevel},
		{"info", "json", zapcore.InfoLevel},
		{"warn", "console", zapcore.WarnLevel},
		{"error", "json", zapcore.ErrorLevel},
		{"bogus", "json", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(config.LogConfig{Level: tt.level, Format: tt.format})
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if !logger.Core().Enabled(tt.wantLevel) {
				t.Errorf("expected %s to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("expected %s to be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestEngine_CloseEmpty(t *testing.T) {
	// Partially built engines are closed on startup failures
	e := &Engine{}
	e.Close()
}
