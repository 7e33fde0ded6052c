package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/testutil"
)

func TestNewHealthHandler(t *testing.T) {
	handler := NewHealthHandler(testutil.NewMockHealthChecker(true), nil, nil)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name         string
		chains       bool
		db           *bool
		cache        *bool
		wantCode     int
		wantStatus   string
		wantServices []string
	}{
		{
			name:         "all healthy",
			chains:       true,
			db:           boolPtr(true),
			cache:        boolPtr(true),
			wantCode:     http.StatusOK,
			wantStatus:   "healthy",
			wantServices: []string{"chains", "database", "cache"},
		},
		{
			name:         "chains only",
			chains:       true,
			wantCode:     http.StatusOK,
			wantStatus:   "healthy",
			wantServices: []string{"chains"},
		},
		{
			name:         "chains unhealthy",
			chains:       false,
			db:           boolPtr(true),
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "unhealthy",
			wantServices: []string{"chains", "database"},
		},
		{
			name:         "database unhealthy is degraded",
			chains:       true,
			db:           boolPtr(false),
			wantCode:     http.StatusOK,
			wantStatus:   "degraded",
			wantServices: []string{"chains", "database"},
		},
		{
			name:         "cache unhealthy is degraded",
			chains:       true,
			cache:        boolPtr(false),
			wantCode:     http.StatusOK,
			wantStatus:   "degraded",
			wantServices: []string{"chains", "cache"},
		},
		{
			name:         "unhealthy wins over degraded",
			chains:       false,
			cache:        boolPtr(false),
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "unhealthy",
			wantServices: []string{"chains", "cache"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var db, cache HealthChecker
			if tt.db != nil {
				db = testutil.NewMockHealthChecker(*tt.db)
			}
			if tt.cache != nil {
				cache = testutil.NewMockHealthChecker(*tt.cache)
			}
			handler := NewHealthHandler(testutil.NewMockHealthChecker(tt.chains), db, cache)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()

			handler.Health(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, response.Status)
			}
			if response.Timestamp == "" {
				t.Error("expected non-empty timestamp")
			}
			if len(response.Services) != len(tt.wantServices) {
				t.Errorf("expected services %v, got %v", tt.wantServices, response.Services)
			}
			for _, s := range tt.wantServices {
				if _, ok := response.Services[s]; !ok {
					t.Errorf("missing %s in services", s)
				}
			}
		})
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name     string
		healthy  bool
		wantCode int
	}{
		{"healthy", true, http.StatusOK},
		{"unhealthy", false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(testutil.NewMockHealthChecker(tt.healthy), nil, nil)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()

			handler.Ready(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.healthy && rec.Body.String() != "ready" {
				t.Errorf("expected body 'ready', got '%s'", rec.Body.String())
			}
		})
	}
}

func TestHealthHandler_Live_AlwaysAlive(t *testing.T) {
	// Even when chains are unhealthy, liveness should pass
	handler := NewHealthHandler(testutil.NewMockHealthChecker(false), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()

	handler.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "alive" {
		t.Errorf("expected body 'alive', got '%s'", rec.Body.String())
	}
}

func boolPtr(v bool) *bool {
	return &v
}
