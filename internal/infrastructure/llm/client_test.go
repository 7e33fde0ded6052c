package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
)

func newTestClient(t *testing.T, provider Provider, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	spec := ProviderSpec{
		Provider:        provider,
		BaseURL:         srv.URL + "/v1",
		Model:           "test-model",
		APIKey:          "sk-test",
		MaxTokens:       512,
		MaxContentChars: 1000,
		Temperature:     0.2,
		TopP:            1,
	}
	return NewClient(spec, 5*time.Second, 1, zap.NewNop())
}

func TestComplete_Success(t *testing.T) {
	client := newTestClient(t, ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" || req.MaxTokens != 512 || req.TopP != 1 {
			t.Errorf("unexpected request %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "content" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"possible_scam\":false}"}}]}`))
	})

	out, err := client.Complete(context.Background(), "persona", "content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"possible_scam":false}` {
		t.Errorf("unexpected content %q", out)
	}
}

func TestComplete_APIError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  string
		wantType  string
		wantMsg   string
		wantCalls int32
	}{
		{
			name:      "openai style string code",
			status:    http.StatusUnauthorized,
			body:      `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			wantCode:  "invalid_api_key",
			wantType:  "invalid_request_error",
			wantMsg:   "Incorrect API key provided",
			wantCalls: 1,
		},
		{
			name:      "numeric code",
			status:    http.StatusPaymentRequired,
			body:      `{"error":{"message":"Insufficient Balance","type":"unknown_error","code":402}}`,
			wantCode:  "402",
			wantType:  "unknown_error",
			wantMsg:   "Insufficient Balance",
			wantCalls: 1,
		},
		{
			name:      "server error is retried",
			status:    http.StatusServiceUnavailable,
			body:      `upstream unavailable`,
			wantMsg:   "upstream unavailable",
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client := newTestClient(t, ProviderDeepSeek, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), "persona", "x")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, apiErr.Code)
			}
			if apiErr.Type != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, apiErr.Type)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, apiErr.Message)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, got)
			}
		})
	}
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestClient(t, ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), "persona", "x")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestSpecFor(t *testing.T) {
	cfg := config.AIConfig{
		Provider:       "DeepSeek",
		DeepSeekAPIKey: "ds-key",
		DeepSeekURL:    "https://api.deepseek.com/v1",
		DeepSeekModel:  "deepseek-chat",
		OpenAIAPIKey:   "oa-key",
		OpenAIBaseURL:  "https://api.openai.com/v1",
		OpenAIModel:    "gpt-4o-mini",
	}

	spec, err := SpecFor(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Provider != ProviderDeepSeek || spec.APIKey != "ds-key" || spec.Model != "deepseek-chat" {
		t.Errorf("unexpected spec %+v", spec)
	}

	cfg.Provider = "openai"
	spec, err = SpecFor(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Provider != ProviderOpenAI || spec.APIKey != "oa-key" {
		t.Errorf("unexpected spec %+v", spec)
	}
	if spec.MaxContentChars <= 0 || spec.MaxTokens <= 0 {
		t.Error("expected positive budgets")
	}

	cfg.Provider = "claude"
	if _, err := SpecFor(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
