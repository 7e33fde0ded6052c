package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/metrics"
	mocks "github.com/chain-shield/tokencheck-backend-sub000/internal/testutil"
)

func setupReviewTest(response string) (*ReviewService, *mocks.MockChatCompleter) {
	completer := mocks.NewMockChatCompleter(response)
	reviewer := NewReviewer(completer, nil, zap.NewNop())
	return NewReviewService(reviewer, nil, zap.NewNop()), completer
}

func TestReview_EmptyContentSkipsNetwork(t *testing.T) {
	svc, completer := setupReviewTest(`{"possible_scam":false,"reason":"ok"}`)
	ctx := context.Background()

	website, err := svc.ReviewWebsite(ctx, "https://pepe.vip", "  ")
	if err != nil || website != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", website, err)
	}

	code, err := svc.ReviewCode(ctx, entities.ChainEthereum, mocks.TokenAddress, &entities.ContractSource{})
	if err != nil || code != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", code, err)
	}

	social, err := svc.ReviewSocial(ctx, "", "", "")
	if err != nil || social != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", social, err)
	}

	if completer.CallCount("Complete") != 0 {
		t.Errorf("expected no completion calls, got %d", completer.CallCount("Complete"))
	}
}

func TestReview_DecodesVerdict(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantNil  bool
		wantScam bool
	}{
		{
			name:     "plain json",
			response: `{"possible_scam":true,"reason":"owner can blacklist","could_legitimately_justify_suspicious_code":true,"reason_for_justification":"anti-bot"}`,
			wantScam: true,
		},
		{
			name:     "fenced json",
			response: "```json\n{\"possible_scam\":false,\"reason\":\"standard OpenZeppelin ERC20\",\"could_legitimately_justify_suspicious_code\":false,\"reason_for_justification\":\"\"}\n```",
		},
		{
			name:     "prose",
			response: "This contract looks fine to me.",
			wantNil:  true,
		},
		{
			name:     "unknown field",
			response: `{"possible_scam":false,"reason":"ok","confidence":0.9}`,
			wantNil:  true,
		},
		{
			name:     "wrong type",
			response: `{"possible_scam":"maybe"}`,
			wantNil:  true,
		},
		{
			name:     "trailing data",
			response: `{"possible_scam":false} {"possible_scam":true}`,
			wantNil:  true,
		},
	}

	source := &entities.ContractSource{ContractName: "PepeToken", SourceCode: "contract PepeToken {}"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupReviewTest(tt.response)

			verdict, err := svc.ReviewCode(context.Background(), entities.ChainEthereum, mocks.TokenAddress, source)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if verdict != nil {
					t.Errorf("expected nil verdict, got %+v", verdict)
				}
				return
			}
			if verdict == nil {
				t.Fatal("expected verdict")
			}
			if verdict.PossibleScam != tt.wantScam {
				t.Errorf("expected possible_scam %v, got %v", tt.wantScam, verdict.PossibleScam)
			}
		})
	}
}

func TestReview_ProviderErrorIsReturned(t *testing.T) {
	svc, completer := setupReviewTest("")
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("401 invalid api key")
	}

	verdict, err := svc.ReviewWebsite(context.Background(), "https://pepe.vip", "Welcome to PEPE")
	if err == nil {
		t.Error("expected error")
	}
	if verdict != nil {
		t.Errorf("expected nil verdict, got %+v", verdict)
	}
}

func TestReview_RequestShape(t *testing.T) {
	svc, completer := setupReviewTest(`{"possible_scam":false,"reason":"ok"}`)
	completer.Limit = 5

	_, err := svc.ReviewWebsite(context.Background(), "https://pepe.vip", "ééééééééé")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := completer.Calls[0]
	system, user := call.Args[0].(string), call.Args[1].(string)
	if system != websiteReviewPersona {
		t.Errorf("expected website persona, got %q", system)
	}
	if !strings.HasPrefix(user, websiteReviewInstructions) {
		t.Error("expected user message to start with the instructions")
	}
	if !strings.HasSuffix(user, "Website content (https://pepe.vip):\nééééé") {
		t.Errorf("unexpected user message tail %q", user[len(websiteReviewInstructions):])
	}
}

func TestReview_SchemaViolationMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAssessmentMetrics(reg)
	reviewer := NewReviewer(mocks.NewMockChatCompleter("not json"), m, zap.NewNop())

	verdict, err := Review[entities.WebsiteReviewVerdict](context.Background(), reviewer, ReviewRequest{
		Kind:    ReviewKindWebsite,
		Content: "text",
	})
	if err != nil || verdict != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", verdict, err)
	}
	if got := testutil.ToFloat64(m.SchemaViolations.WithLabelValues(ReviewKindWebsite)); got != 1 {
		t.Errorf("expected 1 schema violation, got %f", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"under limit", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ascii", "hello world", 5, "hello"},
		{"multibyte", "日本語のテキスト", 3, "日本語"},
		{"emoji", "🚀🚀🚀🚀", 2, "🚀🚀"},
		{"no limit", "anything", 0, "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunes(tt.in, tt.limit)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncation produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSocialContent(t *testing.T) {
	got := socialContent("https://x.com/pepe", "", "gm frens")
	want := "Twitter: https://x.com/pepe\n\ngm frens"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if socialContent("", "", " ") != "" {
		t.Error("expected empty content")
	}
}
