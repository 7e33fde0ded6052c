package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/cache"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/metrics"
)

const codeReviewCacheTTL = 24 * time.Hour

// ReviewRequest is one piece of content to be judged by the language model
type ReviewRequest struct {
	Kind         string
	Persona      string
	Instructions string
	Label        string
	Content      string
}

// Reviewer sends review requests to a chat completer and decodes the verdicts
type Reviewer struct {
	completer repositories.ChatCompleter
	metrics   *metrics.AssessmentMetrics
	logger    *zap.Logger
}

// NewReviewer creates a new reviewer
func NewReviewer(completer repositories.ChatCompleter, m *metrics.AssessmentMetrics, logger *zap.Logger) *Reviewer {
	return &Reviewer{
		completer: completer,
		metrics:   m,
		logger:    logger,
	}
}

// Review asks the model to judge req.Content and decodes the answer into T.
// Empty content and answers that do not match T's schema return (nil, nil).
// Transport and provider errors are returned.
func Review[T any](ctx context.Context, rv *Reviewer, req ReviewRequest) (*T, error) {
	if strings.TrimSpace(req.Content) == "" {
		rv.logger.Debug("Skipping review of empty content", zap.String("review", req.Kind))
		return nil, nil
	}

	content := truncateRunes(req.Content, rv.completer.ContentLimit())
	if len(content) < len(req.Content) {
		rv.logger.Debug("Truncated review content",
			zap.String("review", req.Kind),
			zap.Int("original_bytes", len(req.Content)),
			zap.Int("truncated_bytes", len(content)),
		)
	}

	user := fmt.Sprintf("%s\n\n%s:\n%s", req.Instructions, req.Label, content)

	raw, err := rv.completer.Complete(ctx, req.Persona, user)
	if err != nil {
		return nil, fmt.Errorf("failed to complete %s review: %w", req.Kind, err)
	}

	verdict, err := decodeStrict[T](raw)
	if err != nil {
		rv.logger.Warn("Model answer does not match the expected schema",
			zap.String("review", req.Kind),
			zap.String("provider", rv.completer.ProviderName()),
			zap.String("raw", raw),
			zap.Error(err),
		)
		rv.metrics.ObserveSchemaViolation(req.Kind)
		return nil, nil
	}
	return verdict, nil
}

// decodeStrict decodes exactly one JSON value with no unknown fields
func decodeStrict[T any](raw string) (*T, error) {
	dec := json.NewDecoder(strings.NewReader(stripCodeFence(raw)))
	dec.DisallowUnknownFields()

	var v T
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return &v, nil
}

// stripCodeFence removes a surrounding Markdown code fence such as ```json ... ```
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// truncateRunes cuts s to at most limit characters without splitting a UTF-8 sequence
func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// ReviewService runs the code, website and social reviews
type ReviewService struct {
	reviewer *Reviewer
	cache    *cache.RedisCache
	logger   *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(reviewer *Reviewer, cache *cache.RedisCache, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviewer: reviewer,
		cache:    cache,
		logger:   logger,
	}
}

// ReviewCode judges verified contract source. Unverified contracts yield (nil, nil).
func (s *ReviewService) ReviewCode(ctx context.Context, chain entities.Chain, token string, source *entities.ContractSource) (*entities.CodeReviewVerdict, error) {
	if !source.IsVerified() {
		return nil, nil
	}

	cacheKey := cache.CodeReviewKey(chain, token, s.reviewer.completer.ProviderName())
	if s.cache != nil {
		var cached entities.CodeReviewVerdict
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	verdict, err := Review[entities.CodeReviewVerdict](ctx, s.reviewer, ReviewRequest{
		Kind:         ReviewKindCode,
		Persona:      codeReviewPersona,
		Instructions: codeReviewInstructions,
		Label:        fmt.Sprintf("Source code of %s (%s)", source.ContractName, token),
		Content:      source.SourceCode,
	})
	if err != nil || verdict == nil {
		return verdict, err
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, verdict, codeReviewCacheTTL); err != nil {
			s.logger.Warn("Failed to cache code review", zap.Error(err))
		}
	}
	return verdict, nil
}

// ReviewWebsite judges the text of the token's website
func (s *ReviewService) ReviewWebsite(ctx context.Context, websiteURL, content string) (*entities.WebsiteReviewVerdict, error) {
	return Review[entities.WebsiteReviewVerdict](ctx, s.reviewer, ReviewRequest{
		Kind:         ReviewKindWebsite,
		Persona:      websiteReviewPersona,
		Instructions: websiteReviewInstructions,
		Label:        fmt.Sprintf("Website content (%s)", websiteURL),
		Content:      content,
	})
}

// ReviewSocial judges the token's social links and any collected social content
func (s *ReviewService) ReviewSocial(ctx context.Context, twitterURL, discordURL, content string) (*entities.SocialReviewVerdict, error) {
	return Review[entities.SocialReviewVerdict](ctx, s.reviewer, ReviewRequest{
		Kind:         ReviewKindSocial,
		Persona:      socialReviewPersona,
		Instructions: socialReviewInstructions,
		Label:        "Social presence",
		Content:      socialContent(twitterURL, discordURL, content),
	})
}

func socialContent(twitterURL, discordURL, content string) string {
	var b strings.Builder
	if twitterURL != "" {
		b.WriteString("Twitter: " + twitterURL + "\n")
	}
	if discordURL != "" {
		b.WriteString("Discord: " + discordURL + "\n")
	}
	if strings.TrimSpace(content) != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(content)
	}
	return b.String()
}
