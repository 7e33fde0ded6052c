package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/cache"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/metrics"
)

// ErrInvalidAddress is returned for token addresses that are not 20-byte hex
var ErrInvalidAddress = errors.New("invalid token address")

// AssessmentComponents are the collaborators of an AssessmentService.
// Simulator, AIScorer, Store, Cache and Metrics are optional.
type AssessmentComponents struct {
	ChainReader repositories.ChainReader
	Explorer    repositories.ExplorerRepository
	Resolver    *PoolResolver
	Analyzer    *LiquidityAnalyzer
	Simulator   *HoneypotSimulator
	Reviews     *ReviewService
	Rules       *RulesScorer
	AIScorer    *AIScorer
	Strategy    entities.ScoringStrategy
	Store       repositories.AssessmentRepository
	Cache       *cache.RedisCache
	Metrics     *metrics.AssessmentMetrics
}

// AssessmentService runs every check for a token and scores the result
type AssessmentService struct {
	c      AssessmentComponents
	logger *zap.Logger
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(c AssessmentComponents, logger *zap.Logger) *AssessmentService {
	if c.Strategy == "" {
		c.Strategy = entities.StrategyRules
	}
	return &AssessmentService{
		c:      c,
		logger: logger,
	}
}

// signalErrors collects per-signal failures from concurrent branches
type signalErrors struct {
	mu   sync.Mutex
	errs map[string]string
}

func (e *signalErrors) record(signal string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.errs == nil {
		e.errs = make(map[string]string)
	}
	e.errs[signal] = err.Error()
}

// identity is what the first stage gathers before the analyses can start
type identity struct {
	token   *entities.Token
	profile *entities.TokenProfile
	source  *entities.ContractSource
	pool    *entities.PoolInfo

	// code is the source the code review reads, at codeAddress
	code        *entities.ContractSource
	codeAddress string
}

// analyses is what the second stage produces
type analyses struct {
	liquidity  *entities.LiquidityHolderReport
	simulation *entities.SimulationResult
	code       *entities.CodeReviewVerdict
	website    *entities.WebsiteReviewVerdict
	social     *entities.SocialReviewVerdict
}

// Assess gathers every signal for a token and scores it.
// Failures of individual signals leave their fields undetermined and are listed in SignalErrors;
// only invalid input returns an error.
func (s *AssessmentService) Assess(ctx context.Context, req entities.AssessmentRequest) (*entities.AssessmentReport, error) {
	if _, err := entities.ParseChain(req.Chain.ID()); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(req.TokenAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, req.TokenAddress)
	}

	done := s.c.Metrics.Begin()
	defer done()
	start := time.Now()

	token := strings.ToLower(req.TokenAddress)
	logger := s.logger.With(zap.String("token", token), zap.String("chain", req.Chain.String()))
	logger.Info("Assessment started")

	errs := &signalErrors{}
	id := s.gatherIdentity(ctx, req.Chain, token, errs)
	links := resolveLinks(req, id.profile)
	found := s.runAnalyses(ctx, req, token, id, links, errs)

	cl := entities.TokenCheckList{
		Chain:   req.Chain,
		Address: token,
	}
	if id.token != nil {
		cl.Name = id.token.Name
		cl.Symbol = id.token.Symbol
	}
	if id.source != nil {
		cl.IsContractVerified = entities.BoolPtr(id.source.IsVerified())
	}
	if id.profile != nil {
		cl.CreatorAddress = id.profile.CreatorAddress
	}
	cl.HasWebsite = links.hasWebsite
	cl.HasTwitterOrDiscord = links.hasSocial
	cl.ApplyPool(id.pool)
	cl.ApplyLiquidityReport(found.liquidity)
	cl.ApplySimulation(found.simulation)
	cl.CodeReview = found.code
	cl.WebsiteReview = found.website
	cl.SocialReview = found.social

	report := &entities.AssessmentReport{
		CheckList:  cl,
		AssessedAt: time.Now().UTC(),
	}
	s.score(ctx, report, errs)
	report.SignalErrors = errs.errs

	s.persist(ctx, report)
	s.c.Metrics.ObserveAssessment(report, time.Since(start))

	logger.Info("Assessment finished",
		zap.String("score", report.ScoreLabel),
		zap.String("strategy", string(report.Strategy)),
		zap.Int("signal_errors", len(report.SignalErrors)),
		zap.Duration("duration", time.Since(start)),
	)

	return report, nil
}

// gatherIdentity reads token metadata, explorer data and the top pool concurrently
func (s *AssessmentService) gatherIdentity(ctx context.Context, chain entities.Chain, token string, errs *signalErrors) identity {
	var (
		id identity
		g  errgroup.Group
	)

	g.Go(func() error {
		t, err := s.c.ChainReader.TokenMetadata(ctx, chain, token)
		if err != nil {
			errs.record(entities.SignalMetadata, err)
			return nil
		}
		id.token = t
		return nil
	})

	g.Go(func() error {
		p, err := s.c.Explorer.GetTokenProfile(ctx, chain, token)
		if err != nil {
			errs.record(entities.SignalProfile, err)
			return nil
		}
		id.profile = p
		return nil
	})

	g.Go(func() error {
		src, err := s.c.Explorer.GetSourceCode(ctx, chain, token)
		if err != nil {
			errs.record(entities.SignalSource, err)
			return nil
		}
		id.source = src
		id.codeAddress, id.code = s.codeUnderReview(ctx, chain, token, src)
		return nil
	})

	g.Go(func() error {
		pool, err := s.c.Resolver.FindTopPool(ctx, token, chain)
		if err != nil {
			errs.record(entities.SignalPool, err)
			return nil
		}
		id.pool = pool
		return nil
	})

	_ = g.Wait()
	return id
}

// codeUnderReview follows a proxy to its verified implementation.
// Otherwise the token's own source is reviewed.
func (s *AssessmentService) codeUnderReview(ctx context.Context, chain entities.Chain, token string, src *entities.ContractSource) (string, *entities.ContractSource) {
	if src == nil || !src.IsProxy || src.Implementation == "" {
		return token, src
	}

	logger := s.logger.With(zap.String("token", token), zap.String("implementation", src.Implementation))
	impl, err := s.c.Explorer.GetSourceCode(ctx, chain, src.Implementation)
	if err != nil {
		logger.Warn("Failed to get implementation source, reviewing proxy", zap.Error(err))
		return token, src
	}
	if impl == nil || !impl.IsVerified() {
		logger.Debug("Implementation not verified, reviewing proxy")
		return token, src
	}
	return strings.ToLower(src.Implementation), impl
}

// runAnalyses fans out the liquidity analysis, the simulation and the reviews.
// A failing branch never cancels the others.
func (s *AssessmentService) runAnalyses(ctx context.Context, req entities.AssessmentRequest, token string, id identity, links tokenLinks, errs *signalErrors) analyses {
	var (
		out analyses
		g   errgroup.Group
	)

	g.Go(func() error {
		report, err := s.c.Analyzer.Analyze(ctx, req.Chain, token, id.pool)
		if err != nil {
			errs.record(entities.SignalLiquidity, err)
		}
		out.liquidity = report
		return nil
	})

	if s.c.Simulator != nil && id.pool != nil {
		g.Go(func() error {
			result, err := s.c.Simulator.Simulate(ctx, req.Chain, id.pool)
			if err != nil {
				errs.record(entities.SignalSimulation, err)
				return nil
			}
			out.simulation = result
			return nil
		})
	}

	if id.code != nil {
		g.Go(func() error {
			verdict, err := s.c.Reviews.ReviewCode(ctx, req.Chain, id.codeAddress, id.code)
			if err != nil {
				errs.record(entities.SignalCode, err)
				return nil
			}
			out.code = verdict
			return nil
		})
	}

	g.Go(func() error {
		verdict, err := s.c.Reviews.ReviewWebsite(ctx, links.website, req.WebsiteContent)
		if err != nil {
			errs.record(entities.SignalWebsite, err)
			return nil
		}
		out.website = verdict
		return nil
	})

	g.Go(func() error {
		verdict, err := s.c.Reviews.ReviewSocial(ctx, links.twitter, links.discord, req.SocialContent)
		if err != nil {
			errs.record(entities.SignalSocial, err)
			return nil
		}
		out.social = verdict
		return nil
	})

	_ = g.Wait()
	return out
}

// score applies the configured strategy. The rules score is the fallback for the AI
// strategy, and a token that cannot be sold always scores Scam.
func (s *AssessmentService) score(ctx context.Context, report *entities.AssessmentReport, errs *signalErrors) {
	cl := &report.CheckList
	score, reason := s.c.Rules.Score(cl)
	report.Score = score
	report.Reason = reason
	report.Strategy = entities.StrategyRules

	if s.c.Strategy == entities.StrategyAI && s.c.AIScorer != nil && !isHoneypot(cl) {
		verdict, err := s.c.AIScorer.Score(ctx, cl)
		switch {
		case err != nil:
			errs.record(entities.SignalScoring, err)
		case verdict == nil:
			s.logger.Warn("AI scoring returned no usable verdict, using rules")
		default:
			report.Score = entities.TokenScore(verdict.Score)
			report.Reason = verdict.Reason
			report.Strategy = entities.StrategyAI
		}
	}

	report.ScoreLabel = report.Score.String()
}

func isHoneypot(cl *entities.TokenCheckList) bool {
	return cl.IsTokenSellable != nil && !*cl.IsTokenSellable
}

// persist stores and caches the report; failures are logged only
func (s *AssessmentService) persist(ctx context.Context, report *entities.AssessmentReport) {
	if s.c.Store != nil {
		if err := s.c.Store.Save(ctx, report); err != nil {
			s.logger.Warn("Failed to store assessment", zap.Error(err))
		}
	}
	if s.c.Cache != nil {
		key := cache.AssessmentKey(report.CheckList.Chain, report.CheckList.Address)
		if err := s.c.Cache.Set(ctx, key, report); err != nil {
			s.logger.Warn("Failed to cache assessment", zap.Error(err))
		}
	}
}

// GetLatest returns the newest stored report for a token, or nil if there is none
func (s *AssessmentService) GetLatest(ctx context.Context, chain entities.Chain, tokenAddress string) (*entities.AssessmentReport, error) {
	if _, err := entities.ParseChain(chain.ID()); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, tokenAddress)
	}
	token := strings.ToLower(tokenAddress)

	if s.c.Cache != nil {
		var cached entities.AssessmentReport
		key := cache.AssessmentKey(chain, token)
		if err := s.c.Cache.Get(ctx, key, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", key))
			return &cached, nil
		}
	}

	if s.c.Store == nil {
		return nil, nil
	}

	report, err := s.c.Store.GetLatest(ctx, chain, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	return report, nil
}

// ListRecent returns the newest stored reports across all tokens
func (s *AssessmentService) ListRecent(ctx context.Context, limit int) ([]entities.AssessmentReport, error) {
	if s.c.Store == nil {
		return []entities.AssessmentReport{}, nil
	}

	reports, err := s.c.Store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return reports, nil
}

// tokenLinks are the website and social URLs of a token, with presence flags
type tokenLinks struct {
	website    string
	twitter    string
	discord    string
	hasWebsite *bool
	hasSocial  *bool
}

// resolveLinks prefers caller-supplied URLs and falls back to the explorer profile.
// Presence stays undetermined when neither source is available.
func resolveLinks(req entities.AssessmentRequest, profile *entities.TokenProfile) tokenLinks {
	l := tokenLinks{
		website: req.WebsiteURL,
		twitter: req.TwitterURL,
		discord: req.DiscordURL,
	}
	if profile != nil {
		if l.website == "" {
			l.website = profile.Website
		}
		if l.twitter == "" {
			l.twitter = profile.Twitter
		}
		if l.discord == "" {
			l.discord = profile.Discord
		}
	}

	if profile != nil || l.website != "" {
		l.hasWebsite = entities.BoolPtr(l.website != "")
	}
	if profile != nil || l.twitter != "" || l.discord != "" {
		l.hasSocial = entities.BoolPtr(l.twitter != "" || l.discord != "")
	}
	return l
}
