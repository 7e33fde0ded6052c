package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/application/services"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/anvil"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/cache"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/database"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/ethereum"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/explorer"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/llm"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/metrics"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/infrastructure/thegraph"
)

// Engine is a fully wired assessment service and the connections behind it
type Engine struct {
	Service  *services.AssessmentService
	Registry *ethereum.Registry
	DB       *database.PostgresDB
	Cache    *cache.RedisCache
}

// NewEngine connects to every configured backend and wires the assessment pipeline.
// Redis and PostgreSQL are optional; chain nodes are not.
func NewEngine(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*Engine, error) {
	registry, err := ethereum.NewRegistry(ctx, cfg.Ethereum, cfg.Scoring.ExtraLockerAddresses, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain nodes: %w", err)
	}

	e := &Engine{Registry: registry}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis, cfg.API.CacheTTL, logger)
		if err != nil {
			logger.Warn("Failed to connect to Redis, running without cache", zap.Error(err))
		} else {
			e.Cache = redisCache
		}
	}

	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(cfg.Database, logger)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		e.DB = db
		if err := db.Migrate(ctx); err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	spec, err := llm.SpecFor(cfg.AI)
	if err != nil {
		e.Close()
		return nil, err
	}
	completer := llm.NewClient(spec, cfg.AI.RequestTimeout, cfg.AI.MaxRetries, logger)

	assessmentMetrics := metrics.NewAssessmentMetrics(reg)
	pools := thegraph.NewClient(cfg.Indexer, logger)
	explorerClient := explorer.NewClient(cfg.Explorer, logger)
	reviewer := services.NewReviewer(completer, assessmentMetrics, logger)

	var simulator *services.HoneypotSimulator
	if cfg.Simulator.Enabled {
		settings, err := services.NewSimulatorSettings(cfg.Simulator)
		if err != nil {
			e.Close()
			return nil, err
		}
		launcher, err := anvil.NewLauncher(registry, cfg.Simulator, logger)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to create fork launcher: %w", err)
		}
		simulator = services.NewHoneypotSimulator(launcher, settings, assessmentMetrics, logger)
	} else {
		logger.Warn("Honeypot simulation disabled, sellability will be undetermined")
	}

	components := services.AssessmentComponents{
		ChainReader: registry,
		Explorer:    explorerClient,
		Resolver:    services.NewPoolResolver(pools, e.Cache, logger),
		Analyzer:    services.NewLiquidityAnalyzer(pools, registry, explorerClient, registry, services.DefaultHolderLimit, logger),
		Simulator:   simulator,
		Reviews:     services.NewReviewService(reviewer, e.Cache, logger),
		Rules:       services.NewRulesScorer(cfg.Scoring),
		AIScorer:    services.NewAIScorer(reviewer, logger),
		Strategy:    entities.ScoringStrategy(strings.ToLower(cfg.Scoring.Strategy)),
		Cache:       e.Cache,
		Metrics:     assessmentMetrics,
	}
	if e.DB != nil {
		components.Store = database.NewAssessmentRepo(e.DB.DB())
	}

	e.Service = services.NewAssessmentService(components, logger)

	logger.Info("Assessment engine ready",
		zap.Int("chains", len(registry.Chains())),
		zap.String("ai_provider", completer.ProviderName()),
		zap.String("strategy", string(components.Strategy)),
		zap.Bool("simulator", simulator != nil),
		zap.Bool("cache", e.Cache != nil),
		zap.Bool("database", e.DB != nil),
	)

	return e, nil
}

// Close releases every connection the engine holds
func (e *Engine) Close() {
	if e.Cache != nil {
		e.Cache.Close()
	}
	if e.DB != nil {
		e.DB.Close()
	}
	if e.Registry != nil {
		e.Registry.Close()
	}
}

// NewLogger builds the process logger from the log settings
func NewLogger(cfg config.LogConfig) *zap.Logger {
	var zapLevel zapcore.Level
	switch cfg.Level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoding := "json"
	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
