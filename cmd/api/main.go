package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/bootstrap"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/presentation/handlers"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/presentation/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := bootstrap.NewLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting tokencheck API",
		zap.Int("port", cfg.API.Port),
		zap.Int64s("chains", cfg.Ethereum.EnabledChains),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire the assessment pipeline
	engine, err := bootstrap.NewEngine(ctx, cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Fatal("Failed to start assessment engine", zap.Error(err))
	}
	defer engine.Close()

	// Create handlers
	assessmentHandler := handlers.NewAssessmentHandler(engine.Service, cfg.API.AssessmentTimeout, logger)

	var dbChecker, cacheChecker handlers.HealthChecker
	if engine.DB != nil {
		dbChecker = engine.DB
	}
	if engine.Cache != nil {
		cacheChecker = engine.Cache
	}
	healthHandler := handlers.NewHealthHandler(engine.Registry, dbChecker, cacheChecker)

	// Setup router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)))
	r.Use(chimiddleware.Recoverer)

	// Health endpoints (no rate limiting)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(cfg.API.RateLimitRPS))
		assessmentHandler.RegisterRoutes(r)
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Run server in goroutine
	go func() {
		logger.Info("API server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	logger.Info("Received shutdown signal, shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}
