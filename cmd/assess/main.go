package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/bootstrap"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/config"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

func main() {
	// Parse flags
	token := flag.String("token", "", "Token contract address (required)")
	chainID := flag.Int64("chain", int64(entities.ChainEthereum), "Chain ID: 1 (Ethereum) or 8453 (Base)")
	strategy := flag.String("strategy", "", "Scoring strategy override: rules or ai")
	website := flag.String("website", "", "Project website URL")
	websiteFile := flag.String("website-content", "", "File with the website text")
	twitter := flag.String("twitter", "", "Project Twitter/X URL")
	discord := flag.String("discord", "", "Project Discord URL")
	socialFile := flag.String("social-content", "", "File with social media text")
	noSimulate := flag.Bool("no-simulate", false, "Skip the forked-chain honeypot simulation")

	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "--token is required")
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *strategy != "" {
		cfg.Scoring.Strategy = strings.ToLower(*strategy)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid strategy: %v\n", err)
			os.Exit(2)
		}
	}
	if *noSimulate {
		cfg.Simulator.Enabled = false
	}

	// Setup logger
	logger := bootstrap.NewLogger(cfg.Log)
	defer logger.Sync()

	req := entities.AssessmentRequest{
		Chain:        entities.Chain(*chainID),
		TokenAddress: *token,
		WebsiteURL:   *website,
		TwitterURL:   *twitter,
		DiscordURL:   *discord,
	}
	if req.WebsiteContent, err = readOptional(*websiteFile); err != nil {
		logger.Fatal("Failed to read website content", zap.Error(err))
	}
	if req.SocialContent, err = readOptional(*socialFile); err != nil {
		logger.Fatal("Failed to read social content", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.API.AssessmentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.API.AssessmentTimeout)
		defer cancel()
	}

	engine, err := bootstrap.NewEngine(ctx, cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		logger.Fatal("Failed to start assessment engine", zap.Error(err))
	}
	defer engine.Close()

	report, err := engine.Service.Assess(ctx, req)
	if err != nil {
		logger.Fatal("Assessment failed", zap.Error(err), zap.String("token", *token))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
