// Package main re-downloads the saved-query CSV exports and extracts the dYdX
// APR blob into the data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tokenomics-lab/internal/config"
	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/dune"
	"tokenomics-lab/internal/logging"
	"tokenomics-lab/internal/observability"
	"tokenomics-lab/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	chainList := flag.String("chains", "", "Comma-separated chains to refresh (default: all with exports)")
	dataDir := flag.String("data-dir", "", "Data directory (default: storage.data_dir)")
	workers := flag.Int("workers", 0, "Concurrent downloads (default: pipeline.workers)")
	skipAPR := flag.Bool("skip-dydx-apr", false, "Do not extract the dYdX APR blob")
	flag.Parse()

	// Missing .env is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	chains, err := domain.ParseChains(*chainList)
	if err != nil {
		logger.Fatal("invalid chains", zap.Error(err))
	}
	if *dataDir == "" {
		*dataDir = cfg.Storage.DataDir
	}
	if *workers < 1 {
		*workers = cfg.Pipeline.Workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateRefresh(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	client := dune.NewClient(cfg.Dune.APIKey,
		dune.WithBaseURL(cfg.Dune.BaseURL),
		dune.WithTimeout(cfg.Dune.Timeout),
		dune.WithLogger(logger),
	)
	refresher := pipeline.NewRefresher(client, *dataDir, *workers, logger, observability.DefaultMetrics)

	failed := false
	if err := refresher.Refresh(ctx, chains); err != nil {
		logger.Error("refresh failed", zap.Error(err))
		failed = true
	}

	if !*skipAPR && slices.Contains(chains, domain.ChainDYDX) {
		if err := refresher.ExtractDYDXAPR(); err != nil {
			logger.Error("apr extraction failed", zap.Error(err))
			failed = true
		}
	}

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := observability.DefaultMetrics.Push(ctx, url, cfg.Metrics.Job+"_refresh"); err != nil {
			logger.Warn("push metrics failed", zap.Error(err))
		}
	}

	if failed {
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}
