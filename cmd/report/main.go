// Package main rebuilds the run summary and the consolidated CSV from the rows
// persisted in Postgres, without fetching anything.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tokenomics-lab/internal/config"
	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/logging"
	"tokenomics-lab/internal/pipeline"
	"tokenomics-lab/internal/reporting"
	"tokenomics-lab/internal/storage"
	pgstore "tokenomics-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Optional YAML config file")
	outputDir := flag.String("output-dir", "", "Output directory (default: storage.output_dir)")
	withCSV := flag.Bool("csv", true, "Also rewrite the consolidated CSV from the stored rows")
	flag.Parse()

	ctx := context.Background()

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

	if cfg.Postgres.DSN == "" {
		logger.Fatal("postgres not configured", zap.Error(fmt.Errorf("%w: POSTGRES_DSN", config.ErrMissingSetting)))
	}
	if *outputDir == "" {
		*outputDir = cfg.Storage.OutputDir
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, pgstore.WithApplicationName("tokenomics-report"))
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	rowStore := pgstore.NewChainRowStore(pool)
	runStore := pgstore.NewRunStore(pool)

	// Failures and run id come from the last recorded run, when there is one
	runID := ""
	failures := map[domain.Chain]error{}
	last, err := runStore.Last(ctx)
	switch {
	case err == nil:
		runID = last.RunID
		for _, c := range last.FailedChains {
			failures[domain.Chain(c)] = fmt.Errorf("failed in run %s", last.RunID)
		}
	case errors.Is(err, storage.ErrNotFound):
		logger.Warn("no recorded run")
	default:
		logger.Fatal("load last run", zap.Error(err))
	}

	report, err := reporting.NewGenerator(rowStore).Generate(ctx, runID, failures)
	if err != nil {
		logger.Fatal("generate report", zap.Error(err))
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatal("create output dir", zap.Error(err))
	}
	summaryPath := filepath.Join(*outputDir, pipeline.SummaryFile)
	if err := os.WriteFile(summaryPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		logger.Fatal("write summary", zap.Error(err))
	}
	written := []string{summaryPath}

	if *withCSV {
		rows, err := rowStore.GetAll(ctx)
		if err != nil {
			logger.Fatal("load rows", zap.Error(err))
		}
		csvPath := filepath.Join(*outputDir, reporting.ChainRowsFile)
		f, err := os.Create(csvPath)
		if err != nil {
			logger.Fatal("create csv", zap.Error(err))
		}
		if err := reporting.WriteChainRowsCSV(f, rows); err != nil {
			f.Close()
			logger.Fatal("write csv", zap.Error(err))
		}
		if err := f.Close(); err != nil {
			logger.Fatal("close csv", zap.Error(err))
		}
		written = append(written, csvPath)
	}

	reporting.LogSummary(logger, report)
	logger.Info("report written", zap.String("files", strings.Join(written, ", ")))
}
