// Package main provides the batch entry point.
// Executes: fetch → normalize → merge per chain → standardize → export
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tokenomics-lab/internal/config"
	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/fixtures"
	"tokenomics-lab/internal/logging"
	"tokenomics-lab/internal/marketdata"
	"tokenomics-lab/internal/observability"
	"tokenomics-lab/internal/orchestrator"
	"tokenomics-lab/internal/pipeline"
	chstore "tokenomics-lab/internal/storage/clickhouse"
	"tokenomics-lab/internal/storage/migrations"
	"tokenomics-lab/internal/storage/objectstore"
	pgstore "tokenomics-lab/internal/storage/postgres"
)

var errChainsFailed = errors.New("some chains failed")

type flags struct {
	configPath string
	chains     string
	workers    int
	outputDir  string
	reuseCache bool
	useFixture bool
	parquet    bool
	upload     bool
	persist    bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&f.chains, "chains", "", "Comma-separated chains to build (default: all)")
	flag.IntVar(&f.workers, "workers", 0, "Concurrent chain builds (default: pipeline.workers)")
	flag.StringVar(&f.outputDir, "output-dir", "", "Output directory (default: storage.output_dir)")
	flag.BoolVar(&f.reuseCache, "reuse-cache", false, "Load chains from the per-protocol cache when present")
	flag.BoolVar(&f.useFixture, "fixtures", false, "Run on the bundled offline demo data")
	flag.BoolVar(&f.parquet, "parquet", false, "Also write a Parquet copy of the output")
	flag.BoolVar(&f.upload, "upload", false, "Upload artifacts to S3")
	flag.BoolVar(&f.persist, "persist", false, "Persist rows and the run record to Postgres")
	flag.Parse()

	// Missing .env is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f.configPath)
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

	// Create context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, logger); err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, f flags, logger *zap.Logger) error {
	started := time.Now().UTC()
	metrics := observability.DefaultMetrics

	chains, err := domain.ParseChains(f.chains)
	if err != nil {
		return err
	}
	workers := cfg.Pipeline.Workers
	if f.workers > 0 {
		workers = f.workers
	}
	outputDir := cfg.Storage.OutputDir
	if f.outputDir != "" {
		outputDir = f.outputDir
	}

	opts := orchestrator.Options{
		Settings:   orchestrator.DefaultSettings(),
		Chains:     chains,
		MaxWorkers: workers,
		Logger:     logger,
		Metrics:    metrics,
	}

	if f.useFixture {
		quotes, err := fixtures.NewQuoteSource()
		if err != nil {
			return err
		}
		opts.Sources = orchestrator.Sources{
			Quotes: quotes,
			Bonds:  fixtures.BondStore(),
			Files:  fixtures.Files(),
		}
		logger.Info("using offline fixtures", zap.Stringer("first", fixtures.First), zap.Stringer("last", fixtures.Last))
	} else {
		sources, closeSources, err := liveSources(ctx, cfg, chains, logger, metrics)
		if err != nil {
			return err
		}
		defer closeSources()
		opts.Sources = sources
		opts.Settings.BondDatabase = cfg.Warehouse.Database
		opts.Settings.BondTable = cfg.Warehouse.Table
		opts.CacheDir = cfg.Storage.CacheDir
		opts.ReuseCache = f.reuseCache
	}

	logger.Info("starting run", zap.Stringers("chains", chains), zap.Int("workers", workers))
	result, err := orchestrator.New(opts).Run(ctx)
	if err != nil {
		return err
	}

	exporter := pipeline.NewExporter(outputDir, logger, metrics)
	if f.parquet {
		exporter = exporter.WithParquet()
	}

	if f.persist {
		if cfg.Postgres.DSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN", config.ErrMissingSetting)
		}
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, pgstore.WithApplicationName("tokenomics-pipeline"))
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		exporter = exporter.WithStores(pgstore.NewChainRowStore(pool), pgstore.NewRunStore(pool))
	}

	if f.upload {
		uploader, err := objectstore.NewS3Uploader(ctx, cfg.Storage.S3, logger)
		if err != nil {
			return err
		}
		exporter = exporter.WithUploader(uploader)
	}

	_, err = exporter.Export(ctx, pipeline.Run{
		ID:        "run-" + started.Format("20060102T150405Z"),
		StartedAt: started,
		Status:    result.Status(),
		Tables:    result.Tables,
		Rows:      result.Rows,
		Failures:  result.Errors,
	})
	if err != nil {
		return err
	}

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := metrics.Push(ctx, url, cfg.Metrics.Job); err != nil {
			logger.Warn("push metrics failed", zap.String("url", url), zap.Error(err))
		}
	}

	if result.Failed() {
		return fmt.Errorf("%w: %d of %d", errChainsFailed, len(result.Errors), len(chains))
	}
	return nil
}

// liveSources wires the external sources the selected chains read. The quote
// client and the warehouse connection are only created when a selected chain
// needs them.
func liveSources(ctx context.Context, cfg *config.Config, chains []domain.Chain, logger *zap.Logger, metrics *observability.Metrics) (orchestrator.Sources, func(), error) {
	sources := orchestrator.Sources{Files: os.DirFS(cfg.Storage.DataDir)}
	closeFn := func() {}

	if err := cfg.ValidateFetch(chains); err != nil {
		return sources, closeFn, err
	}

	if slices.ContainsFunc(chains, domain.Chain.NeedsQuotes) {
		sources.Quotes = marketdata.NewClient(cfg.CoinMarketCap.APIKey,
			marketdata.WithBaseURL(cfg.CoinMarketCap.BaseURL),
			marketdata.WithTimeout(cfg.CoinMarketCap.Timeout),
			marketdata.WithLogger(logger),
			marketdata.WithMetrics(metrics),
		)
	}

	if slices.ContainsFunc(chains, domain.Chain.NeedsWarehouse) {
		conn, err := chstore.NewConn(ctx, cfg.Warehouse.DSN, chstore.WithDialTimeout(cfg.Warehouse.DialTimeout))
		if err != nil {
			return sources, closeFn, fmt.Errorf("connect warehouse: %w", err)
		}
		closeFn = func() { conn.Close() }
		sources.Bonds = chstore.NewBondedTokenStore(conn)
		logger.Info("warehouse connected", zap.String("database", conn.Database()))
	}

	return sources, closeFn, nil
}
