// Package pipeline writes the artifacts of a run: the consolidated CSV, an
// optional Parquet copy and a Markdown summary. It can also persist the rows,
// record the run and upload the artifacts.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/idhash"
	"tokenomics-lab/internal/observability"
	"tokenomics-lab/internal/reporting"
	"tokenomics-lab/internal/storage"
)

// SummaryFile is the Markdown run summary written next to the output.
const SummaryFile = "RUN_SUMMARY.md"

// Uploader stores one artifact and returns its object key.
type Uploader interface {
	UploadFile(ctx context.Context, runDate domain.Date, path string) (string, error)
}

// Run is the outcome of a chain build handed to the exporter.
type Run struct {
	ID        string
	StartedAt time.Time
	Status    string
	Tables    []domain.ProtocolTable
	Rows      []domain.ChainRow
	Failures  map[domain.Chain]error
}

// Result lists what an export produced.
type Result struct {
	Files    []string // local artifact paths
	Uploaded []string // object keys
	Report   *reporting.Report
}

// Exporter writes and publishes run artifacts.
type Exporter struct {
	outputDir string
	parquet   bool
	rows      storage.ChainRowStore // optional
	runs      storage.RunStore      // optional
	uploader  Uploader              // optional
	logger    *zap.Logger
	metrics   *observability.Metrics
	clock     func() time.Time
}

// NewExporter creates an exporter writing into outputDir.
func NewExporter(outputDir string, logger *zap.Logger, metrics *observability.Metrics) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &Exporter{
		outputDir: outputDir,
		logger:    logger,
		metrics:   metrics,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithParquet adds a Parquet copy of the consolidated table.
func (e *Exporter) WithParquet() *Exporter {
	e.parquet = true
	return e
}

// WithStores persists the rows of every built chain and records the run.
// Either store may be nil.
func (e *Exporter) WithStores(rows storage.ChainRowStore, runs storage.RunStore) *Exporter {
	e.rows = rows
	e.runs = runs
	return e
}

// WithUploader uploads every written artifact.
func (e *Exporter) WithUploader(u Uploader) *Exporter {
	e.uploader = u
	return e
}

// WithClock sets a custom clock function for deterministic output.
func (e *Exporter) WithClock(clock func() time.Time) *Exporter {
	e.clock = clock
	return e
}

// Export writes the artifacts of run, then persists, records and uploads
// them when configured. Files written before a failing step are kept.
func (e *Exporter) Export(ctx context.Context, run Run) (*Result, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	result := &Result{}

	// 1. Consolidated CSV
	csvPath := filepath.Join(e.outputDir, reporting.ChainRowsFile)
	if err := writeFile(csvPath, func(w io.Writer) error { return reporting.WriteChainRowsCSV(w, run.Rows) }); err != nil {
		return nil, fmt.Errorf("write %s: %w", reporting.ChainRowsFile, err)
	}
	result.Files = append(result.Files, csvPath)
	e.metrics.RecordExport("csv", len(run.Rows))

	// 2. Parquet copy
	if e.parquet {
		pqPath := filepath.Join(e.outputDir, reporting.ChainRowsParquetFile)
		if err := writeFile(pqPath, func(w io.Writer) error { return reporting.WriteChainRowsParquet(w, run.Rows) }); err != nil {
			return nil, fmt.Errorf("write %s: %w", reporting.ChainRowsParquetFile, err)
		}
		result.Files = append(result.Files, pqPath)
		e.metrics.RecordExport("parquet", len(run.Rows))
	}

	// 3. Chain rows, replaced per built chain
	if e.rows != nil {
		if err := e.persist(ctx, run); err != nil {
			return nil, err
		}
	}

	// 4. Summary
	finished := e.clock()
	report := reporting.Summarize(run.Rows, run.Failures)
	report.GeneratedAt = finished
	report.RunID = run.ID
	report.DataVersion = idhash.ComputeDataVersion(run.Rows)
	result.Report = report

	summaryPath := filepath.Join(e.outputDir, SummaryFile)
	if err := os.WriteFile(summaryPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", SummaryFile, err)
	}
	result.Files = append(result.Files, summaryPath)
	reporting.LogSummary(e.logger, report)

	// 5. Run record
	if e.runs != nil {
		record := &storage.RunRecord{
			RunID:        run.ID,
			StartedAt:    run.StartedAt,
			FinishedAt:   finished,
			Status:       run.Status,
			Rows:         len(run.Rows),
			FailedChains: failedChains(run.Failures),
			DataVersion:  report.DataVersion,
		}
		if err := e.runs.Record(ctx, record); err != nil {
			return nil, fmt.Errorf("record run %s: %w", run.ID, err)
		}
	}

	// 6. Upload
	if e.uploader != nil {
		runDate := domain.DateOf(finished)
		for _, p := range result.Files {
			key, err := e.uploader.UploadFile(ctx, runDate, p)
			if err != nil {
				return nil, fmt.Errorf("upload %s: %w", filepath.Base(p), err)
			}
			result.Uploaded = append(result.Uploaded, key)
		}
		e.metrics.RecordExport("s3", len(run.Rows))
	}

	if !run.StartedAt.IsZero() {
		e.metrics.RecordPipelineRun(run.Status, finished.Sub(run.StartedAt).Seconds(), finished.Unix())
	}
	e.logger.Info("run exported",
		zap.String("run_id", run.ID),
		zap.Strings("files", result.Files),
		zap.Int("uploaded", len(result.Uploaded)),
	)
	return result, nil
}

// persist replaces the stored rows of every chain built in run. Chains that
// failed keep their previously stored rows.
func (e *Exporter) persist(ctx context.Context, run Run) error {
	byChain := make(map[domain.Chain][]domain.ChainRow, len(run.Tables))
	for _, r := range run.Rows {
		byChain[r.Chain] = append(byChain[r.Chain], r)
	}
	total := 0
	for _, t := range run.Tables {
		rows := byChain[t.Chain]
		if err := e.rows.ReplaceChain(ctx, t.Chain, rows); err != nil {
			return fmt.Errorf("persist %s rows: %w", t.Chain, err)
		}
		total += len(rows)
	}
	e.metrics.RecordExport("postgres", total)
	return nil
}

func failedChains(failures map[domain.Chain]error) []string {
	out := make([]string, 0, len(failures))
	for c := range failures {
		out = append(out, c.String())
	}
	sort.Strings(out)
	return out
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
