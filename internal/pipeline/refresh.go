package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/dune"
	"tokenomics-lab/internal/ingestion"
	"tokenomics-lab/internal/observability"
)

// ResultFetcher downloads the latest result of a saved query.
type ResultFetcher interface {
	LatestResult(ctx context.Context, queryID int) (*dune.Result, error)
}

// Refresher re-downloads the saved-query exports into the data directory.
type Refresher struct {
	fetcher ResultFetcher
	dataDir string
	workers int
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRefresher creates a refresher writing below dataDir.
func NewRefresher(fetcher ResultFetcher, dataDir string, workers int, logger *zap.Logger, metrics *observability.Metrics) *Refresher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &Refresher{fetcher: fetcher, dataDir: dataDir, workers: workers, logger: logger, metrics: metrics}
}

// Refresh downloads every export of the selected chains. A failed download
// leaves the previous file in place; the errors are joined.
func (r *Refresher) Refresh(ctx context.Context, chains []domain.Chain) error {
	selected := make(map[domain.Chain]bool, len(chains))
	for _, c := range chains {
		selected[c] = true
	}
	var exports []ingestion.DuneExport
	for _, e := range ingestion.DuneExports() {
		if selected[e.Chain] {
			exports = append(exports, e)
		}
	}
	if len(exports) == 0 {
		return nil
	}

	errs := make([]error, len(exports))
	pool := pond.NewPool(r.workers)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i, e := range exports {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = r.refreshOne(groupCtx, e)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		r.logger.Warn("refresh group finished with error", zap.Error(err))
	}
	return errors.Join(errs...)
}

func (r *Refresher) refreshOne(ctx context.Context, e ingestion.DuneExport) error {
	start := time.Now()
	res, err := r.fetcher.LatestResult(ctx, e.QueryID)
	r.metrics.RecordFetch("dune", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", e.Path, err)
	}

	if err := r.replace(e.Path, res.WriteCSV); err != nil {
		return fmt.Errorf("refresh %s: %w", e.Path, err)
	}
	r.logger.Info("export refreshed",
		zap.String("chain", e.Chain.String()),
		zap.Int("query_id", e.QueryID),
		zap.String("path", e.Path),
		zap.Int("rows", len(res.Rows)),
	)
	return nil
}

// ExtractDYDXAPR decodes the dYdX APR blob and writes it as a [date, apr] CSV.
func (r *Refresher) ExtractDYDXAPR() error {
	records, err := ingestion.ReadAPRBlob(os.DirFS(r.dataDir), ingestion.DYDXAPRBlob)
	if err != nil {
		return err
	}
	table := ingestion.APRTable(records)
	if err := r.replace(ingestion.DYDXAPRExport, table.WriteCSV); err != nil {
		return fmt.Errorf("write %s: %w", ingestion.DYDXAPRExport, err)
	}
	r.logger.Info("apr blob extracted", zap.String("path", ingestion.DYDXAPRExport), zap.Int("rows", table.Len()))
	return nil
}

// replace writes rel through a temporary file so a failed write keeps the old file.
func (r *Refresher) replace(rel string, write func(io.Writer) error) error {
	target := filepath.Join(r.dataDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	tmp := target + ".tmp"
	if err := writeFile(tmp, write); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}
