package reporting

import "go.uber.org/zap"

// LogSummary writes the report to logger, one line per chain plus one line
// listing the columns with missing values.
func LogSummary(logger *zap.Logger, r *Report) {
	for _, c := range r.Chains {
		logger.Info("chain summary",
			zap.String("chain", string(c.Chain)),
			zap.Int("rows", c.Rows),
			zap.Int("complete_rows", c.Complete),
			zap.Stringer("first_date", c.FirstDate),
			zap.Stringer("last_date", c.LastDate),
		)
	}

	missing := make(map[string]int)
	for _, c := range r.Columns {
		if c.Missing > 0 {
			missing[c.Column] = c.Missing
		}
	}
	logger.Info("run summary",
		zap.Int("rows", r.TotalRows),
		zap.Int("chains", len(r.Chains)),
		zap.Int("failed_chains", len(r.Failures)),
		zap.String("data_version", r.DataVersion),
		zap.Any("missing_values", missing),
	)

	for _, f := range r.Failures {
		logger.Warn("chain failed", zap.String("chain", string(f.Chain)), zap.String("error", f.Error))
	}
}
