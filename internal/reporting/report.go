package reporting

import (
	"time"

	"tokenomics-lab/internal/domain"
)

// Report summarizes the consolidated table produced by a run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	DataVersion string // digest of the consolidated rows
	TotalRows   int

	// Per chain coverage, sorted by chain
	Chains []ChainSummary

	// Missing values per output column, in output column order
	Columns []ColumnSummary

	// Chains whose build failed, sorted by chain
	Failures []ChainFailure
}

// ChainSummary describes the rows of one chain.
type ChainSummary struct {
	Chain     domain.Chain
	Rows      int
	FirstDate domain.Date
	LastDate  domain.Date
	Complete  int // rows with every core metric set
}

// ColumnSummary counts the unset cells of one output column.
type ColumnSummary struct {
	Column  string
	Missing int
}

// ChainFailure records a chain that produced no table.
type ChainFailure struct {
	Chain domain.Chain
	Error string
}
