package reporting

import (
	"fmt"
	"strings"
	"time"

	"tokenomics-lab/internal/idhash"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Token Economics Run Summary\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}
	if r.DataVersion != "" {
		sb.WriteString(fmt.Sprintf("Data version: %s\n\n", idhash.ShortVersion(r.DataVersion)))
	}
	sb.WriteString(fmt.Sprintf("Rows: %d | Chains: %d | Failed: %d\n\n", r.TotalRows, len(r.Chains), len(r.Failures)))

	// Chains
	sb.WriteString("## Chains\n\n")
	if len(r.Chains) > 0 {
		sb.WriteString("| Chain | Rows | Complete | First | Last |\n")
		sb.WriteString("|-------|------|----------|-------|------|\n")
		for _, c := range r.Chains {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s |\n",
				c.Chain, c.Rows, c.Complete, c.FirstDate, c.LastDate))
		}
	} else {
		sb.WriteString("No rows produced.\n")
	}
	sb.WriteString("\n")

	// Missing values
	sb.WriteString("## Missing Values\n\n")
	sb.WriteString("| Column | Missing |\n")
	sb.WriteString("|--------|---------|\n")
	for _, c := range r.Columns {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", c.Column, c.Missing))
	}
	sb.WriteString("\n")

	// Failures (only shown if present)
	if len(r.Failures) > 0 {
		sb.WriteString("## Failed Chains\n\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Chain, f.Error))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
