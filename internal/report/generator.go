// Package report renders the session tape.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sivchari/gocalc/internal/config"
	"github.com/sivchari/gocalc/internal/history"
)

// Generator handles tape report generation.
type Generator struct {
	format string
	out    io.Writer
}

// Summary contains everything a tape report shows.
type Summary struct {
	Entries    []history.Entry `json:"entries"`
	Statistics history.Stats   `json:"statistics"`
	Timestamp  time.Time       `json:"timestamp"`
}

// New creates a report generator writing to out in the tape format from cfg.
func New(cfg *config.Config, out io.Writer) (*Generator, error) {
	format := cfg.Tape.Format

	switch format {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported tape format %q", format)
	}

	return &Generator{
		format: format,
		out:    out,
	}, nil
}

// Generate renders the tape held by store.
func (g *Generator) Generate(store *history.Store) error {
	summary := &Summary{
		Entries:    store.Entries(),
		Statistics: store.GetStats(),
		Timestamp:  time.Now(),
	}

	switch g.format {
	case "json":
		return g.generateJSON(summary)
	default:
		return g.generateText(summary)
	}
}

func (g *Generator) generateJSON(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if _, err := fmt.Fprintln(g.out, string(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func (g *Generator) generateText(summary *Summary) error {
	if _, err := io.WriteString(g.out, formatTextReport(summary)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func formatTextReport(summary *Summary) string {
	stats := summary.Statistics

	var b strings.Builder

	fmt.Fprintf(&b, `
Calculator Tape
===============

Computations: %d
Failed:       %d (%.1f%%)
`,
		stats.Total,
		stats.Failed, percentage(stats.Failed, stats.Total),
	)

	if len(stats.ByOperator) > 0 {
		b.WriteString("\nBy operator:\n")

		symbols := make([]string, 0, len(stats.ByOperator))
		for symbol := range stats.ByOperator {
			symbols = append(symbols, symbol)
		}

		sort.Strings(symbols)

		for _, symbol := range symbols {
			fmt.Fprintf(&b, "  %s  %d\n", symbol, stats.ByOperator[symbol])
		}
	}

	if len(summary.Entries) > 0 {
		b.WriteString("\nEntries:\n")

		for _, entry := range summary.Entries {
			outcome := entry.Result
			if entry.Failed() {
				outcome = "error: " + entry.Error
			}

			fmt.Fprintf(&b, "  %s = %s\n", entry.Expression(), outcome)
		}
	}

	return b.String()
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}

	return float64(part) / float64(total) * 100
}
