package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// Report is the content of the markdown summary of a run
type Report struct {
	GeneratedAt time.Time
	Tables      domain.FusedTables
	Comparisons []domain.Comparison
	// Skipped holds one line per comparison that could not be computed
	Skipped []string
	Gaps    []domain.CoverageGap
}

// RenderMarkdown renders the report. Table columns are padded by display
// width so region names with wide runes stay aligned.
func RenderMarkdown(r Report) string {
	var b strings.Builder

	b.WriteString("# Election results and search interest\n\n")
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated %s\n\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	}

	b.WriteString("## Comparisons\n\n")
	if len(r.Comparisons) == 0 && len(r.Skipped) == 0 {
		b.WriteString("No comparisons were run.\n\n")
	}
	for _, c := range r.Comparisons {
		fmt.Fprintf(&b, "### %s\n\n", c.TermLabel)
		for _, line := range c.Summary {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(&b, "- skipped: %s\n", s)
	}
	if len(r.Skipped) > 0 {
		b.WriteString("\n")
	}

	var gaps []domain.CoverageGap
	for _, g := range r.Gaps {
		if g.Count() > 0 {
			gaps = append(gaps, g)
		}
	}
	if len(gaps) > 0 {
		b.WriteString("## Coverage gaps\n\n")
		for _, g := range gaps {
			fmt.Fprintf(&b, "- %s: %d unmatched (%s)\n", g.Join, g.Count(), strings.Join(g.Keys, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Regions\n\n")
	b.WriteString(markdownTable(domain.GeoHeader, GeoRecords(r.Tables.Geo)))

	fmt.Fprintf(&b, "\nTimeline: %d points across %d dates\n", len(r.Tables.Timeline), countDates(r.Tables.Timeline))
	return b.String()
}

// WriteReport renders r and swaps it onto path
func WriteReport(path string, r Report, logger *slog.Logger) error {
	content := RenderMarkdown(r)
	staged, err := stageFile(path, func(f *os.File) error {
		_, err := f.WriteString(content)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := staged.Commit(); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("Wrote report", slog.String("path", path), slog.Int("bytes", len(content)))
	}
	return nil
}

func markdownTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(3, runewidth.StringWidth(h))
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(cell, w))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(header)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

func countDates(timeline []domain.TimePoint) int {
	seen := make(map[string]struct{}, len(timeline))
	for _, p := range timeline {
		seen[p.Date] = struct{}{}
	}
	return len(seen)
}
