package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// minResultCells is the number of <td> cells a row needs to be a result row
const minResultCells = 3

// TableExtractor lifts (region, share A, share B) rows out of result tables
type TableExtractor struct {
	tableClass string
	logger     *slog.Logger
}

// NewTableExtractor creates an extractor for tables carrying tableClass.
// An empty class selects every table in the document.
func NewTableExtractor(tableClass string, logger *slog.Logger) *TableExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableExtractor{
		tableClass: tableClass,
		logger:     logger.With(slog.String("component", "table_extractor")),
	}
}

// ExtractFile extracts result rows from an HTML file
func (e *TableExtractor) ExtractFile(ctx context.Context, path string) ([]domain.RawResultRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &apierrors.ExtractionError{Source: path, Reason: "open results page", Cause: err}
	}
	defer f.Close()

	return e.Extract(ctx, f, path)
}

// Extract parses markup and returns result rows in document order. Rows with
// fewer than three cells are skipped; a share that does not parse is an
// ExtractionError. Row numbers in errors count <tr> elements across the
// selected tables.
func (e *TableExtractor) Extract(ctx context.Context, r io.Reader, source string) ([]domain.RawResultRow, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, &apierrors.ExtractionError{Source: source, Reason: "parse html", Cause: err}
	}

	tables := findTables(doc, e.tableClass)

	var (
		rows    []domain.RawResultRow
		rowNum  int
		skipped int
	)
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, tr := range tableRows(table) {
			rowNum++

			cells := rowCells(tr)
			if len(cells) < minResultCells {
				skipped++
				continue
			}

			row, err := parseResultRow(cells, source, rowNum)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, &apierrors.ExtractionError{
			Source: source,
			Reason: fmt.Sprintf("no result rows in %d matching tables", len(tables)),
		}
	}

	e.logger.InfoContext(ctx, "Extracted result rows",
		slog.String("source", source),
		slog.Int("tables", len(tables)),
		slog.Int("rows", len(rows)),
		slog.Int("skipped_rows", skipped))

	return rows, nil
}

func parseResultRow(cells []string, source string, rowNum int) (domain.RawResultRow, error) {
	row := domain.RawResultRow{
		Region:    cells[0],
		RawShareA: cells[1],
		RawShareB: cells[2],
	}

	var err error
	if row.ShareA, err = parseShare(cells[1], source, rowNum, 2); err != nil {
		return row, err
	}
	if row.ShareB, err = parseShare(cells[2], source, rowNum, 3); err != nil {
		return row, err
	}
	return row, nil
}

func parseShare(cell, source string, rowNum, col int) (float64, error) {
	v, err := ParsePercent(cell)
	if err == nil {
		return v, nil
	}
	reason := "unparseable percentage"
	if errors.Is(err, ErrShareOutOfRange) {
		reason = "share outside [0, 100]"
	}
	return 0, &apierrors.ExtractionError{
		Source: source, Row: rowNum, Column: col, Value: cell,
		Reason: reason, Cause: err,
	}
}

// ErrShareOutOfRange reports a vote share below 0% or above 100%
var ErrShareOutOfRange = errors.New("share outside [0, 100]")

// ParsePercent parses a percentage cell such as "58.5%"; the trailing
// percent sign is optional. NaN, infinities and values outside [0, 100]
// are rejected.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("%w: %v", ErrShareOutOfRange, v)
	}
	return v, nil
}

// findTables returns the <table> elements whose class list contains class
func findTables(n *html.Node, class string) []*html.Node {
	var tables []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table && hasClass(n, class) {
			tables = append(tables, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return tables
}

func hasClass(n *html.Node, class string) bool {
	if class == "" {
		return true
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			return slices.Contains(strings.Fields(a.Val), class)
		}
	}
	return false
}

// tableRows returns the <tr> elements of table, not descending into nested tables
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				rows = append(rows, c)
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

// rowCells returns the trimmed text of each <td> of a row. Header cells are ignored.
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			cells = append(cells, strings.TrimSpace(textContent(c)))
		}
	}
	return cells
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
