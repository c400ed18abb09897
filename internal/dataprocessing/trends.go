package dataprocessing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// DefaultHeaderLines is the boilerplate length of a search-interest export
const DefaultHeaderLines = 3

// belowOne is how exports mark interest too small to report
const belowOne = "<1"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TrendLoader reads two-column search-interest exports
type TrendLoader struct {
	headerLines int
	logger      *slog.Logger
}

// NewTrendLoader creates a loader that skips headerLines raw lines before the body
func NewTrendLoader(headerLines int, logger *slog.Logger) *TrendLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if headerLines < 0 {
		headerLines = 0
	}
	return &TrendLoader{
		headerLines: headerLines,
		logger:      logger.With(slog.String("component", "trend_loader")),
	}
}

// LoadFile loads the export described by src
func (l *TrendLoader) LoadFile(ctx context.Context, src domain.TrendSource) ([]domain.TrendRow, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, &apierrors.ExtractionError{Source: src.Path, Reason: "open trend export", Cause: err}
	}
	defer f.Close()

	rows, err := l.Load(ctx, f, src.Path, src.Schema)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Loaded trend export",
		slog.String("source", src.Path),
		slog.String("term", string(src.Term)),
		slog.String("schema", string(src.Schema)),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// Load skips the header lines of r and reads exactly two columns per body
// line: a key (region label or opaque date) and an interest score. Empty
// scores are null and "<1" reads as 0. Keys must be unique within a source.
func (l *TrendLoader) Load(ctx context.Context, r io.Reader, source string, schema domain.TrendSchema) ([]domain.TrendRow, error) {
	if schema != domain.SchemaGeo && schema != domain.SchemaTimeline {
		return nil, fmt.Errorf("unknown trend schema %q", schema)
	}

	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	// Raw lines, not CSV records: the boilerplate contains blank lines that
	// the CSV reader would silently swallow.
	for i := 0; i < l.headerLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, &apierrors.ExtractionError{
				Source: source, Row: i + 1,
				Reason: fmt.Sprintf("export ends inside its %d-line header", l.headerLines),
				Cause:  err,
			}
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var rows []domain.TrendRow
	seen := make(map[string]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line + l.headerLines
			}
			return nil, &apierrors.ExtractionError{
				Source: source, Row: line,
				Reason: "expected exactly two columns", Cause: err,
			}
		}
		line, _ := cr.FieldPos(0)
		line += l.headerLines

		key := strings.TrimSpace(record[0])
		if key == "" {
			return nil, &apierrors.ExtractionError{Source: source, Row: line, Column: 1, Reason: "empty key"}
		}
		if _, dup := seen[key]; dup {
			return nil, &apierrors.ExtractionError{Source: source, Row: line, Column: 1, Value: key, Reason: "duplicate key"}
		}
		seen[key] = struct{}{}

		interest, err := ParseInterest(record[1])
		if err != nil {
			return nil, &apierrors.ExtractionError{
				Source: source, Row: line, Column: 2, Value: record[1],
				Reason: "unparseable interest score", Cause: err,
			}
		}

		rows = append(rows, domain.TrendRow{Key: key, Interest: interest})
	}

	return rows, nil
}

// ParseInterest parses a search-interest score. Blank is null, "<1" is 0,
// anything else must be a number in [0, 100].
func ParseInterest(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, nil
	case belowOne:
		return domain.Float(0), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if !(v >= 0 && v <= 100) {
		return nil, fmt.Errorf("score %v outside [0, 100]", v)
	}
	return &v, nil
}
