package exporter

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// Sheet names of the exported workbook
const (
	GeoSheetName      = "geo"
	TimelineSheetName = "timeline"
)

// WorkbookWriter exports the fused tables as a two-sheet spreadsheet
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// Write builds the workbook in memory and swaps it onto path. Shares and
// interests are numeric cells; null interests are left blank.
func (w *WorkbookWriter) Write(path string, tables domain.FusedTables) error {
	f := excelize.NewFile()
	defer f.Close()

	// Replace default sheet with the geo sheet
	if err := f.SetSheetName(f.GetSheetName(0), GeoSheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRows(f, GeoSheetName, domain.GeoHeader, geoCells(tables.Geo)); err != nil {
		return err
	}

	if _, err := f.NewSheet(TimelineSheetName); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := writeRows(f, TimelineSheetName, domain.TimelineHeader, timelineCells(tables.Timeline)); err != nil {
		return err
	}

	staged, err := stageFile(path, func(tmp *os.File) error {
		_, err := f.WriteTo(tmp)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := staged.Commit(); err != nil {
		return err
	}

	w.logger.Info("Wrote workbook",
		slog.String("path", path),
		slog.Int("geo_rows", len(tables.Geo)),
		slog.Int("timeline_rows", len(tables.Timeline)))
	return nil
}

func writeRows(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func nullableCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func geoCells(geo []domain.RegionRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(geo))
	for _, r := range geo {
		rows = append(rows, []interface{}{
			r.Abbreviation,
			r.Name,
			r.PartyAShare,
			r.PartyBShare,
			nullableCell(r.Interest1),
			nullableCell(r.Interest2),
			string(r.Winner),
		})
	}
	return rows
}

func timelineCells(timeline []domain.TimePoint) [][]interface{} {
	rows := make([][]interface{}, 0, len(timeline))
	for _, p := range timeline {
		rows = append(rows, []interface{}{p.Date, string(p.Term), nullableCell(p.Interest)})
	}
	return rows
}
