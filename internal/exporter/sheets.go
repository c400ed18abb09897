package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// SheetsPublisher mirrors the fused tables into a Google spreadsheet, one
// tab per table. Each publish clears the tab before writing.
type SheetsPublisher struct {
	service       *sheets.Service
	spreadsheetID string
	geoSheet      string
	timelineSheet string
	logger        *slog.Logger
}

// SheetsOptions configures a SheetsPublisher
type SheetsOptions struct {
	SpreadsheetID string
	GeoSheet      string
	TimelineSheet string
	// ClientOptions are passed to the Sheets client, e.g. credentials or an endpoint
	ClientOptions []option.ClientOption
}

// NewSheetsPublisher creates a publisher for one spreadsheet
func NewSheetsPublisher(ctx context.Context, opts SheetsOptions, logger *slog.Logger) (*SheetsPublisher, error) {
	if opts.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.GeoSheet == "" {
		opts.GeoSheet = GeoSheetName
	}
	if opts.TimelineSheet == "" {
		opts.TimelineSheet = TimelineSheetName
	}

	service, err := sheets.NewService(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsPublisher{
		service:       service,
		spreadsheetID: opts.SpreadsheetID,
		geoSheet:      opts.GeoSheet,
		timelineSheet: opts.TimelineSheet,
		logger:        logger.With(slog.String("component", "sheets_publisher")),
	}, nil
}

// CredentialsFileOption authenticates with a service account key file
func CredentialsFileOption(path string) option.ClientOption {
	return option.WithCredentialsFile(path)
}

// Publish replaces the content of both tabs with the tables
func (p *SheetsPublisher) Publish(ctx context.Context, tables domain.FusedTables) error {
	if err := p.replace(ctx, p.geoSheet, domain.GeoHeader, GeoRecords(tables.Geo)); err != nil {
		return err
	}
	if err := p.replace(ctx, p.timelineSheet, domain.TimelineHeader, TimelineRecords(tables.Timeline)); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "Published tables to spreadsheet",
		slog.String("spreadsheet_id", p.spreadsheetID),
		slog.Int("geo_rows", len(tables.Geo)),
		slog.Int("timeline_rows", len(tables.Timeline)))
	return nil
}

func (p *SheetsPublisher) replace(ctx context.Context, sheet string, header []string, records [][]string) error {
	if _, err := p.service.Spreadsheets.Values.Clear(p.spreadsheetID, sheet, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", sheet, err)
	}

	values := make([][]interface{}, 0, len(records)+1)
	values = append(values, toInterfaces(header))
	for _, r := range records {
		values = append(values, toInterfaces(r))
	}

	rangeStr := fmt.Sprintf("%s!A1", sheet)
	if _, err := p.service.Spreadsheets.Values.Update(p.spreadsheetID, rangeStr, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update sheet %s: %w", sheet, err)
	}
	return nil
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
