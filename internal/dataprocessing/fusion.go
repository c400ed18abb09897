package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/AleksandrZin/google-election/internal/infrastructure"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// Join names used for coverage reporting
const (
	JoinGeoTerm1      = "geo.interest_1"
	JoinGeoTerm2      = "geo.interest_2"
	JoinTimelineTerm1 = "timeline.interest_1"
	JoinTimelineTerm2 = "timeline.interest_2"
)

// maxLoggedKeys caps the unmatched keys attached to a coverage warning
const maxLoggedKeys = 20

// FusionInput carries everything the fusion engine joins
type FusionInput struct {
	Election      []domain.ElectionRow
	GeoTerm1      []domain.TrendRow
	GeoTerm2      []domain.TrendRow
	TimelineTerm1 []domain.TrendRow
	TimelineTerm2 []domain.TrendRow
}

// FusionResult is the output of a fusion: both tables and every coverage gap
type FusionResult struct {
	Tables domain.FusedTables
	Gaps   []domain.CoverageGap
}

// GapCount returns the number of unmatched keys across all joins
func (r FusionResult) GapCount() int {
	n := 0
	for _, g := range r.Gaps {
		n += g.Count()
	}
	return n
}

// FusionEngine joins election rows with search-interest data
type FusionEngine struct {
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewFusionEngine creates a fusion engine. metrics may be nil.
func NewFusionEngine(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *FusionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &FusionEngine{
		logger:  logger.With(slog.String("component", "fusion")),
		metrics: metrics,
	}
}

// Fuse builds the geographic and timeline tables
func (f *FusionEngine) Fuse(ctx context.Context, in FusionInput) FusionResult {
	geo, geoGaps := f.FuseGeo(ctx, in.Election, in.GeoTerm1, in.GeoTerm2)
	timeline, tlGaps := f.FuseTimeline(ctx, in.TimelineTerm1, in.TimelineTerm2)

	return FusionResult{
		Tables: domain.FusedTables{Geo: geo, Timeline: timeline},
		Gaps:   append(geoGaps, tlGaps...),
	}
}

// FuseGeo left-joins election rows by long name against both geo exports.
// The election side is authoritative: unmatched regions keep a null
// interest and trend rows for unknown regions are dropped. A region that
// appears twice keeps its first row.
func (f *FusionEngine) FuseGeo(ctx context.Context, election []domain.ElectionRow, term1, term2 []domain.TrendRow) ([]domain.RegionRecord, []domain.CoverageGap) {
	idx1 := indexTrend(term1)
	idx2 := indexTrend(term2)

	gap1 := domain.CoverageGap{Join: JoinGeoTerm1}
	gap2 := domain.CoverageGap{Join: JoinGeoTerm2}

	records := make([]domain.RegionRecord, 0, len(election))
	seen := make(map[string]struct{}, len(election))
	var duplicates []string

	for _, row := range election {
		if _, dup := seen[row.Name]; dup {
			duplicates = append(duplicates, row.Name)
			continue
		}
		seen[row.Name] = struct{}{}

		rec := domain.RegionRecord{
			Abbreviation: row.Abbreviation,
			Name:         row.Name,
			PartyAShare:  row.ShareA,
			PartyBShare:  row.ShareB,
			Winner:       domain.Winner(row.ShareA, row.ShareB),
		}

		if v, ok := idx1[row.Name]; ok {
			rec.Interest1 = v
		} else {
			gap1.Keys = append(gap1.Keys, row.Name)
		}
		if v, ok := idx2[row.Name]; ok {
			rec.Interest2 = v
		} else {
			gap2.Keys = append(gap2.Keys, row.Name)
		}

		records = append(records, rec)
	}

	if len(duplicates) > 0 {
		f.logger.WarnContext(ctx, "Duplicate regions in election rows, keeping first",
			slog.Int("duplicate_count", len(duplicates)),
			slog.Any("duplicates", capKeys(duplicates)))
	}

	gaps := []domain.CoverageGap{gap1, gap2}
	f.reportGaps(ctx, gaps)

	f.logger.InfoContext(ctx, "Fused geographic table",
		slog.Int("regions", len(records)),
		slog.Int("trend_rows_term_1", len(term1)),
		slog.Int("trend_rows_term_2", len(term2)))

	return records, gaps
}

// FuseTimeline reshapes both timeline exports into tidy (date, term, interest)
// rows. Every date present in either export yields exactly two rows, term 1
// first. Dates follow the first export's order, then dates only the second
// export has, in its order.
func (f *FusionEngine) FuseTimeline(ctx context.Context, term1, term2 []domain.TrendRow) ([]domain.TimePoint, []domain.CoverageGap) {
	idx1 := indexTrend(term1)
	idx2 := indexTrend(term2)

	dates := make([]string, 0, len(term1)+len(term2))
	for _, r := range term1 {
		dates = append(dates, r.Key)
	}
	for _, r := range term2 {
		if _, ok := idx1[r.Key]; !ok {
			dates = append(dates, r.Key)
		}
	}

	gap1 := domain.CoverageGap{Join: JoinTimelineTerm1}
	gap2 := domain.CoverageGap{Join: JoinTimelineTerm2}

	points := make([]domain.TimePoint, 0, 2*len(dates))
	for _, date := range dates {
		v1, ok1 := idx1[date]
		if !ok1 {
			gap1.Keys = append(gap1.Keys, date)
		}
		v2, ok2 := idx2[date]
		if !ok2 {
			gap2.Keys = append(gap2.Keys, date)
		}

		points = append(points,
			domain.TimePoint{Date: date, Term: domain.Term1, Interest: v1},
			domain.TimePoint{Date: date, Term: domain.Term2, Interest: v2},
		)
	}

	gaps := []domain.CoverageGap{gap1, gap2}
	f.reportGaps(ctx, gaps)

	f.logger.InfoContext(ctx, "Fused timeline table",
		slog.Int("dates", len(dates)),
		slog.Int("points", len(points)))

	return points, gaps
}

// reportGaps logs and counts every non-empty gap
func (f *FusionEngine) reportGaps(ctx context.Context, gaps []domain.CoverageGap) {
	for _, g := range gaps {
		if g.Count() == 0 {
			continue
		}
		f.logger.WarnContext(ctx, "Join coverage gap",
			slog.String("join", g.Join),
			slog.Int("unmatched_count", g.Count()),
			slog.Any("unmatched_keys", capKeys(g.Keys)))
		infrastructure.RecordCoverageGap(ctx, f.metrics, g.Join, g.Count())
	}
}

// indexTrend maps keys to interest values. A present key with a null value
// is still a match.
func indexTrend(rows []domain.TrendRow) map[string]*float64 {
	idx := make(map[string]*float64, len(rows))
	for _, r := range rows {
		if _, ok := idx[r.Key]; !ok {
			idx[r.Key] = r.Interest
		}
	}
	return idx
}

func capKeys(keys []string) []string {
	if len(keys) > maxLoggedKeys {
		return keys[:maxLoggedKeys]
	}
	return keys
}
