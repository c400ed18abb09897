// Package stats compares search interest between regions grouped by election
// outcome with a pooled-variance two-sample t-test.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/internal/infrastructure"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// Engine runs comparisons over a geographic table
type Engine struct {
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewEngine creates a comparison engine. metrics may be nil.
func NewEngine(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:  logger.With(slog.String("component", "stats")),
		metrics: metrics,
	}
}

// Groups partitions the non-null interest values for term by winner
func Groups(geo []domain.RegionRecord, term domain.TermID) (a, b []float64) {
	for _, r := range geo {
		v := r.Interest(term)
		if v == nil {
			continue
		}
		if r.Winner == domain.PartyA {
			a = append(a, *v)
		} else {
			b = append(b, *v)
		}
	}
	return a, b
}

// Compare tests whether regions won by PartyA and regions won by PartyB
// differ in mean interest for term. Empty or zero-variance groups fail with
// an InsufficientDataError.
func (e *Engine) Compare(ctx context.Context, geo []domain.RegionRecord, term domain.TermID) (domain.Comparison, error) {
	if !term.Valid() {
		return domain.Comparison{}, fmt.Errorf("unknown term %q", term)
	}

	a, b := Groups(geo, term)
	res, failed, err := PooledTTest(a, b)
	if err != nil {
		group, count := domain.PartyA, len(a)
		if failed == 1 {
			group, count = domain.PartyB, len(b)
		}
		reason := "no eligible samples"
		if errors.Is(err, ErrZeroVariance) {
			reason = "zero variance"
		}

		e.logger.WarnContext(ctx, "Comparison not computable",
			slog.String("term", string(term)),
			slog.String("group", string(group)),
			slog.Int("count", count),
			slog.String("reason", reason))

		return domain.Comparison{}, &apierrors.InsufficientDataError{
			Term: term, Group: group, Count: count, Reason: reason,
		}
	}

	c := domain.Comparison{
		Term:             term,
		TermLabel:        term.Label(),
		Statistic:        res.Statistic,
		PValue:           res.PValue,
		MeanGroupA:       res.A.Mean,
		MeanGroupB:       res.B.Mean,
		CountGroupA:      res.A.N,
		CountGroupB:      res.B.N,
		DegreesOfFreedom: res.DegreesOfFreedom,
		Significant:      res.Significant(),
		Conclusion:       Conclusion(res.PValue),
	}
	c.Summary = Narrative(c)

	infrastructure.RecordComparison(ctx, e.metrics, string(term), c.Significant)
	e.logger.InfoContext(ctx, "Comparison computed",
		slog.String("term", string(term)),
		slog.Float64("statistic", c.Statistic),
		slog.Float64("p_value", c.PValue),
		slog.Int("df", c.DegreesOfFreedom),
		slog.Bool("significant", c.Significant))

	return c, nil
}

// Narrative renders a comparison as the lines shown next to the charts.
// Group A regions are "blue states", group B regions "red states".
func Narrative(c domain.Comparison) []string {
	verdict := "There is no statistically significant difference"
	if c.Significant {
		verdict = "There is a statistically significant difference"
	}
	return []string{
		fmt.Sprintf("Average interest in blue states: %.2f", c.MeanGroupA),
		fmt.Sprintf("Average interest in red states: %.2f", c.MeanGroupB),
		"Null hypothesis: both groups have identical average interest, assuming equal variances.",
		fmt.Sprintf("p-value: %.3f", c.PValue),
		fmt.Sprintf("Conclusion: %s in Google searches between red and blue states.", verdict),
	}
}
