package stats

import (
	"errors"
	"math"
)

// Alpha is the significance level of every comparison
const Alpha = 0.05

// Conclusion phrases. A p-value equal to Alpha is not significant.
const (
	ConclusionNoDifference = "no statistically significant difference"
	ConclusionDifference   = "is a statistically significant difference"
)

var (
	// ErrEmptySample is returned when a sample has no values
	ErrEmptySample = errors.New("sample has no values")
	// ErrZeroVariance is returned when a sample has no spread
	ErrZeroVariance = errors.New("sample has zero variance")
)

// Summary describes one sample
type Summary struct {
	N        int
	Mean     float64
	Variance float64 // sample variance (n-1 denominator), 0 when N < 2
}

// Describe computes count, mean and sample variance with Welford's method
func Describe(values []float64) Summary {
	var (
		n    int
		mean float64
		m2   float64
	)
	for _, x := range values {
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}

	s := Summary{N: n, Mean: mean}
	if n > 1 {
		s.Variance = m2 / float64(n-1)
	}
	return s
}

// TTestResult is the outcome of a two-sample t-test
type TTestResult struct {
	Statistic        float64
	PValue           float64
	DegreesOfFreedom int
	A                Summary
	B                Summary
}

// Significant reports whether the p-value is strictly below Alpha
func (r TTestResult) Significant() bool {
	return Significant(r.PValue)
}

// PooledTTest runs a two-sided, independent two-sample t-test assuming equal
// variances. The statistic is positive when mean(a) > mean(b).
//
// A sample with no values fails with ErrEmptySample. A sample with zero
// variance, which includes every single-value sample, fails with
// ErrZeroVariance. The returned index tells which sample failed: 0 for a,
// 1 for b.
func PooledTTest(a, b []float64) (TTestResult, int, error) {
	sa, sb := Describe(a), Describe(b)

	for i, s := range []Summary{sa, sb} {
		if s.N == 0 {
			return TTestResult{}, i, ErrEmptySample
		}
		if s.Variance == 0 {
			return TTestResult{}, i, ErrZeroVariance
		}
	}

	df := sa.N + sb.N - 2
	pooled := (float64(sa.N-1)*sa.Variance + float64(sb.N-1)*sb.Variance) / float64(df)
	se := math.Sqrt(pooled * (1/float64(sa.N) + 1/float64(sb.N)))
	t := (sa.Mean - sb.Mean) / se

	return TTestResult{
		Statistic:        t,
		PValue:           StudentTTwoSided(t, float64(df)),
		DegreesOfFreedom: df,
		A:                sa,
		B:                sb,
	}, -1, nil
}

// Significant reports whether p is strictly below Alpha
func Significant(p float64) bool {
	return p < Alpha
}

// Conclusion maps a p-value to its conclusion phrase
func Conclusion(p float64) string {
	if Significant(p) {
		return ConclusionDifference
	}
	return ConclusionNoDifference
}
