package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.N)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 32.0/7.0, s.Variance, 1e-12)

	single := Describe([]float64{3})
	assert.Equal(t, 1, single.N)
	assert.Equal(t, 0.0, single.Variance)

	assert.Equal(t, Summary{}, Describe(nil))
}

func TestStudentTTwoSided(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		df   float64
		want float64
	}{
		{name: "zero statistic", t: 0, df: 5, want: 1},
		{name: "cauchy at one", t: 1, df: 1, want: 0.5},
		{name: "df 2 closed form", t: 2, df: 2, want: 1 - 2/math.Sqrt(6)},
		{name: "df 2 negative t", t: -2, df: 2, want: 1 - 2/math.Sqrt(6)},
		{name: "df 8", t: 2, df: 8, want: 0.0805162},
		{name: "df 10", t: 2, df: 10, want: 0.0733880},
		{name: "critical value df 30", t: 2.042272, df: 30, want: 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, StudentTTwoSided(tt.t, tt.df), 1e-5)
		})
	}

	assert.Equal(t, 0.0, StudentTTwoSided(math.Inf(1), 4))
	assert.True(t, math.IsNaN(StudentTTwoSided(1, 0)))
}

func TestRegularizedIncompleteBeta(t *testing.T) {
	// I_x(1, 1) is the uniform CDF
	for _, x := range []float64{0.1, 0.5, 0.9} {
		assert.InDelta(t, x, RegularizedIncompleteBeta(1, 1, x), 1e-12)
	}
	// I_x(a, 1) = x^a
	assert.InDelta(t, math.Pow(0.3, 2.5), RegularizedIncompleteBeta(2.5, 1, 0.3), 1e-12)
	assert.Equal(t, 0.0, RegularizedIncompleteBeta(2, 3, 0))
	assert.Equal(t, 1.0, RegularizedIncompleteBeta(2, 3, 1))
}

func TestPooledTTest(t *testing.T) {
	res, failed, err := PooledTTest([]float64{1, 2, 3, 4, 5}, []float64{3, 4, 5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, -1, failed)

	assert.InDelta(t, -2.0, res.Statistic, 1e-12)
	assert.Equal(t, 8, res.DegreesOfFreedom)
	assert.InDelta(t, 0.0805162, res.PValue, 1e-5)
	assert.Equal(t, 3.0, res.A.Mean)
	assert.Equal(t, 5.0, res.B.Mean)
	assert.False(t, res.Significant())
}

func TestPooledTTestUnequalSizes(t *testing.T) {
	// pooled variance 5.6, se = sqrt(5.6 * (1/3 + 1/4))
	res, _, err := PooledTTest([]float64{48, 50, 52}, []float64{27, 29, 31, 33})
	require.NoError(t, err)

	se := math.Sqrt((2*4.0 + 3*(20.0/3.0)) / 5 * (1.0/3 + 1.0/4))
	assert.InDelta(t, 20/se, res.Statistic, 1e-9)
	assert.Equal(t, 5, res.DegreesOfFreedom)
	assert.True(t, res.Significant())
}

func TestPooledTTestDegenerate(t *testing.T) {
	tests := []struct {
		name       string
		a, b       []float64
		wantErr    error
		wantFailed int
	}{
		{name: "empty a", a: nil, b: []float64{1, 2}, wantErr: ErrEmptySample, wantFailed: 0},
		{name: "empty b", a: []float64{1, 2}, b: []float64{}, wantErr: ErrEmptySample, wantFailed: 1},
		{name: "constant a", a: []float64{4, 4, 4}, b: []float64{1, 2}, wantErr: ErrZeroVariance, wantFailed: 0},
		{name: "single value b", a: []float64{1, 2}, b: []float64{9}, wantErr: ErrZeroVariance, wantFailed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, failed, err := PooledTTest(tt.a, tt.b)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}

func TestConclusionBoundary(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{p: 0.0001, want: ConclusionDifference},
		{p: math.Nextafter(Alpha, 0), want: ConclusionDifference},
		{p: 0.05, want: ConclusionNoDifference},
		{p: math.Nextafter(Alpha, 1), want: ConclusionNoDifference},
		{p: 0.8, want: ConclusionNoDifference},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Conclusion(tt.p), "p=%v", tt.p)
	}
	assert.Equal(t, "no statistically significant difference", ConclusionNoDifference)
	assert.Equal(t, "is a statistically significant difference", ConclusionDifference)
}
