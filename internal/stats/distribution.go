package stats

import "math"

const (
	betacfMaxIter = 300
	betacfEpsilon = 3e-16
	betacfTiny    = 1e-300
)

// StudentTTwoSided returns P(|T| >= |t|) for a Student-t variable with df
// degrees of freedom.
func StudentTTwoSided(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	x := df / (df + t*t)
	return RegularizedIncompleteBeta(df/2, 0.5, x)
}

// RegularizedIncompleteBeta evaluates I_x(a, b) for a, b > 0 and x in [0, 1]
func RegularizedIncompleteBeta(a, b, x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}

	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	front := math.Exp(lab - la - lb + a*math.Log(x) + b*math.Log1p(-x))

	// The continued fraction converges fast only below the mean of the
	// distribution; use the symmetry I_x(a,b) = 1 - I_{1-x}(b,a) above it.
	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction evaluates the continued fraction of I_x(a, b) with
// the modified Lentz method.
func betaContinuedFraction(a, b, x float64) float64 {
	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < betacfTiny {
		d = betacfTiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= betacfMaxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		// even step
		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < betacfTiny {
			d = betacfTiny
		}
		c = 1 + aa/c
		if math.Abs(c) < betacfTiny {
			c = betacfTiny
		}
		d = 1 / d
		h *= d * c

		// odd step
		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < betacfTiny {
			d = betacfTiny
		}
		c = 1 + aa/c
		if math.Abs(c) < betacfTiny {
			c = betacfTiny
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < betacfEpsilon {
			break
		}
	}
	return h
}
