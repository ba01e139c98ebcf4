package anytrunc

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mathext"
)

const (
	tiltedThreshold = 0.5
	maxNewtonSteps  = 100
)

// Sample draws a value from the truncated distribution.
//
// For a >= ExtremeThreshold (including +inf), a itself is
// returned.
// If a rejection sampler exceeds MaxRejections proposals,
// Mean(a) is returned instead of a random draw.
func Sample(a float64, gen *rand.Rand) float64 {
	switch {
	case math.IsNaN(a):
		return math.NaN()
	case a >= ExtremeThreshold:
		return a
	case a < tiltedThreshold:
		return naiveSample(a, gen)
	default:
		return a + tiltedExcess(a, gen)
	}
}

// SampleExcess draws x-a, where x is a sample from the
// truncated distribution.
//
// This retains precision for large a, where the excess
// is much smaller than the sample itself.
func SampleExcess(a float64, gen *rand.Rand) float64 {
	switch {
	case math.IsNaN(a):
		return math.NaN()
	case a >= ExtremeThreshold:
		return 0
	case a < tiltedThreshold:
		return naiveSample(a, gen) - a
	default:
		return tiltedExcess(a, gen)
	}
}

// SampleGrad draws a sample x using the inverse CDF of
// the truncated distribution, and also returns dx/da
// while holding the underlying uniform draw fixed.
//
// Exactly one uniform value is consumed from gen, so two
// generators with the same seed produce samples that vary
// smoothly with a.
func SampleGrad(a float64, gen *rand.Rand) (x, dxda float64) {
	switch {
	case math.IsNaN(a):
		return math.NaN(), math.NaN()
	case a >= ExtremeThreshold:
		return a, 1
	case math.IsInf(a, -1):
		return mathext.NormalQuantile(openUniform(gen)), 0
	}
	u := gen.Float64()
	if a < continuedFractionStart {
		x = invertLowTail(a, u)
	} else {
		x = invertHighTail(a, u)
	}
	if x <= a {
		return a, 1
	}
	return x, InvMills(a) / InvMills(x)
}

func naiveSample(a float64, gen *rand.Rand) float64 {
	for i := 0; i < MaxRejections; i++ {
		if x := gen.NormFloat64(); x >= a {
			return x
		}
	}
	return Mean(a)
}

// tiltedExcess implements Robert's exponential proposal
// sampler, returning the excess above a.
func tiltedExcess(a float64, gen *rand.Rand) float64 {
	rate := (a + math.Sqrt(a*a+4)) / 2
	rateExcess := 2 / (math.Sqrt(a*a+4) + a)
	for i := 0; i < MaxRejections; i++ {
		e := gen.ExpFloat64() / rate
		d := e - rateExcess
		if gen.Float64() <= math.Exp(-d*d/2) {
			return e
		}
	}
	return MeanShift(a)
}

func invertLowTail(a, u float64) float64 {
	q := upperTail(a)
	if p := lowerTail(a) + u*q; p < 0.5 {
		return mathext.NormalQuantile(p)
	}
	return -mathext.NormalQuantile((1 - u) * q)
}

// invertHighTail solves log Q(x) = log Q(a) + log(1-u)
// with Newton's method.
// Since log Q is concave and decreasing, the iterates
// approach the root from above after the first step.
func invertHighTail(a, u float64) float64 {
	target := LogUpperTail(a) + math.Log1p(-u)
	x := a
	for i := 0; i < maxNewtonSteps; i++ {
		step := (LogUpperTail(x) - target) / InvMills(x)
		x += step
		if math.Abs(step) <= 1e-15*math.Abs(x) {
			break
		}
	}
	return x
}

func openUniform(gen *rand.Rand) float64 {
	for {
		if u := gen.Float64(); u > 0 {
			return u
		}
	}
}
