// Package anytrunc implements the standard normal
// distribution truncated to the interval [a, inf).
//
// All functions remain finite and accurate for large
// truncation points, where naive formulas based on
// the normal CDF underflow.
// NaN inputs produce NaN outputs.
package anytrunc

import "math"

const (
	// AsymptoticThreshold is the truncation point above
	// which moments are computed with asymptotic series.
	AsymptoticThreshold = 100.0

	// ExtremeThreshold is the truncation point above which
	// samplers return the truncation point itself.
	ExtremeThreshold = 1e100

	// MaxRejections bounds the number of proposals drawn
	// by a rejection sampler before it falls back to the
	// mean of the distribution.
	MaxRejections = 1000

	continuedFractionStart = 5.0
	continuedFractionTerms = 200
)

var logSqrt2Pi = 0.5 * math.Log(2*math.Pi)

// InvMills computes the inverse Mills ratio phi(a)/Q(a),
// where phi is the standard normal density and Q is the
// upper tail probability.
// This is also the mean of the truncated distribution.
func InvMills(a float64) float64 {
	switch {
	case math.IsNaN(a):
		return math.NaN()
	case math.IsInf(a, -1):
		return 0
	case math.IsInf(a, 1):
		return math.Inf(1)
	case a < continuedFractionStart:
		return normalDensity(a) / upperTail(a)
	default:
		return a + MeanShift(a)
	}
}

// LogInvMills computes log(InvMills(a)).
// It is finite whenever a is finite.
func LogInvMills(a float64) float64 {
	switch {
	case math.IsNaN(a):
		return math.NaN()
	case math.IsInf(a, -1):
		return math.Inf(-1)
	case math.IsInf(a, 1):
		return math.Inf(1)
	case a < continuedFractionStart:
		return -a*a/2 - logSqrt2Pi - math.Log(upperTail(a))
	default:
		return math.Log(a + MeanShift(a))
	}
}

// MeanShift computes Mean(a) - a without cancellation.
func MeanShift(a float64) float64 {
	switch {
	case math.IsNaN(a):
		return math.NaN()
	case math.IsInf(a, -1):
		return math.Inf(1)
	case math.IsInf(a, 1):
		return 0
	case a < continuedFractionStart:
		return InvMills(a) - a
	case a < AsymptoticThreshold:
		return continuedFractionShift(a)
	default:
		return asymptoticShift(a)
	}
}

// Mean computes the mean of the truncated distribution.
//
// For a = -inf, the distribution is untruncated and the
// mean is 0.
func Mean(a float64) float64 {
	switch {
	case math.IsInf(a, 1):
		return a
	case a < continuedFractionStart:
		return InvMills(a)
	default:
		return a + MeanShift(a)
	}
}

// Var computes the variance of the truncated
// distribution.
// The result always lies in [0, 1].
func Var(a float64) float64 {
	switch {
	case math.IsNaN(a):
		return math.NaN()
	case math.IsInf(a, -1):
		return 1
	case math.IsInf(a, 1):
		return 0
	case a >= AsymptoticThreshold:
		return asymptoticVar(a)
	}
	lambda := InvMills(a)
	return clampUnit(1 - lambda*MeanShift(a))
}

// Std computes the standard deviation of the truncated
// distribution.
func Std(a float64) float64 {
	return math.Sqrt(Var(a))
}

// SecondMoment computes E[(x-a)^2], the second moment of
// the excess above the truncation point.
func SecondMoment(a float64) float64 {
	if math.IsInf(a, -1) {
		return math.Inf(1)
	}
	d := MeanShift(a)
	return Var(a) + d*d
}

// LogUpperTail computes log(Q(a)), the log probability
// that a standard normal exceeds a.
func LogUpperTail(a float64) float64 {
	switch {
	case math.IsNaN(a):
		return math.NaN()
	case math.IsInf(a, 1):
		return math.Inf(-1)
	case a < continuedFractionStart:
		return math.Log(upperTail(a))
	default:
		return -a*a/2 - logSqrt2Pi - LogInvMills(a)
	}
}

func continuedFractionShift(a float64) float64 {
	// 1/(a + 2/(a + 3/(a + ...))), evaluated from the tail.
	t := a
	for k := continuedFractionTerms; k >= 2; k-- {
		t = a + float64(k)/t
	}
	return 1 / t
}

func asymptoticShift(a float64) float64 {
	t := 1 / (a * a)
	return (1 - t*(2-t*(10-t*(74-t*706)))) / a
}

func asymptoticVar(a float64) float64 {
	t := 1 / (a * a)
	return clampUnit(t * (1 - t*(6-t*(50-t*(518-t*6354)))))
}

func normalDensity(x float64) float64 {
	return math.Exp(-x*x/2 - logSqrt2Pi)
}

func upperTail(a float64) float64 {
	return 0.5 * math.Erfc(a/math.Sqrt2)
}

func lowerTail(a float64) float64 {
	return 0.5 * math.Erfc(-a/math.Sqrt2)
}

func clampUnit(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
