package anytrunc

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/integrate/quad"
)

func TestMomentsQuadrature(t *testing.T) {
	for _, a := range []float64{-3, -1, 0, 0.5, 2, 4.5, 5.5, 10, 30, 99, 101, 300} {
		length := 40.0
		if a > 1 {
			length /= a
		}
		// Unnormalized density of the excess y = x - a.
		density := func(y float64) float64 {
			return math.Exp(-y * (y + 2*a) / 2)
		}
		norm := quad.Fixed(density, 0, length, 1000, nil, 0)
		shift := quad.Fixed(func(y float64) float64 {
			return y * density(y)
		}, 0, length, 1000, nil, 0) / norm
		variance := quad.Fixed(func(y float64) float64 {
			return (y - shift) * (y - shift) * density(y)
		}, 0, length, 1000, nil, 0) / norm

		if actual := MeanShift(a); math.Abs(actual-shift) > 1e-8*shift {
			t.Errorf("a=%f: expected shift %e but got %e", a, shift, actual)
		}
		if actual := Var(a); math.Abs(actual-variance) > 1e-7*variance {
			t.Errorf("a=%f: expected variance %e but got %e", a, variance, actual)
		}
		if actual := Mean(a); math.Abs(actual-(a+shift)) > 1e-8*math.Max(1, math.Abs(a)) {
			t.Errorf("a=%f: expected mean %e but got %e", a, a+shift, actual)
		}
	}
}

func TestRegimeContinuity(t *testing.T) {
	for _, a := range []float64{continuedFractionStart, AsymptoticThreshold} {
		below := math.Nextafter(a, math.Inf(-1))
		for name, f := range map[string]func(float64) float64{
			"Mean":        Mean,
			"MeanShift":   MeanShift,
			"Var":         Var,
			"LogInvMills": LogInvMills,
		} {
			x, y := f(below), f(a)
			if math.Abs(x-y) > 1e-9*math.Abs(y) {
				t.Errorf("%s discontinuous at %f: %e vs %e", name, a, x, y)
			}
		}
	}
	cf := continuedFractionShift(AsymptoticThreshold)
	asym := asymptoticShift(AsymptoticThreshold)
	if math.Abs(cf-asym) > 1e-14*asym {
		t.Errorf("series mismatch: %e vs %e", cf, asym)
	}
}

func TestExtremeInputs(t *testing.T) {
	for _, a := range []float64{-1e300, -40, 40, 1e10, 1e200, 1e300} {
		m, v := Mean(a), Var(a)
		if math.IsNaN(m) || math.IsInf(m, 0) {
			t.Errorf("a=%e: bad mean %f", a, m)
		}
		if m < a {
			t.Errorf("a=%e: mean %e below truncation point", a, m)
		}
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Errorf("a=%e: bad variance %e", a, v)
		}
		if s := Std(a); math.Abs(s*s-v) > 1e-12*math.Max(v, 1e-300) {
			t.Errorf("a=%e: std %e does not match variance %e", a, s, v)
		}
	}
	if !math.IsNaN(Mean(math.NaN())) || !math.IsNaN(Var(math.NaN())) ||
		!math.IsNaN(Std(math.NaN())) {
		t.Error("NaN should propagate")
	}
	if !math.IsInf(Mean(math.Inf(1)), 1) || Var(math.Inf(1)) != 0 || Std(math.Inf(1)) != 0 {
		t.Error("bad moments at +inf")
	}
	if Mean(math.Inf(-1)) != 0 || Var(math.Inf(-1)) != 1 || Std(math.Inf(-1)) != 1 {
		t.Error("bad moments at -inf")
	}
}

func TestLogInvMills(t *testing.T) {
	for _, a := range []float64{-20, -3, 0, 1, 4.9, 5.1, 50, 1000} {
		expected := math.Log(InvMills(a))
		actual := LogInvMills(a)
		if math.Abs(actual-expected) > 1e-12*math.Max(1, math.Abs(expected)) {
			t.Errorf("a=%f: expected %f but got %f", a, expected, actual)
		}
	}
	if actual := LogInvMills(-100); math.IsInf(actual, 0) || math.IsNaN(actual) {
		t.Errorf("unexpected value for -100: %f", actual)
	}
}
