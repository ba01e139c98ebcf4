package anytrunc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestSampleMoments(t *testing.T) {
	gen := rand.New(rand.NewSource(1337))
	const n = 50000
	for _, a := range []float64{-2, 0, 0.7, 3, 20} {
		testSamplerMoments(t, "Sample", a, n, func() float64 {
			return Sample(a, gen)
		})
		testSamplerMoments(t, "SampleGrad", a, n, func() float64 {
			x, _ := SampleGrad(a, gen)
			return x
		})
	}
}

func TestSampleBounds(t *testing.T) {
	gen := rand.New(rand.NewSource(1))
	for _, a := range []float64{-5, 0.49, 0.5, 8, 1e5, 1e50} {
		for i := 0; i < 1000; i++ {
			if x := Sample(a, gen); x < a {
				t.Fatalf("a=%e: sample %e out of support", a, x)
			}
			if e := SampleExcess(a, gen); e < 0 {
				t.Fatalf("a=%e: negative excess %e", a, e)
			}
		}
	}
	for _, a := range []float64{1e100, 1e200, math.Inf(1)} {
		if x := Sample(a, gen); x != a {
			t.Errorf("a=%e: expected exact truncation point, got %e", a, x)
		}
		if x, d := SampleGrad(a, gen); x != a || d != 1 {
			t.Errorf("a=%e: unexpected gradient sample %e, %e", a, x, d)
		}
	}
	if !math.IsNaN(Sample(math.NaN(), gen)) {
		t.Error("NaN should propagate")
	}
}

func TestSampleGradFiniteDifference(t *testing.T) {
	const h = 1e-6
	for _, a := range []float64{-2, 0, 3, 4.9, 6, 50} {
		for seed := int64(0); seed < 20; seed++ {
			x1, deriv := SampleGrad(a, rand.New(rand.NewSource(seed)))
			x2, _ := SampleGrad(a+h, rand.New(rand.NewSource(seed)))
			approx := (x2 - x1) / h
			if math.Abs(approx-deriv) > 1e-4*math.Max(1, math.Abs(deriv)) {
				t.Errorf("a=%f seed=%d: expected derivative %f but got %f",
					a, seed, approx, deriv)
			}
		}
	}
}

func TestSampleResGradient(t *testing.T) {
	a := anydiff.NewVar(anyvec64.MakeVectorData([]float64{-1, 0.3, 2, 6.5}))
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return SampleRes(a, rand.New(rand.NewSource(42)))
		},
		V:     []*anydiff.Var{a},
		Delta: 1e-6,
		Prec:  1e-4,
	}
	checker.FullCheck(t)
}

func TestSampleRejectionCap(t *testing.T) {
	// Every normal proposal is 0, which lies below a.
	naive := rand.New(constSource(0))
	if x := Sample(0.3, naive); x != Mean(0.3) {
		t.Errorf("naive sampler: expected mean %f but got %f", Mean(0.3), x)
	}
	if e := SampleExcess(0.3, naive); e != Mean(0.3)-0.3 {
		t.Errorf("naive sampler: expected excess %f but got %f", Mean(0.3)-0.3, e)
	}

	// Uniform draws are just below 1, so every exponential
	// proposal fails the acceptance test.
	tilted := rand.New(constSource(1<<63 - 1<<40))
	for _, a := range []float64{0.5, 2, 30} {
		if x := Sample(a, tilted); math.Abs(x-Mean(a)) > 1e-12*math.Max(1, a) {
			t.Errorf("tilted sampler a=%f: expected mean %f but got %f", a, Mean(a), x)
		}
		if e := SampleExcess(a, tilted); e != MeanShift(a) {
			t.Errorf("tilted sampler a=%f: expected excess %f but got %f", a,
				MeanShift(a), e)
		}
	}
}

// constSource is a rand.Source which always produces the
// same value.
type constSource int64

func (c constSource) Int63() int64 {
	return int64(c)
}

func (c constSource) Seed(seed int64) {
}

func testSamplerMoments(t *testing.T, name string, a float64, n int, f func() float64) {
	var sum, sqSum float64
	for i := 0; i < n; i++ {
		x := f() - a
		sum += x
		sqSum += x * x
	}
	mean := sum / float64(n)
	variance := sqSum/float64(n) - mean*mean

	expectedMean := MeanShift(a)
	expectedVar := Var(a)
	if math.Abs(mean-expectedMean) > 5*math.Sqrt(expectedVar/float64(n)) {
		t.Errorf("%s a=%f: expected mean %f but got %f", name, a, a+expectedMean,
			a+mean)
	}
	if math.Abs(variance-expectedVar) > 0.05*expectedVar {
		t.Errorf("%s a=%f: expected variance %f but got %f", name, a,
			expectedVar, variance)
	}
}
