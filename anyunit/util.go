package anyunit

import (
	"errors"
	"math"
)

const initEpsilon = 1e-4

func errParamLength(ctx string) error {
	return errors.New(ctx + ": parameter length does not match shape")
}

func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	if x > 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func logAddExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	} else if math.IsInf(b, -1) {
		return a
	}
	m := math.Max(a, b)
	return m + math.Log(math.Exp(a-m)+math.Exp(b-m))
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// columnMeans averages a packed batch of n samples
// component-wise.
func columnMeans(data []float64, n int) []float64 {
	size := len(data) / n
	res := make([]float64, size)
	for i, x := range data {
		res[i%size] += x
	}
	for i := range res {
		res[i] /= float64(n)
	}
	return res
}

// columnVars computes the component-wise variance of a
// packed batch of n samples.
func columnVars(data []float64, n int) []float64 {
	means := columnMeans(data, n)
	res := make([]float64, len(means))
	for i, x := range data {
		d := x - means[i%len(means)]
		res[i%len(means)] += d * d
	}
	for i := range res {
		res[i] /= float64(n)
	}
	return res
}
