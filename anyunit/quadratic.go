package anyunit

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/serializer"
)

// quadraticEnergy computes |gamma|*x^2/2 - theta*x for
// each unit, summed per sample.
func quadraticEnergy(x, theta, gamma anydiff.Res, n int) anydiff.Res {
	xs := floats(x.Output())
	thetas, gammas := floats(theta.Output()), floats(gamma.Output())
	out := make([]float64, len(xs))
	dx := make([]float64, len(xs))
	dTheta := make([]float64, len(xs))
	dGamma := make([]float64, len(xs))
	for i, v := range xs {
		prec := math.Abs(gammas[i])
		out[i] = prec*v*v/2 - thetas[i]*v
		dx[i] = prec*v - thetas[i]
		dTheta[i] = -v
		dGamma[i] = sign(gammas[i]) * v * v / 2
	}
	k := newKernelRes([]anydiff.Res{x, theta, gamma}, 1, out,
		[][]float64{dx, dTheta, dGamma})
	return SumPerSample(k, n)
}

func deserializeQuadratic(d []byte, numParams int) (Shape, []*anydiff.Var, error) {
	var shape Shape
	saved := make([]*anyvecsave.S, numParams)
	dests := []interface{}{&shape}
	for i := range saved {
		dests = append(dests, &saved[i])
	}
	if err := serializer.DeserializeAny(d, dests...); err != nil {
		return nil, nil, err
	}
	params := make([]*anydiff.Var, numParams)
	for i, s := range saved {
		if s.Vector.Len() != shape.Len() {
			return nil, nil, errParamLength("deserialize")
		}
		params[i] = anydiff.NewVar(s.Vector)
	}
	return shape, params, nil
}

func serializeParams(shape Shape, params ...*anydiff.Var) ([]byte, error) {
	objs := []interface{}{shape}
	for _, p := range params {
		objs = append(objs, &anyvecsave.S{Vector: p.Vector})
	}
	return serializer.SerializeAny(objs...)
}

func onesVar(c anyvec.Creator, size int) *anydiff.Var {
	v := c.MakeVector(size)
	v.AddScalar(c.MakeNumeric(1))
	return anydiff.NewVar(v)
}
