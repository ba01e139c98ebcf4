package anytrunc

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

type sampleRes struct {
	In     anydiff.Res
	OutVec anyvec.Vector
	Deriv  anyvec.Vector
}

// SampleRes draws one truncated normal sample per
// component of a, using the component as the truncation
// point.
//
// The result is differentiable with respect to a via the
// pathwise derivative reported by SampleGrad.
//
// This only works for float64 creators.
func SampleRes(a anydiff.Res, gen *rand.Rand) anydiff.Res {
	in := a.Output().Data().([]float64)
	out := make([]float64, len(in))
	deriv := make([]float64, len(in))
	for i, x := range in {
		out[i], deriv[i] = SampleGrad(x, gen)
	}
	c := a.Output().Creator()
	return &sampleRes{
		In:     a,
		OutVec: c.MakeVectorData(c.MakeNumericList(out)),
		Deriv:  c.MakeVectorData(c.MakeNumericList(deriv)),
	}
}

func (s *sampleRes) Output() anyvec.Vector {
	return s.OutVec
}

func (s *sampleRes) Vars() anydiff.VarSet {
	return s.In.Vars()
}

func (s *sampleRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	if g.Intersects(s.In.Vars()) {
		u.Mul(s.Deriv)
		s.In.Propagate(u, g)
	}
}
