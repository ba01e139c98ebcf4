package anyunit

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// kernelRes is the result of an element-wise numerical
// kernel whose partial derivatives were computed during
// the forward pass.
//
// Every input has the same length, and each output
// component depends on Group consecutive components of
// every input.
type kernelRes struct {
	Ins      []anydiff.Res
	Partials [][]float64
	Group    int
	OutVec   anyvec.Vector
	V        anydiff.VarSet
}

func newKernelRes(ins []anydiff.Res, group int, out []float64,
	partials [][]float64) *kernelRes {
	var vars []anydiff.VarSet
	for _, in := range ins {
		vars = append(vars, in.Vars())
	}
	return &kernelRes{
		Ins:      ins,
		Partials: partials,
		Group:    group,
		OutVec:   makeVector(ins[0].Output().Creator(), out),
		V:        anydiff.MergeVarSets(vars...),
	}
}

func (k *kernelRes) Output() anyvec.Vector {
	return k.OutVec
}

func (k *kernelRes) Vars() anydiff.VarSet {
	return k.V
}

func (k *kernelRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	upstream := floats(u)
	for i, in := range k.Ins {
		if !g.Intersects(in.Vars()) {
			continue
		}
		partials := k.Partials[i]
		down := make([]float64, len(partials))
		for j, p := range partials {
			down[j] = upstream[j/k.Group] * p
		}
		in.Propagate(makeVector(u.Creator(), down), g)
	}
}
