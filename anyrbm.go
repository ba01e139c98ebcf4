// Package anyrbm implements restricted Boltzmann machines
// on top of anydiff.
//
// A model couples a visible and a hidden unit group
// (see the anyunit package) through a weight tensor.
// Energies and free energies are differentiable, so
// models can be trained by differentiating a
// contrastive divergence objective (see the anycd
// package).
package anyrbm

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyrbm/anyunit"
	"github.com/unixpickle/anyvec"
)

// A DimensionError indicates that a tensor did not have
// the shape that an operation required.
//
// Constructors return a *DimensionError, while methods
// that build anydiff graphs panic with one.
type DimensionError struct {
	Op       string
	Expected []int
	Actual   []int
}

// Error returns a descriptive message.
func (d *DimensionError) Error() string {
	return fmt.Sprintf("%s: expected dimensions %v but got %v", d.Op, d.Expected,
		d.Actual)
}

// RBM is a bipartite energy model.
//
// The weights are stored row-major with the shape
// Visible.Shape() ++ Hidden.Shape().
// Configurations are passed in packed batches of n
// samples, one sample after another.
type RBM struct {
	Visible anyunit.Layer
	Hidden  anyunit.Layer
	Weights *anydiff.Var
}

// NewRBM creates a model from existing layers and weights.
//
// The shape must equal the concatenation of the layer
// shapes, and the weights must contain one entry per
// element of the shape.
func NewRBM(visible, hidden anyunit.Layer, weights anyvec.Vector,
	shape anyunit.Shape) (*RBM, error) {
	expected := visible.Shape().Concat(hidden.Shape())
	if !expected.Equal(shape) {
		return nil, &DimensionError{Op: "new RBM", Expected: expected, Actual: shape}
	}
	if weights.Len() != expected.Len() {
		return nil, &DimensionError{
			Op:       "new RBM",
			Expected: []int{expected.Len()},
			Actual:   []int{weights.Len()},
		}
	}
	return &RBM{
		Visible: visible,
		Hidden:  hidden,
		Weights: anydiff.NewVar(weights),
	}, nil
}

// NewRBMZero creates a model with zero weights.
func NewRBMZero(c anyvec.Creator, visible, hidden anyunit.Layer) *RBM {
	return &RBM{
		Visible: visible,
		Hidden:  hidden,
		Weights: anydiff.NewVar(c.MakeVector(visible.Shape().Len() *
			hidden.Shape().Len())),
	}
}

// NewRBMRand creates a model with normally distributed
// weights of the given standard deviation.
func NewRBMRand(c anyvec.Creator, visible, hidden anyunit.Layer, std float64,
	gen *rand.Rand) *RBM {
	res := NewRBMZero(c, visible, hidden)
	anyvec.Rand(res.Weights.Vector, anyvec.Normal, gen)
	res.Weights.Vector.Scale(c.MakeNumeric(std))
	return res
}

// WeightShape returns the shape of the weight tensor.
func (r *RBM) WeightShape() anyunit.Shape {
	return r.Visible.Shape().Concat(r.Hidden.Shape())
}

// Interaction returns the bilinear coupling between the
// two layers.
func (r *RBM) Interaction() *Interaction {
	return &Interaction{
		Weights: r.Weights,
		VisLen:  r.Visible.Shape().Len(),
		HidLen:  r.Hidden.Shape().Len(),
	}
}

// Energy computes the joint energy
//
//	E_V(v) + E_H(h) - v^T*W*h
//
// for n pairs of configurations.
func (r *RBM) Energy(v, h anydiff.Res, n int) anydiff.Res {
	r.checkBatch(v, h, n)
	return anydiff.Sub(
		anydiff.Add(r.Visible.Energy(v, n), r.Hidden.Energy(h, n)),
		r.Interaction().Coupling(v, h, n),
	)
}

// HiddenInputs computes the field that n visible
// configurations exert on the hidden units.
func (r *RBM) HiddenInputs(v anydiff.Res, n int) anydiff.Res {
	return r.Interaction().HiddenField(v, n, nil)
}

// HiddenInputsSubset is like HiddenInputs, but it only
// computes the fields for the selected hidden units.
func (r *RBM) HiddenInputsSubset(v anydiff.Res, n int, subset []int) anydiff.Res {
	return r.Interaction().HiddenField(v, n, subset)
}

// VisibleInputs computes the field that n hidden
// configurations exert on the visible units.
func (r *RBM) VisibleInputs(h anydiff.Res, n int) anydiff.Res {
	return r.Interaction().VisibleField(h, n, nil)
}

// VisibleInputsSubset is like VisibleInputs, but it only
// computes the fields for the selected visible units.
func (r *RBM) VisibleInputsSubset(h anydiff.Res, n int, subset []int) anydiff.Res {
	return r.Interaction().VisibleField(h, n, subset)
}

// FreeEnergy computes the free energy of n visible
// configurations at inverse temperature beta, which is
//
//	E_V(v) - cgf(beta*(params_H + field(v)))/beta
//
// The hidden units are marginalized exactly.
func (r *RBM) FreeEnergy(v anydiff.Res, n int, beta float64) anydiff.Res {
	return freeEnergy(r.Visible, r.Hidden, v, r.HiddenInputs(v, n), n, beta)
}

// FreeEnergyHidden is like FreeEnergy, but it marginalizes
// the visible units for n hidden configurations.
func (r *RBM) FreeEnergyHidden(h anydiff.Res, n int, beta float64) anydiff.Res {
	return freeEnergy(r.Hidden, r.Visible, h, r.VisibleInputs(h, n), n, beta)
}

func freeEnergy(kept, marginal anyunit.Layer, x, field anydiff.Res, n int,
	beta float64) anydiff.Res {
	cgf := anyunit.SumPerSample(marginal.Effective(field, beta, n).CGF(), n)
	if beta != 1 {
		cgf = anydiff.Scale(cgf, cgf.Output().Creator().MakeNumeric(1/beta))
	}
	return anydiff.Sub(kept.Energy(x, n), cgf)
}

// HiddenDist computes the conditional distribution of the
// hidden units given n visible configurations.
func (r *RBM) HiddenDist(v anyvec.Vector, n int, beta float64) anyunit.Dist {
	return r.Hidden.Effective(r.HiddenInputs(anydiff.NewConst(v), n), beta, n)
}

// VisibleDist computes the conditional distribution of
// the visible units given n hidden configurations.
func (r *RBM) VisibleDist(h anyvec.Vector, n int, beta float64) anyunit.Dist {
	return r.Visible.Effective(r.VisibleInputs(anydiff.NewConst(h), n), beta, n)
}

// Parameters returns the parameters of the visible layer,
// then those of the hidden layer, then the weights.
func (r *RBM) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	res = append(res, r.Visible.Parameters()...)
	res = append(res, r.Hidden.Parameters()...)
	return append(res, r.Weights)
}

// A NamedParameter pairs a parameter with a stable name.
type NamedParameter struct {
	Name string
	Var  *anydiff.Var
}

// NamedParameters returns the same parameters as
// Parameters, with names like "visible.theta".
func (r *RBM) NamedParameters() []NamedParameter {
	var res []NamedParameter
	for _, layer := range []struct {
		prefix string
		layer  anyunit.Layer
	}{{"visible", r.Visible}, {"hidden", r.Hidden}} {
		names := layer.layer.ParameterNames()
		for i, p := range layer.layer.Parameters() {
			res = append(res, NamedParameter{Name: layer.prefix + "." + names[i], Var: p})
		}
	}
	return append(res, NamedParameter{Name: "weights", Var: r.Weights})
}

// Flip creates a model with the visible and hidden layers
// swapped.
//
// The layers are shared, while the weights are copied
// into the transposed layout.
// Flipping twice reproduces the original model.
func (r *RBM) Flip() *RBM {
	transposed := anydiff.Transpose(&anydiff.Matrix{
		Data: r.Weights,
		Rows: r.Visible.Shape().Len(),
		Cols: r.Hidden.Shape().Len(),
	})
	return &RBM{
		Visible: r.Hidden,
		Hidden:  r.Visible,
		Weights: anydiff.NewVar(transposed.Data.Output().Copy()),
	}
}

func (r *RBM) checkBatch(v, h anydiff.Res, n int) {
	vl, hl := r.Visible.Shape().Len(), r.Hidden.Shape().Len()
	if v.Output().Len() != n*vl || h.Output().Len() != n*hl {
		panic(&DimensionError{
			Op:       "energy",
			Expected: []int{n * vl, n * hl},
			Actual:   []int{v.Output().Len(), h.Output().Len()},
		})
	}
}
