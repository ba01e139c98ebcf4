package anyunit

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyrbm/anytrunc"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var r ReLU
	serializer.RegisterTypedDeserializer(r.SerializerType(), DeserializeReLU)
}

// ReLU is a group of rectified Gaussian units, which take
// non-negative values with energy |gamma|*x^2/2 - theta*x.
//
// Each unit is a rescaled standard normal truncated to
// [-theta/sqrt(gamma), inf).
type ReLU struct {
	UnitShape Shape
	Theta     *anydiff.Var
	Gamma     *anydiff.Var
}

// DeserializeReLU deserializes a ReLU layer.
func DeserializeReLU(d []byte) (*ReLU, error) {
	shape, params, err := deserializeQuadratic(d, 2)
	if err != nil {
		return nil, essentials.AddCtx("deserialize ReLU", err)
	}
	return &ReLU{UnitShape: shape, Theta: params[0], Gamma: params[1]}, nil
}

// NewReLU creates a ReLU layer with theta=0 and gamma=1.
func NewReLU(c anyvec.Creator, shape ...int) *ReLU {
	s := append(Shape{}, shape...)
	return &ReLU{
		UnitShape: s,
		Theta:     anydiff.NewVar(c.MakeVector(s.Len())),
		Gamma:     onesVar(c, s.Len()),
	}
}

// Shape returns the unit shape.
func (r *ReLU) Shape() Shape {
	return r.UnitShape
}

// Parameters returns theta and gamma, in that order.
func (r *ReLU) Parameters() []*anydiff.Var {
	return []*anydiff.Var{r.Theta, r.Gamma}
}

// ParameterNames returns the parameter names.
func (r *ReLU) ParameterNames() []string {
	return []string{"theta", "gamma"}
}

// Energy computes the energy of each configuration.
// Configurations must be non-negative.
func (r *ReLU) Energy(x anydiff.Res, n int) anydiff.Res {
	checkBatch(r, x, n)
	return quadraticEnergy(x, repeat(r.Theta, n), repeat(r.Gamma, n), n)
}

// Effective creates the conditional distribution.
// The field is added to theta, and both parameters are
// scaled by beta.
func (r *ReLU) Effective(field anydiff.Res, beta float64, n int) Dist {
	return &reluDist{
		Theta: effectiveParam(r.Theta, field, beta, n),
		Gamma: scaledParam(r.Gamma, beta, n),
		N:     n,
	}
}

// SerializerType returns the unique ID used to serialize
// a ReLU layer with the serializer package.
func (r *ReLU) SerializerType() string {
	return "github.com/unixpickle/anyrbm/anyunit.ReLU"
}

// Serialize serializes the layer.
func (r *ReLU) Serialize() ([]byte, error) {
	return serializeParams(r.UnitShape, r.Theta, r.Gamma)
}

// halfNormal summarizes one rectified Gaussian unit in
// terms of the truncation point a = -theta/sqrt(gamma).
type halfNormal struct {
	A      float64
	InvStd float64
	Prec   float64
}

func newHalfNormal(theta, gamma float64) halfNormal {
	prec := math.Abs(gamma)
	invStd := 1 / math.Sqrt(prec)
	return halfNormal{A: -theta * invStd, InvStd: invStd, Prec: prec}
}

func (h halfNormal) CGF() float64 {
	return -anytrunc.LogInvMills(h.A) - 0.5*math.Log(h.Prec)
}

func (h halfNormal) Mean() float64 {
	return anytrunc.MeanShift(h.A) * h.InvStd
}

func (h halfNormal) Var() float64 {
	return anytrunc.Var(h.A) / h.Prec
}

// SecondMoment computes E[x^2].
func (h halfNormal) SecondMoment() float64 {
	return anytrunc.SecondMoment(h.A) / h.Prec
}

func (h halfNormal) Mode() float64 {
	return math.Max(0, -h.A*h.InvStd)
}

func (h halfNormal) Sample(gen *rand.Rand) float64 {
	return anytrunc.SampleExcess(h.A, gen) * h.InvStd
}

type reluDist struct {
	Theta anydiff.Res
	Gamma anydiff.Res
	N     int
}

func (r *reluDist) Num() int {
	return r.N
}

// CGF uses the identities d/dtheta = E[x] and
// d/dgamma = -E[x^2]/2.
func (r *reluDist) CGF() anydiff.Res {
	theta, gamma := floats(r.Theta.Output()), floats(r.Gamma.Output())
	out := make([]float64, len(theta))
	dTheta := make([]float64, len(theta))
	dGamma := make([]float64, len(theta))
	for i, t := range theta {
		h := newHalfNormal(t, gamma[i])
		out[i] = h.CGF()
		dTheta[i] = h.Mean()
		dGamma[i] = -0.5 * h.SecondMoment() * sign(gamma[i])
	}
	return newKernelRes([]anydiff.Res{r.Theta, r.Gamma}, 1, out,
		[][]float64{dTheta, dGamma})
}

func (r *reluDist) Mean() anyvec.Vector {
	return r.mapUnits(halfNormal.Mean)
}

func (r *reluDist) Var() anyvec.Vector {
	return r.mapUnits(halfNormal.Var)
}

func (r *reluDist) MeanAbs() anyvec.Vector {
	return r.Mean()
}

func (r *reluDist) Mode() anyvec.Vector {
	return r.mapUnits(halfNormal.Mode)
}

func (r *reluDist) Sample(gen *rand.Rand) anyvec.Vector {
	return r.mapUnits(func(h halfNormal) float64 {
		return h.Sample(gen)
	})
}

// SampleRes draws samples through the pathwise gradient
// of the truncated normal sampler.
// Gamma must be positive.
func (r *reluDist) SampleRes(gen *rand.Rand) anydiff.Res {
	c := r.Theta.Output().Creator()
	invStd := anydiff.Pow(r.Gamma, c.MakeNumeric(-0.5))
	a := anydiff.Scale(anydiff.Mul(r.Theta, invStd), c.MakeNumeric(-1))
	return anydiff.Mul(anydiff.Sub(anytrunc.SampleRes(a, gen), a), invStd)
}

func (r *reluDist) mapUnits(f func(h halfNormal) float64) anyvec.Vector {
	theta, gamma := floats(r.Theta.Output()), floats(r.Gamma.Output())
	res := make([]float64, len(theta))
	for i, t := range theta {
		res[i] = f(newHalfNormal(t, gamma[i]))
	}
	return makeVector(r.Theta.Output().Creator(), res)
}
