package anyunit

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var d DReLU
	serializer.RegisterTypedDeserializer(d.SerializerType(), DeserializeDReLU)
}

// DReLU is a group of double-sided rectified Gaussian
// units.
// The energy of a unit is
//
//	|gp|*xp^2/2 - tp*xp + |gn|*xn^2/2 - tn*xn
//
// where xp = max(x, 0) and xn = min(x, 0).
type DReLU struct {
	UnitShape Shape
	ThetaPos  *anydiff.Var
	ThetaNeg  *anydiff.Var
	GammaPos  *anydiff.Var
	GammaNeg  *anydiff.Var
}

// DeserializeDReLU deserializes a DReLU layer.
func DeserializeDReLU(d []byte) (*DReLU, error) {
	shape, params, err := deserializeQuadratic(d, 4)
	if err != nil {
		return nil, essentials.AddCtx("deserialize DReLU", err)
	}
	return &DReLU{
		UnitShape: shape,
		ThetaPos:  params[0],
		ThetaNeg:  params[1],
		GammaPos:  params[2],
		GammaNeg:  params[3],
	}, nil
}

// NewDReLU creates a DReLU layer with zero thetas and unit
// gammas, which is equivalent to a standard normal.
func NewDReLU(c anyvec.Creator, shape ...int) *DReLU {
	s := append(Shape{}, shape...)
	return &DReLU{
		UnitShape: s,
		ThetaPos:  anydiff.NewVar(c.MakeVector(s.Len())),
		ThetaNeg:  anydiff.NewVar(c.MakeVector(s.Len())),
		GammaPos:  onesVar(c, s.Len()),
		GammaNeg:  onesVar(c, s.Len()),
	}
}

// Shape returns the unit shape.
func (d *DReLU) Shape() Shape {
	return d.UnitShape
}

// Parameters returns the positive and negative thetas,
// followed by the positive and negative gammas.
func (d *DReLU) Parameters() []*anydiff.Var {
	return []*anydiff.Var{d.ThetaPos, d.ThetaNeg, d.GammaPos, d.GammaNeg}
}

// ParameterNames returns the parameter names.
func (d *DReLU) ParameterNames() []string {
	return []string{"theta_pos", "theta_neg", "gamma_pos", "gamma_neg"}
}

// Energy computes the energy of each configuration.
func (d *DReLU) Energy(x anydiff.Res, n int) anydiff.Res {
	checkBatch(d, x, n)
	params := []anydiff.Res{
		repeat(d.ThetaPos, n),
		repeat(d.ThetaNeg, n),
		repeat(d.GammaPos, n),
		repeat(d.GammaNeg, n),
	}
	xs := floats(x.Output())
	tp, tn := floats(params[0].Output()), floats(params[1].Output())
	gp, gn := floats(params[2].Output()), floats(params[3].Output())

	out := make([]float64, len(xs))
	partials := make([][]float64, 5)
	for i := range partials {
		partials[i] = make([]float64, len(xs))
	}
	for i, v := range xs {
		if v >= 0 {
			prec := math.Abs(gp[i])
			out[i] = prec*v*v/2 - tp[i]*v
			partials[0][i] = prec*v - tp[i]
			partials[1][i] = -v
			partials[3][i] = sign(gp[i]) * v * v / 2
		} else {
			prec := math.Abs(gn[i])
			out[i] = prec*v*v/2 - tn[i]*v
			partials[0][i] = prec*v - tn[i]
			partials[2][i] = -v
			partials[4][i] = sign(gn[i]) * v * v / 2
		}
	}
	k := newKernelRes(append([]anydiff.Res{x}, params...), 1, out, partials)
	return SumPerSample(k, n)
}

// Effective creates the conditional distribution.
// The field is added to both thetas, and all parameters
// are scaled by beta.
func (d *DReLU) Effective(field anydiff.Res, beta float64, n int) Dist {
	return &dreluDist{
		ThetaPos: effectiveParam(d.ThetaPos, field, beta, n),
		ThetaNeg: effectiveParam(d.ThetaNeg, field, beta, n),
		GammaPos: scaledParam(d.GammaPos, beta, n),
		GammaNeg: scaledParam(d.GammaNeg, beta, n),
		N:        n,
	}
}

// SerializerType returns the unique ID used to serialize
// a DReLU layer with the serializer package.
func (d *DReLU) SerializerType() string {
	return "github.com/unixpickle/anyrbm/anyunit.DReLU"
}

// Serialize serializes the layer.
func (d *DReLU) Serialize() ([]byte, error) {
	return serializeParams(d.UnitShape, d.ThetaPos, d.ThetaNeg, d.GammaPos,
		d.GammaNeg)
}

// twoSided splits a dReLU unit into a positive half and
// a mirrored negative half.
// The negative half describes -xn, so both halves are
// supported on [0, inf).
type twoSided struct {
	Pos halfNormal
	Neg halfNormal

	// Resp is the probability of the positive half.
	Resp float64
	CGF  float64
}

func newTwoSided(tp, tn, gp, gn float64) twoSided {
	pos := newHalfNormal(tp, gp)
	neg := newHalfNormal(-tn, gn)
	cp, cn := pos.CGF(), neg.CGF()
	cgf := logAddExp(cp, cn)
	return twoSided{Pos: pos, Neg: neg, Resp: math.Exp(cp - cgf), CGF: cgf}
}

func (t twoSided) Mean() float64 {
	return t.Resp*t.Pos.Mean() - (1-t.Resp)*t.Neg.Mean()
}

func (t twoSided) Var() float64 {
	second := t.Resp*t.Pos.SecondMoment() + (1-t.Resp)*t.Neg.SecondMoment()
	mean := t.Mean()
	return math.Max(0, second-mean*mean)
}

func (t twoSided) MeanAbs() float64 {
	return t.Resp*t.Pos.Mean() + (1-t.Resp)*t.Neg.Mean()
}

// Mode picks the half whose mode has the lower energy.
func (t twoSided) Mode() float64 {
	pos, neg := t.Pos.Mode(), t.Neg.Mode()
	posEnergy := -pos * pos * t.Pos.Prec / 2
	negEnergy := -neg * neg * t.Neg.Prec / 2
	if posEnergy <= negEnergy {
		return pos
	}
	return -neg
}

func (t twoSided) Sample(gen *rand.Rand) float64 {
	if gen.Float64() < t.Resp {
		return t.Pos.Sample(gen)
	}
	return -t.Neg.Sample(gen)
}

type dreluDist struct {
	ThetaPos anydiff.Res
	ThetaNeg anydiff.Res
	GammaPos anydiff.Res
	GammaNeg anydiff.Res
	N        int
}

func (d *dreluDist) Num() int {
	return d.N
}

// CGF combines the two halves with a log-sum-exp, so its
// gradient is a responsibility-weighted combination of
// the half-normal identities.
func (d *dreluDist) CGF() anydiff.Res {
	gp, gn := floats(d.GammaPos.Output()), floats(d.GammaNeg.Output())
	out := make([]float64, len(gp))
	partials := make([][]float64, 4)
	for i := range partials {
		partials[i] = make([]float64, len(gp))
	}
	d.forEach(func(i int, t twoSided) {
		out[i] = t.CGF
		partials[0][i] = t.Resp * t.Pos.Mean()
		partials[1][i] = -(1 - t.Resp) * t.Neg.Mean()
		partials[2][i] = -0.5 * t.Resp * t.Pos.SecondMoment() * sign(gp[i])
		partials[3][i] = -0.5 * (1 - t.Resp) * t.Neg.SecondMoment() * sign(gn[i])
	})
	ins := []anydiff.Res{d.ThetaPos, d.ThetaNeg, d.GammaPos, d.GammaNeg}
	return newKernelRes(ins, 1, out, partials)
}

func (d *dreluDist) Mean() anyvec.Vector {
	return d.mapUnits(twoSided.Mean)
}

func (d *dreluDist) Var() anyvec.Vector {
	return d.mapUnits(twoSided.Var)
}

func (d *dreluDist) MeanAbs() anyvec.Vector {
	return d.mapUnits(twoSided.MeanAbs)
}

func (d *dreluDist) Mode() anyvec.Vector {
	return d.mapUnits(twoSided.Mode)
}

func (d *dreluDist) Sample(gen *rand.Rand) anyvec.Vector {
	return d.mapUnits(func(t twoSided) float64 {
		return t.Sample(gen)
	})
}

func (d *dreluDist) forEach(f func(i int, t twoSided)) {
	tp, tn := floats(d.ThetaPos.Output()), floats(d.ThetaNeg.Output())
	gp, gn := floats(d.GammaPos.Output()), floats(d.GammaNeg.Output())
	for i := range tp {
		f(i, newTwoSided(tp[i], tn[i], gp[i], gn[i]))
	}
}

func (d *dreluDist) mapUnits(f func(t twoSided) float64) anyvec.Vector {
	res := make([]float64, d.ThetaPos.Output().Len())
	d.forEach(func(i int, t twoSided) {
		res[i] = f(t)
	})
	return makeVector(d.ThetaPos.Output().Creator(), res)
}
