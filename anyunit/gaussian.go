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
	var g Gaussian
	serializer.RegisterTypedDeserializer(g.SerializerType(), DeserializeGaussian)
}

// Gaussian is a group of real-valued units with energy
// |gamma|*x^2/2 - theta*x per unit.
//
// The absolute value of Gamma is used everywhere, so
// gradient steps cannot make the distribution improper.
type Gaussian struct {
	UnitShape Shape
	Theta     *anydiff.Var
	Gamma     *anydiff.Var
}

// DeserializeGaussian deserializes a Gaussian layer.
func DeserializeGaussian(d []byte) (*Gaussian, error) {
	shape, params, err := deserializeQuadratic(d, 2)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Gaussian", err)
	}
	return &Gaussian{UnitShape: shape, Theta: params[0], Gamma: params[1]}, nil
}

// NewGaussian creates a standard normal Gaussian layer.
func NewGaussian(c anyvec.Creator, shape ...int) *Gaussian {
	s := append(Shape{}, shape...)
	return &Gaussian{
		UnitShape: s,
		Theta:     anydiff.NewVar(c.MakeVector(s.Len())),
		Gamma:     onesVar(c, s.Len()),
	}
}

// Shape returns the unit shape.
func (g *Gaussian) Shape() Shape {
	return g.UnitShape
}

// Parameters returns theta and gamma, in that order.
func (g *Gaussian) Parameters() []*anydiff.Var {
	return []*anydiff.Var{g.Theta, g.Gamma}
}

// ParameterNames returns the parameter names.
func (g *Gaussian) ParameterNames() []string {
	return []string{"theta", "gamma"}
}

// Energy computes the energy of each configuration.
func (g *Gaussian) Energy(x anydiff.Res, n int) anydiff.Res {
	checkBatch(g, x, n)
	return quadraticEnergy(x, repeat(g.Theta, n), repeat(g.Gamma, n), n)
}

// Effective creates the conditional distribution.
// The field is added to theta, and both parameters are
// scaled by beta.
func (g *Gaussian) Effective(field anydiff.Res, beta float64, n int) Dist {
	return &gaussianDist{
		Theta: effectiveParam(g.Theta, field, beta, n),
		Gamma: scaledParam(g.Gamma, beta, n),
		N:     n,
	}
}

// InitFromData matches the mean and variance of the data.
func (g *Gaussian) InitFromData(data anyvec.Vector, n int) {
	means := columnMeans(floats(data), n)
	vars := columnVars(floats(data), n)
	theta := make([]float64, len(means))
	gamma := make([]float64, len(means))
	for i, m := range means {
		gamma[i] = 1 / math.Max(vars[i], initEpsilon)
		theta[i] = m * gamma[i]
	}
	g.Theta.Vector.Set(makeVector(data.Creator(), theta))
	g.Gamma.Vector.Set(makeVector(data.Creator(), gamma))
}

// SerializerType returns the unique ID used to serialize
// a Gaussian layer with the serializer package.
func (g *Gaussian) SerializerType() string {
	return "github.com/unixpickle/anyrbm/anyunit.Gaussian"
}

// Serialize serializes the layer.
func (g *Gaussian) Serialize() ([]byte, error) {
	return serializeParams(g.UnitShape, g.Theta, g.Gamma)
}

type gaussianDist struct {
	Theta anydiff.Res
	Gamma anydiff.Res
	N     int
}

func (g *gaussianDist) Num() int {
	return g.N
}

func (g *gaussianDist) CGF() anydiff.Res {
	theta, gamma := floats(g.Theta.Output()), floats(g.Gamma.Output())
	out := make([]float64, len(theta))
	dTheta := make([]float64, len(theta))
	dGamma := make([]float64, len(theta))
	for i, t := range theta {
		prec := math.Abs(gamma[i])
		mean := t / prec
		out[i] = t*mean/2 + 0.5*math.Log(2*math.Pi/prec)
		dTheta[i] = mean
		dGamma[i] = -0.5 * (1/prec + mean*mean) * sign(gamma[i])
	}
	return newKernelRes([]anydiff.Res{g.Theta, g.Gamma}, 1, out,
		[][]float64{dTheta, dGamma})
}

func (g *gaussianDist) Mean() anyvec.Vector {
	return g.mapParams(func(t, prec float64) float64 {
		return t / prec
	})
}

func (g *gaussianDist) Var() anyvec.Vector {
	return g.mapParams(func(t, prec float64) float64 {
		return 1 / prec
	})
}

// MeanAbs computes the mean of the folded normal.
func (g *gaussianDist) MeanAbs() anyvec.Vector {
	return g.mapParams(func(t, prec float64) float64 {
		mean, std := t/prec, 1/math.Sqrt(prec)
		return std*math.Sqrt(2/math.Pi)*math.Exp(-mean*mean*prec/2) +
			mean*math.Erf(mean/(std*math.Sqrt2))
	})
}

func (g *gaussianDist) Mode() anyvec.Vector {
	return g.Mean()
}

func (g *gaussianDist) Sample(gen *rand.Rand) anyvec.Vector {
	return g.mapParams(func(t, prec float64) float64 {
		return t/prec + gen.NormFloat64()/math.Sqrt(prec)
	})
}

// SampleRes computes theta/gamma + z/sqrt(gamma), which is
// differentiable in theta and gamma.
func (g *gaussianDist) SampleRes(gen *rand.Rand) anydiff.Res {
	c := g.Theta.Output().Creator()
	noise := make([]float64, g.Theta.Output().Len())
	for i := range noise {
		noise[i] = gen.NormFloat64()
	}
	invStd := anydiff.Pow(g.Gamma, c.MakeNumeric(-0.5))
	return anydiff.Mul(
		invStd,
		anydiff.Add(
			anydiff.Mul(g.Theta, invStd),
			anydiff.NewConst(makeVector(c, noise)),
		),
	)
}

func (g *gaussianDist) mapParams(f func(theta, prec float64) float64) anyvec.Vector {
	theta, gamma := floats(g.Theta.Output()), floats(g.Gamma.Output())
	res := make([]float64, len(theta))
	for i, t := range theta {
		res[i] = f(t, math.Abs(gamma[i]))
	}
	return makeVector(g.Theta.Output().Creator(), res)
}
