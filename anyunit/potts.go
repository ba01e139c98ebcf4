package anyunit

import (
	"errors"
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var p Potts
	serializer.RegisterTypedDeserializer(p.SerializerType(), DeserializePotts)
}

// Potts is a group of categorical units.
//
// The last dimension of the shape indexes the states of a
// site, and a configuration is one-hot along it.
// The energy of a configuration is -theta.x.
type Potts struct {
	UnitShape Shape
	Theta     *anydiff.Var
}

// DeserializePotts deserializes a Potts layer.
func DeserializePotts(d []byte) (*Potts, error) {
	var shape Shape
	var theta *anyvecsave.S
	if err := serializer.DeserializeAny(d, &shape, &theta); err != nil {
		return nil, essentials.AddCtx("deserialize Potts", err)
	}
	if len(shape) == 0 {
		return nil, errors.New("deserialize Potts: missing states dimension")
	}
	if shape.Len() != theta.Vector.Len() {
		return nil, errParamLength("deserialize Potts")
	}
	return &Potts{UnitShape: shape, Theta: anydiff.NewVar(theta.Vector)}, nil
}

// NewPotts creates a Potts layer with zero fields.
// The last entry of shape is the number of states.
func NewPotts(c anyvec.Creator, shape ...int) *Potts {
	if len(shape) == 0 {
		panic("Potts shape needs a states dimension")
	}
	s := append(Shape{}, shape...)
	return &Potts{
		UnitShape: s,
		Theta:     anydiff.NewVar(c.MakeVector(s.Len())),
	}
}

// Shape returns the unit shape.
func (p *Potts) Shape() Shape {
	return p.UnitShape
}

// States returns the number of states per site.
func (p *Potts) States() int {
	return p.UnitShape[len(p.UnitShape)-1]
}

// Parameters returns the fields.
func (p *Potts) Parameters() []*anydiff.Var {
	return []*anydiff.Var{p.Theta}
}

// ParameterNames returns the parameter names.
func (p *Potts) ParameterNames() []string {
	return []string{"theta"}
}

// Energy computes -theta.x for each configuration.
func (p *Potts) Energy(x anydiff.Res, n int) anydiff.Res {
	checkBatch(p, x, n)
	dots := SumPerSample(anydiff.Mul(x, repeat(p.Theta, n)), n)
	return anydiff.Scale(dots, dots.Output().Creator().MakeNumeric(-1))
}

// Effective creates the conditional distribution.
func (p *Potts) Effective(field anydiff.Res, beta float64, n int) Dist {
	return &pottsDist{
		Theta:  effectiveParam(p.Theta, field, beta, n),
		States: p.States(),
		N:      n,
	}
}

// InitFromData sets the fields to the log frequencies of
// each state in the data.
func (p *Potts) InitFromData(data anyvec.Vector, n int) {
	freqs := columnMeans(floats(data), n)
	for i, f := range freqs {
		freqs[i] = math.Log(math.Max(f, initEpsilon))
	}
	p.Theta.Vector.Set(makeVector(data.Creator(), freqs))
}

// SerializerType returns the unique ID used to serialize
// a Potts layer with the serializer package.
func (p *Potts) SerializerType() string {
	return "github.com/unixpickle/anyrbm/anyunit.Potts"
}

// Serialize serializes the layer.
func (p *Potts) Serialize() ([]byte, error) {
	return serializer.SerializeAny(p.UnitShape, &anyvecsave.S{Vector: p.Theta.Vector})
}

type pottsDist struct {
	Theta  anydiff.Res
	States int
	N      int
}

func (p *pottsDist) Num() int {
	return p.N
}

// CGF computes a log-sum-exp for each site.
func (p *pottsDist) CGF() anydiff.Res {
	theta := floats(p.Theta.Output())
	out := make([]float64, len(theta)/p.States)
	probs := p.softmax()
	for site := range out {
		out[site] = logSumExp(theta[site*p.States : (site+1)*p.States])
	}
	return newKernelRes([]anydiff.Res{p.Theta}, p.States, out, [][]float64{probs})
}

func (p *pottsDist) Mean() anyvec.Vector {
	return makeVector(p.Theta.Output().Creator(), p.softmax())
}

func (p *pottsDist) Var() anyvec.Vector {
	probs := p.softmax()
	for i, x := range probs {
		probs[i] = x * (1 - x)
	}
	return makeVector(p.Theta.Output().Creator(), probs)
}

func (p *pottsDist) MeanAbs() anyvec.Vector {
	return p.Mean()
}

func (p *pottsDist) Mode() anyvec.Vector {
	theta := floats(p.Theta.Output())
	return p.oneHot(func(site int) int {
		return argmax(theta[site*p.States : (site+1)*p.States])
	})
}

// Sample draws one state per site with the Gumbel-max
// trick.
func (p *pottsDist) Sample(gen *rand.Rand) anyvec.Vector {
	theta := floats(p.Theta.Output())
	perturbed := make([]float64, p.States)
	return p.oneHot(func(site int) int {
		for i, t := range theta[site*p.States : (site+1)*p.States] {
			perturbed[i] = t - math.Log(-math.Log(openUniform(gen)))
		}
		return argmax(perturbed)
	})
}

func (p *pottsDist) softmax() []float64 {
	theta := floats(p.Theta.Output())
	res := make([]float64, len(theta))
	for site := 0; site < len(theta)/p.States; site++ {
		start := site * p.States
		norm := logSumExp(theta[start : start+p.States])
		for i := start; i < start+p.States; i++ {
			res[i] = math.Exp(theta[i] - norm)
		}
	}
	return res
}

func (p *pottsDist) oneHot(choose func(site int) int) anyvec.Vector {
	res := make([]float64, p.Theta.Output().Len())
	for site := 0; site < len(res)/p.States; site++ {
		res[site*p.States+choose(site)] = 1
	}
	return makeVector(p.Theta.Output().Creator(), res)
}

func logSumExp(x []float64) float64 {
	max := math.Inf(-1)
	for _, v := range x {
		max = math.Max(max, v)
	}
	if math.IsInf(max, 0) {
		return max
	}
	var sum float64
	for _, v := range x {
		sum += math.Exp(v - max)
	}
	return max + math.Log(sum)
}

func argmax(x []float64) int {
	var res int
	for i, v := range x {
		if v > x[res] {
			res = i
		}
	}
	return res
}

func openUniform(gen *rand.Rand) float64 {
	for {
		if u := gen.Float64(); u > 0 {
			return u
		}
	}
}
