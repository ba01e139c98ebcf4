package anyunit

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var b Binary
	serializer.RegisterTypedDeserializer(b.SerializerType(), DeserializeBinary)
}

// Binary is a group of Bernoulli units taking values in
// {0, 1}, with energy -theta*x per unit.
type Binary struct {
	UnitShape Shape
	Theta     *anydiff.Var
}

// DeserializeBinary deserializes a Binary layer.
func DeserializeBinary(d []byte) (*Binary, error) {
	var shape Shape
	var theta *anyvecsave.S
	if err := serializer.DeserializeAny(d, &shape, &theta); err != nil {
		return nil, essentials.AddCtx("deserialize Binary", err)
	}
	if shape.Len() != theta.Vector.Len() {
		return nil, errParamLength("deserialize Binary")
	}
	return &Binary{UnitShape: shape, Theta: anydiff.NewVar(theta.Vector)}, nil
}

// NewBinary creates a Binary layer with zero fields.
func NewBinary(c anyvec.Creator, shape ...int) *Binary {
	s := Shape(shape)
	return &Binary{
		UnitShape: append(Shape{}, s...),
		Theta:     anydiff.NewVar(c.MakeVector(s.Len())),
	}
}

// Shape returns the unit shape.
func (b *Binary) Shape() Shape {
	return b.UnitShape
}

// Parameters returns the fields.
func (b *Binary) Parameters() []*anydiff.Var {
	return []*anydiff.Var{b.Theta}
}

// ParameterNames returns the parameter names.
func (b *Binary) ParameterNames() []string {
	return []string{"theta"}
}

// Energy computes -theta.x for each configuration.
func (b *Binary) Energy(x anydiff.Res, n int) anydiff.Res {
	checkBatch(b, x, n)
	dots := SumPerSample(anydiff.Mul(x, repeat(b.Theta, n)), n)
	return anydiff.Scale(dots, dots.Output().Creator().MakeNumeric(-1))
}

// Effective creates the conditional distribution.
func (b *Binary) Effective(field anydiff.Res, beta float64, n int) Dist {
	return &binaryDist{
		Theta: effectiveParam(b.Theta, field, beta, n),
		N:     n,
	}
}

// InitFromData sets the fields so that the means match
// the data.
func (b *Binary) InitFromData(data anyvec.Vector, n int) {
	means := columnMeans(floats(data), n)
	for i, m := range means {
		m = math.Max(initEpsilon, math.Min(1-initEpsilon, m))
		means[i] = math.Log(m) - math.Log1p(-m)
	}
	b.Theta.Vector.Set(makeVector(data.Creator(), means))
}

// SerializerType returns the unique ID used to serialize
// a Binary layer with the serializer package.
func (b *Binary) SerializerType() string {
	return "github.com/unixpickle/anyrbm/anyunit.Binary"
}

// Serialize serializes the layer.
func (b *Binary) Serialize() ([]byte, error) {
	return serializer.SerializeAny(b.UnitShape, &anyvecsave.S{Vector: b.Theta.Vector})
}

type binaryDist struct {
	Theta anydiff.Res
	N     int
}

func (b *binaryDist) Num() int {
	return b.N
}

func (b *binaryDist) CGF() anydiff.Res {
	theta := floats(b.Theta.Output())
	out := make([]float64, len(theta))
	deriv := make([]float64, len(theta))
	for i, t := range theta {
		out[i] = softplus(t)
		deriv[i] = sigmoid(t)
	}
	return newKernelRes([]anydiff.Res{b.Theta}, 1, out, [][]float64{deriv})
}

func (b *binaryDist) Mean() anyvec.Vector {
	return b.mapTheta(sigmoid)
}

func (b *binaryDist) Var() anyvec.Vector {
	return b.mapTheta(func(t float64) float64 {
		return sigmoid(t) * sigmoid(-t)
	})
}

func (b *binaryDist) MeanAbs() anyvec.Vector {
	return b.Mean()
}

func (b *binaryDist) Mode() anyvec.Vector {
	return b.mapTheta(func(t float64) float64 {
		if t > 0 {
			return 1
		}
		return 0
	})
}

// Sample uses the inverse CDF of the logistic
// distribution.
func (b *binaryDist) Sample(gen *rand.Rand) anyvec.Vector {
	return b.mapTheta(func(t float64) float64 {
		u := gen.Float64()
		if math.Log(u)-math.Log1p(-u) < t {
			return 1
		}
		return 0
	})
}

func (b *binaryDist) mapTheta(f func(float64) float64) anyvec.Vector {
	theta := floats(b.Theta.Output())
	res := make([]float64, len(theta))
	for i, t := range theta {
		res[i] = f(t)
	}
	return makeVector(b.Theta.Output().Creator(), res)
}
