// Package anyunit implements groups of units for
// bipartite energy models.
//
// Each unit group is an exponential family whose
// parameters are learnable anydiff variables.
// Given an external field and an inverse temperature, a
// group yields a Dist with closed-form cumulant
// generating functions, moments and samplers.
//
// The numerical kernels in this package only work for
// float64 creators.
package anyunit

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var s Shape
	serializer.RegisterTypedDeserializer(s.SerializerType(), DeserializeShape)
}

// Shape is the shape of a group of units.
// Units are stored in row-major order.
type Shape []int

// DeserializeShape deserializes a Shape.
func DeserializeShape(d []byte) (Shape, error) {
	slice, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Shape", err)
	}
	res := make(Shape, len(slice))
	for i, x := range slice {
		if dim, ok := x.(serializer.Int); ok {
			res[i] = int(dim)
		} else {
			return nil, fmt.Errorf("deserialize Shape: not an Int: %T", x)
		}
	}
	return res, nil
}

// Len returns the total number of units.
func (s Shape) Len() int {
	res := 1
	for _, x := range s {
		res *= x
	}
	return res
}

// Equal checks if two shapes are identical.
func (s Shape) Equal(s1 Shape) bool {
	if len(s) != len(s1) {
		return false
	}
	for i, x := range s {
		if s1[i] != x {
			return false
		}
	}
	return true
}

// Concat produces the shape s ++ s1.
func (s Shape) Concat(s1 Shape) Shape {
	return append(append(Shape{}, s...), s1...)
}

// SerializerType returns the unique ID used to serialize
// a Shape with the serializer package.
func (s Shape) SerializerType() string {
	return "github.com/unixpickle/anyrbm/anyunit.Shape"
}

// Serialize serializes the Shape.
func (s Shape) Serialize() ([]byte, error) {
	slice := make([]serializer.Serializer, len(s))
	for i, x := range s {
		slice[i] = serializer.Int(x)
	}
	return serializer.SerializeSlice(slice)
}

// A Layer is a group of units of the same family.
//
// A Layer's methods are batched: a batch of n
// configurations is packed into one vector, sample after
// sample.
type Layer interface {
	// Shape returns the shape of the unit group.
	Shape() Shape

	// Parameters returns the learnable parameters.
	// Each parameter has one entry per unit, and the order
	// is the same every time.
	Parameters() []*anydiff.Var

	// ParameterNames returns one name per parameter.
	ParameterNames() []string

	// Energy computes the energy of each configuration in
	// a batch of n configurations.
	// The result has n components.
	Energy(x anydiff.Res, n int) anydiff.Res

	// Effective creates the distribution of the units for
	// n samples, where the parameters are combined with the
	// field (which has one entry per unit per sample) and
	// scaled by the inverse temperature beta.
	//
	// A nil field is treated as a zero field.
	// The Layer itself is never modified.
	Effective(field anydiff.Res, beta float64, n int) Dist
}

// A Dist is a batch of factorized distributions, one per
// sample, produced by Layer.Effective.
type Dist interface {
	// Num returns the number of samples in the batch.
	Num() int

	// CGF computes the cumulant generating function for
	// every unit of every sample.
	// For Potts units, there is one value per site rather
	// than per state.
	//
	// The gradient of the result with respect to the
	// natural parameters is the mean of the sufficient
	// statistics.
	CGF() anydiff.Res

	Mean() anyvec.Vector
	Var() anyvec.Vector
	MeanAbs() anyvec.Vector
	Mode() anyvec.Vector

	// Sample draws one configuration per sample.
	Sample(gen *rand.Rand) anyvec.Vector
}

// A Reparameterizer is a Dist that can produce samples
// which are differentiable with respect to the effective
// parameters.
type Reparameterizer interface {
	Dist
	SampleRes(gen *rand.Rand) anydiff.Res
}

// A DataInitializer is a Layer which can set its
// parameters to match the moments of a dataset.
type DataInitializer interface {
	Layer

	// InitFromData sets the parameters from a packed
	// batch of n configurations.
	InitFromData(data anyvec.Vector, n int)
}

// CGF computes the total cumulant generating function of
// a layer with no external field, summed over all units.
func CGF(l Layer) float64 {
	return floatSum(l.Effective(nil, 1, 1).CGF().Output())
}

// Mean computes the mean of every unit in a layer with no
// external field.
func Mean(l Layer) anyvec.Vector {
	return l.Effective(nil, 1, 1).Mean()
}

// Var computes the variance of every unit in a layer with
// no external field.
func Var(l Layer) anyvec.Vector {
	return l.Effective(nil, 1, 1).Var()
}

// SumPerSample sums the components of each sample in a
// packed batch, producing n components.
func SumPerSample(x anydiff.Res, n int) anydiff.Res {
	return anydiff.SumCols(&anydiff.Matrix{
		Data: x,
		Rows: n,
		Cols: x.Output().Len() / n,
	})
}

// effectiveParam computes beta*(param + field), where the
// parameter is repeated for every sample.
func effectiveParam(param *anydiff.Var, field anydiff.Res, beta float64,
	n int) anydiff.Res {
	res := repeat(param, n)
	if field != nil {
		if field.Output().Len() != res.Output().Len() {
			panic(fmt.Sprintf("field length should be %d, but got %d",
				res.Output().Len(), field.Output().Len()))
		}
		res = anydiff.Add(res, field)
	}
	if beta == 1 {
		return res
	}
	return anydiff.Scale(res, res.Output().Creator().MakeNumeric(beta))
}

// scaledParam computes beta*param, repeated for every
// sample.
func scaledParam(param *anydiff.Var, beta float64, n int) anydiff.Res {
	return effectiveParam(param, nil, beta, n)
}

func repeat(v anydiff.Res, n int) anydiff.Res {
	c := v.Output().Creator()
	return anydiff.AddRepeated(anydiff.NewConst(c.MakeVector(v.Output().Len()*n)), v)
}

func checkBatch(l Layer, x anydiff.Res, n int) {
	if x.Output().Len() != n*l.Shape().Len() {
		panic(fmt.Sprintf("input length should be %d, but got %d",
			n*l.Shape().Len(), x.Output().Len()))
	}
}

func floats(v anyvec.Vector) []float64 {
	return v.Data().([]float64)
}

func floatSum(v anyvec.Vector) float64 {
	var sum float64
	for _, x := range floats(v) {
		sum += x
	}
	return sum
}

func makeVector(c anyvec.Creator, data []float64) anyvec.Vector {
	return c.MakeVectorData(c.MakeNumericList(data))
}
