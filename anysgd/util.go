package anysgd

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
)

// Shuffle shuffles a list of samples using gen, or the
// global source if gen is nil.
func Shuffle(s SampleList, gen *rand.Rand) {
	intn := rand.Intn
	if gen != nil {
		intn = gen.Intn
	}
	for i := 0; i < s.Len(); i++ {
		s.Swap(i, i+intn(s.Len()-i))
	}
}

// A ConstRater is a Rater which always returns the same
// constant learning rate.
type ConstRater float64

// Rate returns float64(c).
func (c ConstRater) Rate(epoch float64) float64 {
	return float64(c)
}

// An IterStopper stops after a fixed number of
// iterations.
type IterStopper struct {
	Remaining int
}

// Done decrements the remaining count, and reports if no
// iterations were left.
func (i *IterStopper) Done() bool {
	if i.Remaining <= 0 {
		return true
	}
	i.Remaining--
	return false
}

// GradFinite checks that every component of a gradient is
// finite.
//
// This only works for float64 creators.
func GradFinite(g anydiff.Grad) bool {
	for _, vec := range g {
		for _, x := range vec.Data().([]float64) {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

func scaleGrad(g anydiff.Grad, s float64) {
	for _, v := range g {
		v.Scale(v.Creator().MakeNumeric(s))
	}
}

func copyGrad(g anydiff.Grad) anydiff.Grad {
	res := anydiff.Grad{}
	for v, vec := range g {
		res[v] = vec.Copy()
	}
	return res
}

func valueOrDefault(value, def float64) float64 {
	if value == 0 {
		return def
	}
	return value
}
