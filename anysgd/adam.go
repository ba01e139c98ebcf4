package anysgd

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

const (
	adamDefaultDecayRate1 = 0.9
	adamDefaultDecayRate2 = 0.999
	adamDefaultDamping    = 1e-8
)

// Adam implements the adaptive moment estimation
// optimizer from https://arxiv.org/abs/1412.6980.
//
// The moment estimates are keyed by variable, so one
// Adam instance should be used per training run.
type Adam struct {
	// DecayRate1 and DecayRate2 are the decay rates of the
	// first and second moment estimates.
	// If they are 0, the defaults from the paper are used.
	DecayRate1, DecayRate2 float64

	// Damping is added to the root of the second moment to
	// prevent divisions by zero.
	// If it is 0, a default is used.
	Damping float64

	moments map[*anydiff.Var]*adamMoments
	steps   float64
}

type adamMoments struct {
	First  anyvec.Vector
	Second anyvec.Vector
}

// Transform replaces every gradient with the bias
// corrected ratio of the moment estimates.
func (a *Adam) Transform(g anydiff.Grad) anydiff.Grad {
	if a.moments == nil {
		a.moments = map[*anydiff.Var]*adamMoments{}
	}
	decay1 := valueOrDefault(a.DecayRate1, adamDefaultDecayRate1)
	decay2 := valueOrDefault(a.DecayRate2, adamDefaultDecayRate2)
	damping := valueOrDefault(a.Damping, adamDefaultDamping)

	a.steps++
	correction := math.Sqrt(1-math.Pow(decay2, a.steps)) /
		(1 - math.Pow(decay1, a.steps))

	for variable, vec := range g {
		c := vec.Creator()
		m, ok := a.moments[variable]
		if !ok {
			m = &adamMoments{
				First:  c.MakeVector(vec.Len()),
				Second: c.MakeVector(vec.Len()),
			}
			a.moments[variable] = m
		}
		decayInto(m.First, vec, decay1)
		sq := vec.Copy()
		sq.Mul(vec)
		decayInto(m.Second, sq, decay2)

		divisor := m.Second.Copy()
		anyvec.Pow(divisor, c.MakeNumeric(0.5))
		divisor.AddScalar(c.MakeNumeric(damping))

		vec.Set(m.First)
		vec.Scale(c.MakeNumeric(correction))
		vec.Div(divisor)
	}
	return g
}

// decayInto computes avg = rate*avg + (1-rate)*x.
func decayInto(avg, x anyvec.Vector, rate float64) {
	c := avg.Creator()
	avg.Scale(c.MakeNumeric(rate))
	scaled := x.Copy()
	scaled.Scale(c.MakeNumeric(1 - rate))
	avg.Add(scaled)
}
