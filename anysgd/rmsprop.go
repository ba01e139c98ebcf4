package anysgd

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

const (
	rmspropDefaultDecayRate = 0.9
	rmspropDefaultDamping   = 1e-8
)

// RMSProp divides every gradient by a running root mean
// square of its past values.
type RMSProp struct {
	// DecayRate is the decay of the running average.
	// If it is 0, a default of 0.9 is used.
	DecayRate float64

	// Damping prevents divisions by zero.
	// If it is 0, a default is used.
	Damping float64

	meanSquare anydiff.Grad
}

// Transform rescales the gradient in place.
func (r *RMSProp) Transform(g anydiff.Grad) anydiff.Grad {
	decay := valueOrDefault(r.DecayRate, rmspropDefaultDecayRate)
	damping := valueOrDefault(r.Damping, rmspropDefaultDamping)
	first := r.meanSquare == nil
	if first {
		r.meanSquare = anydiff.Grad{}
	}
	for variable, vec := range g {
		sq := vec.Copy()
		sq.Mul(vec)
		if first {
			r.meanSquare[variable] = sq
		} else {
			decayInto(r.meanSquare[variable], sq, decay)
		}
		div := r.meanSquare[variable].Copy()
		div.AddScalar(div.Creator().MakeNumeric(damping))
		anyvec.Pow(div, div.Creator().MakeNumeric(-0.5))
		vec.Mul(div)
	}
	return g
}
