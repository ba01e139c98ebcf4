package anysgd

import "github.com/unixpickle/anydiff"

// Momentum accumulates a decaying sum of gradients:
//
//	velocity := Momentum*velocity + grad
//
// and uses the velocity in place of the gradient.
type Momentum struct {
	Momentum float64

	velocity anydiff.Grad
}

// Transform replaces every gradient with its velocity.
func (m *Momentum) Transform(g anydiff.Grad) anydiff.Grad {
	if m.velocity == nil {
		m.velocity = copyGrad(g)
		return g
	}
	for variable, vec := range g {
		v := m.velocity[variable]
		v.Scale(v.Creator().MakeNumeric(m.Momentum))
		v.Add(vec)
		vec.Set(v)
	}
	return g
}
