package anyrbm

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anyvec"
)

// SampleHidden samples the hidden units conditioned on n
// visible configurations.
func (r *RBM) SampleHidden(v anyvec.Vector, n int, beta float64,
	gen *rand.Rand) anyvec.Vector {
	return r.HiddenDist(v, n, beta).Sample(gen)
}

// SampleVisible samples the visible units conditioned on
// n hidden configurations.
func (r *RBM) SampleVisible(h anyvec.Vector, n int, beta float64,
	gen *rand.Rand) anyvec.Vector {
	return r.VisibleDist(h, n, beta).Sample(gen)
}

// SampleVisibleGibbs runs the given number of block Gibbs
// steps starting from n visible configurations.
// Each step samples the hidden units and then the visible
// units.
func (r *RBM) SampleVisibleGibbs(v anyvec.Vector, n, steps int, beta float64,
	gen *rand.Rand) anyvec.Vector {
	for i := 0; i < steps; i++ {
		v = r.SampleVisible(r.SampleHidden(v, n, beta, gen), n, beta, gen)
	}
	return v
}

// SampleHiddenGibbs runs the given number of block Gibbs
// steps starting from n hidden configurations.
func (r *RBM) SampleHiddenGibbs(h anyvec.Vector, n, steps int, beta float64,
	gen *rand.Rand) anyvec.Vector {
	for i := 0; i < steps; i++ {
		h = r.SampleHidden(r.SampleVisible(h, n, beta, gen), n, beta, gen)
	}
	return h
}

// ReconstructionError runs one Gibbs step from n visible
// configurations and computes the mean absolute
// difference between the input and the result.
func (r *RBM) ReconstructionError(v anyvec.Vector, n int, beta float64,
	gen *rand.Rand) float64 {
	recon := r.SampleVisibleGibbs(v, n, 1, beta, gen).Data().([]float64)
	var sum float64
	for i, x := range v.Data().([]float64) {
		sum += math.Abs(x - recon[i])
	}
	return sum / float64(len(recon))
}
