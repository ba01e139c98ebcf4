package anycd

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyrbm"
	"github.com/unixpickle/anyvec"
	"gonum.org/v1/gonum/stat"
)

// FreeEnergyCorrelation computes the Pearson correlation
// between the free energies that two models assign to n
// visible configurations.
//
// Models that encode the same distribution up to a
// constant have a correlation of 1.
//
// This only works for float64 creators.
func FreeEnergyCorrelation(m1, m2 *anyrbm.RBM, v anyvec.Vector, n int) float64 {
	in := anydiff.NewConst(v)
	f1 := m1.FreeEnergy(in, n, 1).Output().Data().([]float64)
	f2 := m2.FreeEnergy(in, n, 1).Output().Data().([]float64)
	return stat.Correlation(f1, f2, nil)
}

// MeanFreeEnergy computes the weighted mean free energy
// of the samples in a list.
func MeanFreeEnergy(model *anyrbm.RBM, samples SliceSampleList) float64 {
	var ins []anyvec.Vector
	var weights []float64
	for _, s := range samples {
		ins = append(ins, s.Visible)
		weights = append(weights, s.Weight)
	}
	if len(ins) == 0 {
		return 0
	}
	joined := anydiff.NewConst(ins[0].Creator().Concat(ins...))
	energies := model.FreeEnergy(joined, len(ins), 1).Output().Data().([]float64)
	return stat.Mean(energies, weights)
}
