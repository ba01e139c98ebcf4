// Package anysgd provides the stochastic gradient descent
// loop and gradient transformers used to train models.
package anysgd

import (
	"errors"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
)

// ErrNonFinite is returned when a gradient contains NaN
// or infinite values.
// Such gradients are never applied to the parameters.
var ErrNonFinite = errors.New("non-finite gradient")

// SGD performs stochastic gradient descent.
type SGD struct {
	// Fetcher converts mini-batches into Batches for the
	// Gradienter.
	Fetcher    Fetcher
	Gradienter Gradienter

	// Transformer, if non-nil, is used to transform each
	// gradient before the step.
	Transformer Transformer

	// Samples is the list of training samples.
	// It is shuffled at the start of every epoch, and it
	// may not be empty.
	Samples SampleList

	// Rater determines the learning rate for each step.
	Rater Rater

	// StatusFunc, if non-nil, is called after every
	// iteration with the iteration's Batch.
	StatusFunc func(iter int, b Batch)

	// BatchSize is the mini-batch size.
	// If it is 0, the entire sample list is used at every
	// iteration.
	BatchSize int

	// Rand is used for shuffling.
	// If it is nil, the global source is used.
	Rand *rand.Rand

	// NumProcessed counts the samples passed to the
	// Gradienter so far, which determines the epoch.
	NumProcessed int
}

// Run runs SGD until the stopper indicates to stop.
//
// It fails if a batch cannot be fetched, or if a gradient
// is not finite, in which case the parameters are left as
// they were before the bad step.
func (s *SGD) Run(stopper Stopper) error {
	if s.Samples.Len() == 0 {
		return errors.New("run SGD: empty sample list")
	}
	idx := s.Samples.Len()
	for iter := 0; !stopper.Done(); iter++ {
		if idx == s.Samples.Len() {
			Shuffle(s.Samples, s.Rand)
			idx = 0
		}
		size := s.batchSize(s.Samples.Len() - idx)
		batch, err := s.Fetcher.Fetch(s.Samples.Slice(idx, idx+size))
		if err != nil {
			return essentials.AddCtx("run SGD", err)
		}
		idx += size

		grad := s.Gradienter.Gradient(batch)
		if !GradFinite(grad) {
			return essentials.AddCtx("run SGD", ErrNonFinite)
		}
		if s.Transformer != nil {
			grad = s.Transformer.Transform(grad)
		}

		epoch := float64(s.NumProcessed) / float64(s.Samples.Len())
		scaleGrad(grad, -s.Rater.Rate(epoch))
		grad.AddToVars()
		s.NumProcessed += size

		if s.StatusFunc != nil {
			s.StatusFunc(iter, batch)
		}
	}
	return nil
}

func (s *SGD) batchSize(remaining int) int {
	if s.BatchSize == 0 || s.BatchSize > remaining {
		return remaining
	}
	return s.BatchSize
}

// CosterGrad computes the gradient of a Coster's total
// cost with respect to params.
// It also returns the numerical cost.
//
// This only works for float64 creators.
func CosterGrad(c Coster, b Batch, params []*anydiff.Var) (anydiff.Grad, float64) {
	grad := anydiff.NewGrad(params...)
	cost := c.TotalCost(b)
	if len(grad) > 0 {
		one := cost.Output().Creator().MakeVector(1)
		one.AddScalar(one.Creator().MakeNumeric(1))
		cost.Propagate(one, grad)
	}
	return grad, cost.Output().Data().([]float64)[0]
}
