package anycd

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyrbm"
	"github.com/unixpickle/anyrbm/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// A Batch stores weighted visible configurations in a
// packed format.
type Batch struct {
	Visible *anydiff.Const
	Weights []float64
	Num     int

	// Negative stores the fantasy particles that the
	// batch is contrasted against.
	// If it is nil, TotalCost samples them.
	Negative        *anydiff.Const
	NegativeWeights []float64
	NegativeNum     int
}

// A Trainer fetches batches and computes contrastive
// divergence gradients for an RBM.
//
// The objective is the weighted mean free energy of the
// data minus the mean free energy of samples obtained
// by block Gibbs sampling.
type Trainer struct {
	Model  *anyrbm.RBM
	Params []*anydiff.Var

	// GibbsSteps is the number of Gibbs steps used to
	// produce negative samples.
	// If it is 0, one step is used.
	GibbsSteps int

	// Beta is the inverse temperature for both the free
	// energies and the sampling.
	// If it is 0, 1 is used.
	Beta float64

	// Persistent enables persistent contrastive
	// divergence, where the Gibbs chain continues across
	// batches instead of starting from the data.
	Persistent bool

	// RefreshEvery re-seeds a persistent chain from the
	// current batch after this many gradients.
	// If it is 0, the chain is only re-seeded when the
	// batch size changes.
	RefreshEvery int

	// Rand is the source of randomness for the sampler.
	// It must be non-nil.
	Rand *rand.Rand

	// After every gradient computation, LastCost is set to
	// the value of the objective.
	LastCost float64

	// MaxGos specifies the maximum goroutines to use
	// simultaneously for fetching samples.
	// If it is 0, GOMAXPROCS is used.
	MaxGos int

	chain      anyvec.Vector
	chainNum   int
	numSampled int
}

// Fetch produces a *Batch for the subset of samples.
// The s argument must implement SampleList.
//
// It fails if the batch is empty, if a sample has the
// wrong size, or if the weights are negative, non-finite,
// or sum to zero.
func (t *Trainer) Fetch(s anysgd.SampleList) (anysgd.Batch, error) {
	if s.Len() == 0 {
		return nil, errors.New("fetch batch: empty batch")
	}

	l := s.(SampleList)
	ins := make([]anyvec.Vector, l.Len())
	weights := make([]float64, l.Len())

	idxChan := make(chan int, l.Len())
	for i := 0; i < l.Len(); i++ {
		idxChan <- i
	}
	close(idxChan)

	maxGos := t.MaxGos
	if maxGos == 0 {
		maxGos = runtime.GOMAXPROCS(0)
	}

	wg := sync.WaitGroup{}
	errChan := make(chan error, maxGos)
	for i := 0; i < maxGos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxChan {
				sample, err := l.GetSample(i)
				if err != nil {
					errChan <- essentials.AddCtx("fetch batch", err)
					return
				}
				ins[i] = sample.Visible
				weights[i] = sample.Weight
			}
		}()
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}

	visLen := t.Model.Visible.Shape().Len()
	var totalWeight float64
	for i, in := range ins {
		if in.Len() != visLen {
			return nil, &anyrbm.DimensionError{
				Op:       "fetch batch",
				Expected: []int{visLen},
				Actual:   []int{in.Len()},
			}
		}
		w := weights[i]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("fetch batch: invalid weight %v", w)
		}
		totalWeight += w
	}
	if totalWeight == 0 {
		return nil, errors.New("fetch batch: weights sum to zero")
	}

	return &Batch{
		Visible: anydiff.NewConst(ins[0].Creator().Concat(ins...)),
		Weights: weights,
		Num:     l.Len(),
	}, nil
}

// TotalCost computes the contrastive divergence
// objective for the *Batch.
//
// If the batch has no negative samples yet, they are
// sampled and stored in the batch.
func (t *Trainer) TotalCost(batch anysgd.Batch) anydiff.Res {
	b := batch.(*Batch)
	if b.Negative == nil {
		t.sampleNegative(b)
	}
	beta := t.beta()
	data := t.Model.FreeEnergy(b.Visible, b.Num, beta)
	neg := t.Model.FreeEnergy(b.Negative, b.NegativeNum, beta)
	return anydiff.Sub(weightedMean(data, b.Weights), weightedMean(neg, b.NegativeWeights))
}

// Gradient computes the gradient of the objective.
// It also sets t.LastCost to the objective's value.
//
// The b argument must be a *Batch.
func (t *Trainer) Gradient(b anysgd.Batch) anydiff.Grad {
	grad, lc := anysgd.CosterGrad(t, b, t.Params)
	t.LastCost = lc
	return grad
}

func (t *Trainer) sampleNegative(b *Batch) {
	start := b.Visible.Output()
	weights := b.Weights
	if t.Persistent {
		refresh := t.RefreshEvery > 0 && t.numSampled%t.RefreshEvery == 0
		if t.chain == nil || t.chainNum != b.Num || refresh {
			t.chain = start.Copy()
			t.chainNum = b.Num
		}
		start = t.chain
		weights = make([]float64, b.Num)
		for i := range weights {
			weights[i] = 1
		}
	}
	steps := t.GibbsSteps
	if steps == 0 {
		steps = 1
	}
	neg := t.Model.SampleVisibleGibbs(start, b.Num, steps, t.beta(), t.Rand)
	if t.Persistent {
		t.chain = neg
	}
	t.numSampled++

	b.Negative = anydiff.NewConst(neg)
	b.NegativeWeights = weights
	b.NegativeNum = b.Num
}

func (t *Trainer) beta() float64 {
	if t.Beta == 0 {
		return 1
	}
	return t.Beta
}

// weightedMean computes sum(w[i]*x[i]) / sum(w).
func weightedMean(x anydiff.Res, weights []float64) anydiff.Res {
	var total float64
	for _, w := range weights {
		total += w
	}
	scaled := make([]float64, len(weights))
	for i, w := range weights {
		scaled[i] = w / total
	}
	c := x.Output().Creator()
	coeffs := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(scaled)))
	return anydiff.Sum(anydiff.Mul(x, coeffs))
}
