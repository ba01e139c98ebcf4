package anysgd

import "github.com/unixpickle/anydiff"

// A Transformer transforms gradients, for example to
// adapt the step size of each parameter.
//
// After its first call, a Transformer expects to see
// gradients for the same set of variables.
// It may modify its input and return it, but it must not
// retain a reference to it.
type Transformer interface {
	Transform(g anydiff.Grad) anydiff.Grad
}

// A Batch is the fetched form of a mini-batch, such as a
// packed vector of training samples.
type Batch interface{}

// A Fetcher turns a slice of a SampleList into a Batch.
type Fetcher interface {
	Fetch(s SampleList) (Batch, error)
}

// A Gradienter computes a gradient for a Batch.
//
// The same gradient instance may be re-used by successive
// calls to Gradient.
type Gradienter interface {
	Gradient(b Batch) anydiff.Grad
}

// A Coster computes a differentiable scalar cost for a
// Batch.
type Coster interface {
	TotalCost(b Batch) anydiff.Res
}

// A Rater determines the learning rate given the epoch
// number.
// Fractional epochs are possible.
type Rater interface {
	Rate(epoch float64) float64
}

// A Stopper decides when SGD should stop.
// Done is called once before every iteration.
type Stopper interface {
	Done() bool
}

// A SampleList represents a list of training samples.
type SampleList interface {
	// Len returns the number of samples.
	Len() int

	// Swap swaps two samples.
	Swap(i, j int)

	// Slice generates a shallow copy of a subset of the
	// list.
	Slice(i, j int) SampleList
}

// A Hasher is a SampleList which can produce a stable
// hash for each of its samples.
type Hasher interface {
	SampleList
	Hash(i int) []byte
}
