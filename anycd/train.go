// Package anycd trains restricted Boltzmann machines with
// contrastive divergence.
package anycd

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/unixpickle/anyrbm"
	"github.com/unixpickle/anyrbm/anysgd"
	"github.com/unixpickle/essentials"
)

// An Option customizes Train.
type Option func(*options)

type options struct {
	logger  zerolog.Logger
	metrics *Metrics
}

// WithLogger makes Train log its progress to l.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics makes Train report its progress to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// A Result summarizes a training run.
type Result struct {
	Iterations int
	LastCost   float64
}

// Train optimizes all of the model's parameters on the
// samples.
//
// Training stops after cfg.Iterations updates, or early
// if ctx is done, in which case the partial result is
// returned along with ctx.Err().
func Train(ctx context.Context, model *anyrbm.RBM, samples SampleList, cfg Config,
	opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("train", err)
	}
	o := options{logger: zerolog.Nop(), metrics: NewMetrics(nil)}
	for _, opt := range opts {
		opt(&o)
	}

	gen := rand.New(rand.NewSource(cfg.Seed))
	t := &Trainer{
		Model:        model,
		Params:       model.Parameters(),
		GibbsSteps:   cfg.GibbsSteps,
		Beta:         cfg.Beta,
		Persistent:   cfg.Persistent,
		RefreshEvery: cfg.RefreshEvery,
		Rand:         gen,
	}
	res := &Result{}
	s := &anysgd.SGD{
		Fetcher:     t,
		Gradienter:  t,
		Transformer: cfg.transformer(),
		Samples:     samples,
		Rater:       anysgd.ConstRater(cfg.StepSize),
		BatchSize:   cfg.BatchSize,
		Rand:        gen,
	}
	s.StatusFunc = func(iter int, b anysgd.Batch) {
		epoch := float64(s.NumProcessed) / float64(samples.Len())
		res.Iterations = iter + 1
		res.LastCost = t.LastCost
		o.metrics.Iterations.Inc()
		o.metrics.Samples.Add(float64(b.(*Batch).Num))
		o.metrics.Cost.Set(t.LastCost)
		o.metrics.Epoch.Set(epoch)
		if iter%cfg.logEvery() == 0 {
			o.logger.Info().
				Int("iter", iter).
				Float64("epoch", epoch).
				Float64("cost", t.LastCost).
				Msg("training")
		}
	}

	o.logger.Debug().
		Int("iterations", cfg.Iterations).
		Int("batch", cfg.BatchSize).
		Str("optimizer", cfg.Optimizer).
		Bool("persistent", cfg.Persistent).
		Msg("starting training")

	stopper := &ctxStopper{ctx: ctx, iters: anysgd.IterStopper{Remaining: cfg.Iterations}}
	if err := s.Run(stopper); err != nil {
		o.metrics.Failures.Inc()
		o.logger.Error().Err(err).Int("iter", res.Iterations).Msg("training failed")
		return res, essentials.AddCtx("train", err)
	}
	if err := ctx.Err(); err != nil && res.Iterations < cfg.Iterations {
		o.logger.Warn().Int("iter", res.Iterations).Msg("training interrupted")
		return res, err
	}
	o.logger.Info().Int("iter", res.Iterations).Float64("cost", res.LastCost).
		Msg("training done")
	return res, nil
}

type ctxStopper struct {
	ctx   context.Context
	iters anysgd.IterStopper
}

func (c *ctxStopper) Done() bool {
	return c.ctx.Err() != nil || c.iters.Done()
}
