package anycd

import (
	"errors"
	"fmt"
	"math"

	"github.com/unixpickle/anyrbm/anysgd"
)

// Optimizer names accepted by Config.
const (
	OptimizerAdam     = "adam"
	OptimizerRMSProp  = "rmsprop"
	OptimizerMomentum = "momentum"
	OptimizerSGD      = "sgd"
)

// Config captures the knobs for a training run.
type Config struct {
	Iterations int
	BatchSize  int
	StepSize   float64

	// Optimizer selects the gradient transformer.
	// If it is empty, Adam is used.
	Optimizer string

	// DecayRate1, DecayRate2 and Damping configure Adam.
	// DecayRate1 and Damping also configure RMSProp.
	// Zero values select the optimizer defaults.
	DecayRate1 float64
	DecayRate2 float64
	Damping    float64

	// Momentum is the velocity decay for the momentum
	// optimizer.
	Momentum float64

	GibbsSteps   int
	Persistent   bool
	RefreshEvery int

	// Beta is the inverse temperature.
	Beta float64

	Seed int64

	// LogEvery is the number of iterations between log
	// lines. If it is 0, a default is used.
	LogEvery int
}

// DefaultConfig returns a config that trains small models
// reasonably well.
func DefaultConfig() Config {
	return Config{
		Iterations: 1000,
		BatchSize:  100,
		StepSize:   0.01,
		Optimizer:  OptimizerAdam,
		DecayRate1: 0.9,
		DecayRate2: 0.999,
		Damping:    1e-8,
		Momentum:   0.9,
		GibbsSteps: 1,
		Beta:       1,
		Seed:       1,
		LogEvery:   50,
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0 (got %d)", c.BatchSize)
	}
	if !(c.StepSize > 0) || math.IsInf(c.StepSize, 0) {
		return fmt.Errorf("step size must be finite and > 0 (got %v)", c.StepSize)
	}
	switch c.Optimizer {
	case "", OptimizerAdam, OptimizerRMSProp, OptimizerMomentum, OptimizerSGD:
	default:
		return fmt.Errorf("unknown optimizer %q", c.Optimizer)
	}
	for _, rate := range []struct {
		name  string
		value float64
	}{{"decay rate 1", c.DecayRate1}, {"decay rate 2", c.DecayRate2},
		{"momentum", c.Momentum}} {
		if rate.value < 0 || rate.value >= 1 || math.IsNaN(rate.value) {
			return fmt.Errorf("%s must be in [0, 1) (got %v)", rate.name, rate.value)
		}
	}
	if c.Damping < 0 || math.IsNaN(c.Damping) {
		return fmt.Errorf("damping must be >= 0 (got %v)", c.Damping)
	}
	if c.GibbsSteps <= 0 {
		return fmt.Errorf("gibbs steps must be > 0 (got %d)", c.GibbsSteps)
	}
	if c.RefreshEvery < 0 {
		return fmt.Errorf("refresh interval must be >= 0 (got %d)", c.RefreshEvery)
	}
	if !(c.Beta > 0) || math.IsInf(c.Beta, 0) {
		return fmt.Errorf("beta must be finite and > 0 (got %v)", c.Beta)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log interval must be >= 0 (got %d)", c.LogEvery)
	}
	return nil
}

func (c *Config) transformer() anysgd.Transformer {
	switch c.Optimizer {
	case OptimizerRMSProp:
		return &anysgd.RMSProp{DecayRate: c.DecayRate1, Damping: c.Damping}
	case OptimizerMomentum:
		return &anysgd.Momentum{Momentum: c.Momentum}
	case OptimizerSGD:
		return nil
	default:
		return &anysgd.Adam{
			DecayRate1: c.DecayRate1,
			DecayRate2: c.DecayRate2,
			Damping:    c.Damping,
		}
	}
}

func (c *Config) logEvery() int {
	if c.LogEvery == 0 {
		return 50
	}
	return c.LogEvery
}
