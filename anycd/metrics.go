package anycd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the progress of training runs.
type Metrics struct {
	Iterations prometheus.Counter
	Samples    prometheus.Counter
	Failures   prometheus.Counter
	Cost       prometheus.Gauge
	Epoch      prometheus.Gauge
}

// NewMetrics creates metrics and registers them with reg.
// If reg is nil, the metrics are not registered anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Iterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "anyrbm_train_iterations_total",
			Help: "Total number of parameter updates",
		}),
		Samples: factory.NewCounter(prometheus.CounterOpts{
			Name: "anyrbm_train_samples_total",
			Help: "Total number of data samples used for gradients",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "anyrbm_train_failures_total",
			Help: "Total number of training runs aborted by an error",
		}),
		Cost: factory.NewGauge(prometheus.GaugeOpts{
			Name: "anyrbm_train_cost",
			Help: "Contrastive divergence objective of the latest batch",
		}),
		Epoch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "anyrbm_train_epoch",
			Help: "Fractional number of passes over the data",
		}),
	}
}
