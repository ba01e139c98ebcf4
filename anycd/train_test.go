package anycd

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/anyrbm"
	"github.com/unixpickle/anyrbm/anysgd"
	"github.com/unixpickle/anyrbm/anyunit"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"iterations": func(c *Config) { c.Iterations = 0 },
		"batch":      func(c *Config) { c.BatchSize = -1 },
		"step":       func(c *Config) { c.StepSize = 0 },
		"optimizer":  func(c *Config) { c.Optimizer = "lbfgs" },
		"decay":      func(c *Config) { c.DecayRate2 = 1 },
		"momentum":   func(c *Config) { c.Momentum = -0.1 },
		"damping":    func(c *Config) { c.Damping = -1 },
		"gibbs":      func(c *Config) { c.GibbsSteps = 0 },
		"refresh":    func(c *Config) { c.RefreshEvery = -2 },
		"beta":       func(c *Config) { c.Beta = 0 },
		"log":        func(c *Config) { c.LogEvery = -1 },
	}
	for name, modify := range cases {
		cfg := DefaultConfig()
		modify(&cfg)
		require.Error(t, cfg.Validate(), name)
	}

	var nilConfig *Config
	require.Error(t, nilConfig.Validate())
}

func TestConfigTransformer(t *testing.T) {
	cfg := DefaultConfig()
	require.IsType(t, &anysgd.Adam{}, cfg.transformer())
	cfg.Optimizer = OptimizerRMSProp
	require.IsType(t, &anysgd.RMSProp{}, cfg.transformer())
	cfg.Optimizer = OptimizerMomentum
	require.IsType(t, &anysgd.Momentum{}, cfg.transformer())
	cfg.Optimizer = OptimizerSGD
	require.Nil(t, cfg.transformer())
}

func TestTrainMetrics(t *testing.T) {
	model := testModel(4, 3, 5)
	samples := testSamples(10, 4, 6)
	cfg := DefaultConfig()
	cfg.Iterations = 7
	cfg.BatchSize = 3
	cfg.LogEvery = 2

	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	res, err := Train(context.Background(), model, samples, cfg,
		WithMetrics(NewMetrics(reg)), WithLogger(zerolog.New(&logs)))
	require.NoError(t, err)
	require.Equal(t, 7, res.Iterations)
	require.Contains(t, logs.String(), `"message":"training"`)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		m := f.GetMetric()[0]
		if m.GetCounter() != nil {
			values[f.GetName()] = m.GetCounter().GetValue()
		} else {
			values[f.GetName()] = m.GetGauge().GetValue()
		}
	}
	require.Equal(t, 7.0, values["anyrbm_train_iterations_total"])
	require.Equal(t, 0.0, values["anyrbm_train_failures_total"])

	// Batches never span epochs: 3+3+3+1 samples per epoch.
	require.Equal(t, 3.0+3+3+1+3+3+3, values["anyrbm_train_samples_total"])
	require.InDelta(t, 1.9, values["anyrbm_train_epoch"], 1e-8)
}

func TestTrainCancelled(t *testing.T) {
	model := testModel(4, 3, 7)
	before := model.Weights.Vector.Copy()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Train(ctx, model, testSamples(10, 4, 8), DefaultConfig())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, res.Iterations)
	require.True(t, vectorsEqual(before, model.Weights.Vector))
}

func TestTrainInvalid(t *testing.T) {
	model := testModel(4, 3, 9)
	cfg := DefaultConfig()
	cfg.Beta = -1
	_, err := Train(context.Background(), model, testSamples(3, 4, 1), cfg)
	require.Error(t, err)
}

func TestFreeEnergyCorrelation(t *testing.T) {
	model := testModel(5, 3, 10)
	configs := allConfigs(5)
	require.InDelta(t, 1, FreeEnergyCorrelation(model, model, configs, 32), 1e-8)

	c := anyvec64.DefaultCreator{}
	vis1, vis2 := anyunit.NewBinary(c, 5), anyunit.NewBinary(c, 5)
	vis1.Theta.Vector.Set(anyvec64.MakeVectorData([]float64{1, -2, 0.5, 3, 0}))
	vis2.Theta.Vector.Set(vis1.Theta.Vector)
	vis2.Theta.Vector.Scale(c.MakeNumeric(-2))
	m1 := anyrbm.NewRBMZero(c, vis1, anyunit.NewBinary(c, 2))
	m2 := anyrbm.NewRBMZero(c, vis2, anyunit.NewBinary(c, 4))
	require.InDelta(t, -1, FreeEnergyCorrelation(m1, m2, configs, 32), 1e-8)
}

func TestMeanFreeEnergy(t *testing.T) {
	model := testModel(3, 2, 11)
	samples := testSamples(4, 3, 12)
	var expected, total float64
	for _, s := range samples {
		expected += s.Weight * bruteFreeEnergy(model, s.Visible.Data().([]float64))
		total += s.Weight
	}
	require.InDelta(t, expected/total, MeanFreeEnergy(model, samples), 1e-8)
	require.Equal(t, 0.0, MeanFreeEnergy(model, nil))
}

// TestTeacherStudent trains a model on samples from a
// random model and checks that it recovers the free
// energy landscape.
func TestTeacherStudent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping soak test in short mode")
	}
	const numVis, numHid = 8, 4
	c := anyvec64.DefaultCreator{}
	gen := rand.New(rand.NewSource(1337))

	teacher := testModel(numVis, numHid, 1338)
	teacher.Weights.Vector.Scale(c.MakeNumeric(1.5))

	const numSamples = 4000
	startData := make([]float64, numSamples*numVis)
	for i := range startData {
		startData[i] = float64(gen.Intn(2))
	}
	start := anyvec64.MakeVectorData(startData)
	data := teacher.SampleVisibleGibbs(start, numSamples, 200, 1, gen).Data().([]float64)
	var samples SliceSampleList
	for i := 0; i < numSamples; i++ {
		samples = append(samples, &Sample{
			Visible: anyvec64.MakeVectorData(data[i*numVis : (i+1)*numVis]),
			Weight:  1,
		})
	}
	heldOut, train := anysgd.HashSplit(samples, 0.2)
	require.NotZero(t, heldOut.Len())
	require.NotZero(t, train.Len())

	student := anyrbm.NewRBMRand(c, anyunit.NewBinary(c, numVis),
		anyunit.NewBinary(c, numHid), 0.01, gen)
	cfg := DefaultConfig()
	cfg.Iterations = 4000
	cfg.BatchSize = 50
	cfg.StepSize = 0.01
	cfg.Persistent = true
	cfg.RefreshEvery = 100
	cfg.Seed = 1339
	_, err := Train(context.Background(), student, train.(SliceSampleList), cfg)
	require.NoError(t, err)

	var ins []anyvec.Vector
	for _, s := range heldOut.(SliceSampleList) {
		ins = append(ins, s.Visible)
	}
	corr := FreeEnergyCorrelation(teacher, student, c.Concat(ins...), len(ins))
	require.GreaterOrEqual(t, corr, 0.8)
}

func allConfigs(size int) anyvec.Vector {
	var data []float64
	for i := 0; i < 1<<uint(size); i++ {
		for j := 0; j < size; j++ {
			data = append(data, float64((i>>uint(j))&1))
		}
	}
	return anyvec64.MakeVectorData(data)
}
