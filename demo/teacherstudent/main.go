// Command teacherstudent trains an RBM on samples from a
// randomly initialized RBM and reports how well the free
// energy landscape was recovered.
package main

import (
	"context"
	"flag"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/unixpickle/anyrbm"
	"github.com/unixpickle/anyrbm/anycd"
	"github.com/unixpickle/anyrbm/anysgd"
	"github.com/unixpickle/anyrbm/anyunit"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

var Creator anyvec.Creator = anyvec64.DefaultCreator{}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := anycd.DefaultConfig()
	var numVis, numHid, numSamples, burnIn int
	var hiddenType, outPath string
	var teacherScale, holdOut float64
	flag.IntVar(&numVis, "visible", 12, "number of binary visible units")
	flag.IntVar(&numHid, "hidden", 6, "number of hidden units")
	flag.StringVar(&hiddenType, "hidden-type", "binary",
		"hidden unit type (binary, gaussian, relu, drelu)")
	flag.IntVar(&numSamples, "samples", 5000, "number of generated samples")
	flag.IntVar(&burnIn, "burn-in", 500, "Gibbs steps used to generate data")
	flag.Float64Var(&teacherScale, "teacher-scale", 1.5, "teacher weight scale")
	flag.Float64Var(&holdOut, "hold-out", 0.2, "fraction of samples held out")
	flag.StringVar(&outPath, "out", "", "write the student checkpoint to this file")
	flag.IntVar(&cfg.Iterations, "iters", cfg.Iterations, "training iterations")
	flag.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "mini-batch size")
	flag.Float64Var(&cfg.StepSize, "step", cfg.StepSize, "step size")
	flag.StringVar(&cfg.Optimizer, "optimizer", cfg.Optimizer,
		"optimizer (adam, rmsprop, momentum, sgd)")
	flag.IntVar(&cfg.GibbsSteps, "gibbs", cfg.GibbsSteps, "Gibbs steps per gradient")
	flag.BoolVar(&cfg.Persistent, "persistent", true, "use persistent chains")
	flag.IntVar(&cfg.RefreshEvery, "refresh", 100, "re-seed persistent chains every N steps")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.IntVar(&cfg.LogEvery, "log-every", cfg.LogEvery, "iterations between log lines")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	gen := rand.New(rand.NewSource(cfg.Seed))

	log.Info().Int("visible", numVis).Int("hidden", numHid).Str("type", hiddenType).
		Msg("setting up teacher")
	teacher := anyrbm.NewRBMRand(Creator, anyunit.NewBinary(Creator, numVis),
		newHidden(hiddenType, numHid), teacherScale/math.Sqrt(float64(numVis)), gen)
	randomizeFields(teacher, gen)

	log.Info().Int("samples", numSamples).Int("steps", burnIn).Msg("generating data")
	samples := generate(teacher, numSamples, burnIn, gen)
	validation, training := anysgd.HashSplit(samples, holdOut)
	log.Info().Int("train", training.Len()).Int("validation", validation.Len()).
		Msg("split data")

	student := anyrbm.NewRBMRand(Creator, anyunit.NewBinary(Creator, numVis),
		newHidden(hiddenType, numHid), 0.01, gen)
	initVisible(student, training.(anycd.SliceSampleList))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.Info().Msg("Press ctrl+c once to stop...")
	metrics := anycd.NewMetrics(prometheus.DefaultRegisterer)
	res, err := anycd.Train(ctx, student, training.(anycd.SliceSampleList), cfg,
		anycd.WithLogger(log.Logger), anycd.WithMetrics(metrics))
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("training failed")
	}
	log.Info().Int("iter", res.Iterations).Float64("cost", res.LastCost).Msg("trained")

	printStats(teacher, student, validation.(anycd.SliceSampleList), gen)

	if outPath != "" {
		if err := writeCheckpoint(student, outPath); err != nil {
			log.Fatal().Err(err).Msg("save checkpoint")
		}
		log.Info().Str("path", outPath).Msg("saved checkpoint")
	}
}

func newHidden(name string, num int) anyunit.Layer {
	switch name {
	case "binary":
		return anyunit.NewBinary(Creator, num)
	case "gaussian":
		return anyunit.NewGaussian(Creator, num)
	case "relu":
		return anyunit.NewReLU(Creator, num)
	case "drelu":
		return anyunit.NewDReLU(Creator, num)
	default:
		log.Fatal().Str("type", name).Msg("unknown hidden unit type")
		return nil
	}
}

func randomizeFields(model *anyrbm.RBM, gen *rand.Rand) {
	for _, p := range model.Visible.Parameters() {
		anyvec.Rand(p.Vector, anyvec.Normal, gen)
	}
}

func generate(model *anyrbm.RBM, num, steps int, gen *rand.Rand) anycd.SliceSampleList {
	numVis := model.Visible.Shape().Len()
	start := make([]float64, num*numVis)
	for i := range start {
		start[i] = float64(gen.Intn(2))
	}
	data := model.SampleVisibleGibbs(anyvec64.MakeVectorData(start), num, steps, 1,
		gen).Data().([]float64)
	var vecs []anyvec.Vector
	for i := 0; i < num; i++ {
		vecs = append(vecs, anyvec64.MakeVectorData(data[i*numVis:(i+1)*numVis]))
	}
	return anycd.NewSliceSampleList(vecs...)
}

func initVisible(model *anyrbm.RBM, samples anycd.SliceSampleList) {
	initializer, ok := model.Visible.(anyunit.DataInitializer)
	if !ok {
		return
	}
	var vecs []anyvec.Vector
	for _, s := range samples {
		vecs = append(vecs, s.Visible)
	}
	initializer.InitFromData(Creator.Concat(vecs...), len(vecs))
}

func printStats(teacher, student *anyrbm.RBM, samples anycd.SliceSampleList,
	gen *rand.Rand) {
	var vecs []anyvec.Vector
	for _, s := range samples {
		vecs = append(vecs, s.Visible)
	}
	if len(vecs) == 0 {
		log.Warn().Msg("no validation samples")
		return
	}
	joined := Creator.Concat(vecs...)
	log.Info().
		Float64("correlation", anycd.FreeEnergyCorrelation(teacher, student, joined,
			len(vecs))).
		Float64("teacher_free_energy", anycd.MeanFreeEnergy(teacher, samples)).
		Float64("student_free_energy", anycd.MeanFreeEnergy(student, samples)).
		Float64("reconstruction", student.ReconstructionError(joined, len(vecs), 1, gen)).
		Msg("validation")
}

func writeCheckpoint(model *anyrbm.RBM, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := model.WriteCheckpoint(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

