package anycd

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyrbm"
	"github.com/unixpickle/anyrbm/anyunit"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestTrainerGradient(t *testing.T) {
	model := testModel(3, 2, 1)
	trainer := &Trainer{Model: model, Params: model.Parameters(), MaxGos: 2}

	data := [][]float64{{1, 0, 1}, {0, 1, 1}}
	dataWeights := []float64{1, 3}
	neg := [][]float64{{1, 1, 0}, {0, 0, 0}}

	samples := SliceSampleList{}
	for i, d := range data {
		samples = append(samples, &Sample{
			Visible: anyvec64.MakeVectorData(d),
			Weight:  dataWeights[i],
		})
	}
	batch, err := trainer.Fetch(samples)
	if err != nil {
		t.Fatal(err)
	}
	b := batch.(*Batch)
	b.Negative = anydiff.NewConst(anyvec64.MakeVectorData(append(append([]float64{},
		neg[0]...), neg[1]...)))
	b.NegativeWeights = []float64{1, 1}
	b.NegativeNum = 2

	grad := trainer.Gradient(b)

	visTheta := model.Visible.(*anyunit.Binary).Theta
	hidTheta := model.Hidden.(*anyunit.Binary).Theta
	expVis := make([]float64, 3)
	expHid := make([]float64, 2)
	expWeights := make([]float64, 6)
	accumulate := func(v []float64, scale float64) {
		hidProbs := hiddenProbs(model, v)
		for i, x := range v {
			expVis[i] -= scale * x
			for j, p := range hidProbs {
				expWeights[i*2+j] -= scale * x * p
			}
		}
		for j, p := range hidProbs {
			expHid[j] -= scale * p
		}
	}
	accumulate(data[0], 0.25)
	accumulate(data[1], 0.75)
	accumulate(neg[0], -0.5)
	accumulate(neg[1], -0.5)

	assertClose(t, "visible", expVis, grad[visTheta].Data().([]float64))
	assertClose(t, "hidden", expHid, grad[hidTheta].Data().([]float64))
	assertClose(t, "weights", expWeights, grad[model.Weights].Data().([]float64))

	var expCost float64
	for i, d := range data {
		expCost += dataWeights[i] / 4 * bruteFreeEnergy(model, d)
	}
	for _, d := range neg {
		expCost -= bruteFreeEnergy(model, d) / 2
	}
	if math.Abs(trainer.LastCost-expCost) > 1e-8 {
		t.Errorf("expected cost %f but got %f", expCost, trainer.LastCost)
	}
}

func TestTrainerNegativeSamples(t *testing.T) {
	model := testModel(4, 3, 2)
	trainer := &Trainer{
		Model:      model,
		Params:     model.Parameters(),
		GibbsSteps: 3,
		Rand:       rand.New(rand.NewSource(1)),
	}
	batch, err := trainer.Fetch(testSamples(5, 4, 3))
	if err != nil {
		t.Fatal(err)
	}
	b := batch.(*Batch)
	trainer.TotalCost(b)
	if b.NegativeNum != 5 || b.Negative.Output().Len() != 20 {
		t.Fatalf("unexpected negative batch: %d samples, %d values", b.NegativeNum,
			b.Negative.Output().Len())
	}
	for _, x := range b.Negative.Output().Data().([]float64) {
		if x != 0 && x != 1 {
			t.Fatalf("non-binary sample %f", x)
		}
	}
	for i, w := range b.NegativeWeights {
		if w != b.Weights[i] {
			t.Errorf("negative weight %d: expected %f but got %f", i, b.Weights[i], w)
		}
	}
	if trainer.chain != nil {
		t.Error("non-persistent trainer should not keep a chain")
	}
}

func TestTrainerPersistent(t *testing.T) {
	model := testModel(4, 3, 3)
	trainer := &Trainer{
		Model:        model,
		Params:       model.Parameters(),
		Persistent:   true,
		RefreshEvery: 3,
		Rand:         rand.New(rand.NewSource(2)),
	}
	fetch := func(num int, seed int64) *Batch {
		batch, err := trainer.Fetch(testSamples(num, 4, seed))
		if err != nil {
			t.Fatal(err)
		}
		b := batch.(*Batch)
		trainer.Gradient(b)
		return b
	}

	b := fetch(2, 4)
	if trainer.chainNum != 2 {
		t.Fatalf("expected chain of 2 but got %d", trainer.chainNum)
	}
	if !vectorsEqual(trainer.chain, b.Negative.Output()) {
		t.Error("chain should hold the latest negative samples")
	}
	for _, w := range b.NegativeWeights {
		if w != 1 {
			t.Errorf("expected uniform chain weights but got %v", b.NegativeWeights)
			break
		}
	}

	fetch(2, 5)
	if trainer.chainNum != 2 {
		t.Error("chain should persist across batches of the same size")
	}

	fetch(3, 6)
	if trainer.chainNum != 3 || trainer.chain.Len() != 12 {
		t.Errorf("chain should be re-seeded for a new batch size")
	}
	if trainer.numSampled != 3 {
		t.Errorf("expected 3 negative phases but got %d", trainer.numSampled)
	}
}

func TestFetchErrors(t *testing.T) {
	model := testModel(3, 2, 4)
	trainer := &Trainer{Model: model, Params: model.Parameters()}
	vec := func(x ...float64) anyvec.Vector {
		return anyvec64.MakeVectorData(x)
	}
	lists := map[string]SliceSampleList{
		"empty":    {},
		"size":     {{Visible: vec(1, 0), Weight: 1}},
		"negative": {{Visible: vec(1, 0, 1), Weight: -1}},
		"nan":      {{Visible: vec(1, 0, 1), Weight: math.NaN()}},
		"zero":     {{Visible: vec(1, 0, 1), Weight: 0}, {Visible: vec(0, 0, 1)}},
	}
	for name, list := range lists {
		if _, err := trainer.Fetch(list); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
	if _, err := trainer.Fetch(lists["size"]); err != nil {
		var dimErr *anyrbm.DimensionError
		if !errors.As(err, &dimErr) {
			t.Errorf("size: expected a DimensionError but got %v", err)
		}
	}
}

func testModel(numVis, numHid int, seed int64) *anyrbm.RBM {
	c := anyvec64.DefaultCreator{}
	gen := rand.New(rand.NewSource(seed))
	visible := anyunit.NewBinary(c, numVis)
	hidden := anyunit.NewBinary(c, numHid)
	anyvec.Rand(visible.Theta.Vector, anyvec.Normal, gen)
	anyvec.Rand(hidden.Theta.Vector, anyvec.Normal, gen)
	return anyrbm.NewRBMRand(c, visible, hidden, 1, gen)
}

func testSamples(num, size int, seed int64) SliceSampleList {
	gen := rand.New(rand.NewSource(seed))
	var res SliceSampleList
	for i := 0; i < num; i++ {
		data := make([]float64, size)
		for j := range data {
			data[j] = float64(gen.Intn(2))
		}
		res = append(res, &Sample{
			Visible: anyvec64.MakeVectorData(data),
			Weight:  gen.Float64() + 0.5,
		})
	}
	return res
}

func hiddenProbs(model *anyrbm.RBM, v []float64) []float64 {
	weights := model.Weights.Vector.Data().([]float64)
	theta := model.Hidden.(*anyunit.Binary).Theta.Vector.Data().([]float64)
	res := make([]float64, len(theta))
	for j := range res {
		field := theta[j]
		for i, x := range v {
			field += x * weights[i*len(theta)+j]
		}
		res[j] = 1 / (1 + math.Exp(-field))
	}
	return res
}

func bruteFreeEnergy(model *anyrbm.RBM, v []float64) float64 {
	weights := model.Weights.Vector.Data().([]float64)
	visTheta := model.Visible.(*anyunit.Binary).Theta.Vector.Data().([]float64)
	hidTheta := model.Hidden.(*anyunit.Binary).Theta.Vector.Data().([]float64)
	var res float64
	for i, x := range v {
		res -= x * visTheta[i]
	}
	for j, theta := range hidTheta {
		field := theta
		for i, x := range v {
			field += x * weights[i*len(hidTheta)+j]
		}
		res -= math.Log1p(math.Exp(field))
	}
	return res
}

func assertClose(t *testing.T, name string, expected, actual []float64) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("%s: expected length %d but got %d", name, len(expected), len(actual))
	}
	for i, x := range expected {
		if math.Abs(x-actual[i]) > 1e-8 {
			t.Errorf("%s: expected %v but got %v", name, expected, actual)
			return
		}
	}
}

func vectorsEqual(v1, v2 anyvec.Vector) bool {
	d1, d2 := v1.Data().([]float64), v2.Data().([]float64)
	if len(d1) != len(d2) {
		return false
	}
	for i, x := range d1 {
		if d2[i] != x {
			return false
		}
	}
	return true
}
