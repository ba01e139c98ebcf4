package anyrbm

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/anyrbm/anyunit"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestCheckpointRoundTrip(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := NewRBMRand(c, anyunit.NewGaussian(c, 2, 2), anyunit.NewReLU(c, 3), 1,
		rand.New(rand.NewSource(1)))
	model.Visible.(*anyunit.Gaussian).Theta.Vector.Set(
		anyvec64.MakeVectorData([]float64{0.1, 1e-300, -7.25, 3}))

	var buf bytes.Buffer
	require.NoError(t, model.WriteCheckpoint(&buf))

	restored := NewRBMZero(c, anyunit.NewGaussian(c, 2, 2), anyunit.NewReLU(c, 3))
	require.NoError(t, restored.ReadCheckpoint(&buf))

	expected := model.NamedParameters()
	actual := restored.NamedParameters()
	require.Len(t, actual, len(expected))
	for i, p := range expected {
		require.Equal(t, p.Name, actual[i].Name)
		require.Equal(t, p.Var.Vector.Data(), actual[i].Var.Vector.Data(), p.Name)
	}
}

func TestCheckpointMismatch(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := NewRBMZero(c, anyunit.NewBinary(c, 3), anyunit.NewBinary(c, 2))
	snapshot := model.Snapshot()

	other := NewRBMZero(c, anyunit.NewBinary(c, 3), anyunit.NewBinary(c, 4))
	err := other.Restore(snapshot)
	require.Error(t, err)
	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)

	gaussian := NewRBMZero(c, anyunit.NewGaussian(c, 3), anyunit.NewBinary(c, 2))
	require.Error(t, gaussian.Restore(snapshot))

	snapshot.Params[0].Data = snapshot.Params[0].Data[:1]
	require.Error(t, model.Restore(snapshot))
	require.Equal(t, []string{"visible.theta", "hidden.theta", "weights"},
		paramNames(model))
}

func paramNames(r *RBM) []string {
	var res []string
	for _, p := range r.NamedParameters() {
		res = append(res, p.Name)
	}
	return res
}
