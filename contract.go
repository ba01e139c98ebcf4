package anyrbm

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyrbm/anyunit"
	"github.com/unixpickle/anyvec"
)

// An Interaction couples a visible and a hidden unit
// group through a weight matrix with one row per visible
// unit and one column per hidden unit.
type Interaction struct {
	Weights anydiff.Res
	VisLen  int
	HidLen  int
}

// HiddenField computes v*W for each of n visible
// configurations.
//
// If subset is non-nil, only the hidden units it lists
// are computed, in the order given, so the result has
// n*len(subset) components.
func (i *Interaction) HiddenField(v anydiff.Res, n int, subset []int) anydiff.Res {
	i.checkInput(v, n, i.VisLen)
	checkSubset(subset, i.HidLen)
	return newContractRes(i, v, n, false, subset)
}

// VisibleField computes h*W^T for each of n hidden
// configurations.
//
// The subset argument selects visible units, just like
// for HiddenField.
func (i *Interaction) VisibleField(h anydiff.Res, n int, subset []int) anydiff.Res {
	i.checkInput(h, n, i.HidLen)
	checkSubset(subset, i.VisLen)
	return newContractRes(i, h, n, true, subset)
}

// Coupling computes v^T*W*h for each of n pairs of
// configurations.
func (i *Interaction) Coupling(v, h anydiff.Res, n int) anydiff.Res {
	i.checkInput(h, n, i.HidLen)
	return anyunit.SumPerSample(anydiff.Mul(i.HiddenField(v, n, nil), h), n)
}

func (i *Interaction) checkInput(in anydiff.Res, n, size int) {
	if in.Output().Len() != n*size {
		panic(&DimensionError{
			Op:       "contract",
			Expected: []int{n * size},
			Actual:   []int{in.Output().Len()},
		})
	}
}

func checkSubset(subset []int, size int) {
	for _, idx := range subset {
		if idx < 0 || idx >= size {
			panic(&DimensionError{
				Op:       "select units",
				Expected: []int{size},
				Actual:   []int{idx},
			})
		}
	}
}

// contractRes multiplies a batch of inputs by a weight
// sub-matrix gathered from the full weights.
//
// Gradients for the gathered matrix are scattered back
// into a full-sized weight gradient which is zero outside
// of the selected units.
type contractRes struct {
	Interaction *Interaction
	In          anydiff.Res
	N           int
	Transposed  bool
	Subset      []int
	Gathered    *anyvec.Matrix
	OutVec      anyvec.Vector
	V           anydiff.VarSet
}

func newContractRes(i *Interaction, in anydiff.Res, n int, transposed bool,
	subset []int) *contractRes {
	res := &contractRes{
		Interaction: i,
		In:          in,
		N:           n,
		Transposed:  transposed,
		Subset:      subset,
		V:           anydiff.MergeVarSets(in.Vars(), i.Weights.Vars()),
	}
	res.Gathered = res.gather()

	c := in.Output().Creator()
	out := &anyvec.Matrix{
		Data: c.MakeVector(n * res.Gathered.Cols),
		Rows: n,
		Cols: res.Gathered.Cols,
	}
	out.Product(false, false, c.MakeNumeric(1), res.inMatrix(in.Output()),
		res.Gathered, c.MakeNumeric(0))
	res.OutVec = out.Data
	return res
}

func (c *contractRes) Output() anyvec.Vector {
	return c.OutVec
}

func (c *contractRes) Vars() anydiff.VarSet {
	return c.V
}

func (c *contractRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	cr := u.Creator()
	one, zero := cr.MakeNumeric(1), cr.MakeNumeric(0)
	uMat := &anyvec.Matrix{Data: u, Rows: c.N, Cols: c.Gathered.Cols}

	if g.Intersects(c.Interaction.Weights.Vars()) {
		gatheredGrad := &anyvec.Matrix{
			Data: cr.MakeVector(c.Gathered.Data.Len()),
			Rows: c.Gathered.Rows,
			Cols: c.Gathered.Cols,
		}
		gatheredGrad.Product(true, false, one, c.inMatrix(c.In.Output()), uMat, zero)
		c.Interaction.Weights.Propagate(c.scatter(gatheredGrad), g)
	}

	if g.Intersects(c.In.Vars()) {
		inGrad := &anyvec.Matrix{
			Data: cr.MakeVector(c.In.Output().Len()),
			Rows: c.N,
			Cols: c.Gathered.Rows,
		}
		inGrad.Product(false, true, one, uMat, c.Gathered, zero)
		c.In.Propagate(inGrad.Data, g)
	}
}

func (c *contractRes) inMatrix(in anyvec.Vector) *anyvec.Matrix {
	return &anyvec.Matrix{Data: in, Rows: c.N, Cols: c.Gathered.Rows}
}

// outputIndices lists the units of the output side which
// are being computed.
func (c *contractRes) outputIndices() []int {
	if c.Subset != nil {
		return c.Subset
	}
	size := c.Interaction.HidLen
	if c.Transposed {
		size = c.Interaction.VisLen
	}
	res := make([]int, size)
	for i := range res {
		res[i] = i
	}
	return res
}

// weightIndex maps an (input unit, output unit) pair to
// an index in the full weight matrix.
func (c *contractRes) weightIndex(in, out int) int {
	if c.Transposed {
		return out*c.Interaction.HidLen + in
	}
	return in*c.Interaction.HidLen + out
}

func (c *contractRes) gather() *anyvec.Matrix {
	weights := c.Interaction.Weights.Output().Data().([]float64)
	outs := c.outputIndices()
	inSize := c.Interaction.VisLen
	if c.Transposed {
		inSize = c.Interaction.HidLen
	}
	data := make([]float64, inSize*len(outs))
	for in := 0; in < inSize; in++ {
		for j, out := range outs {
			data[in*len(outs)+j] = weights[c.weightIndex(in, out)]
		}
	}
	cr := c.Interaction.Weights.Output().Creator()
	return &anyvec.Matrix{
		Data: cr.MakeVectorData(cr.MakeNumericList(data)),
		Rows: inSize,
		Cols: len(outs),
	}
}

func (c *contractRes) scatter(m *anyvec.Matrix) anyvec.Vector {
	grad := m.Data.Data().([]float64)
	full := make([]float64, c.Interaction.VisLen*c.Interaction.HidLen)
	outs := c.outputIndices()
	for in := 0; in < m.Rows; in++ {
		for j, out := range outs {
			full[c.weightIndex(in, out)] += grad[in*len(outs)+j]
		}
	}
	cr := m.Data.Creator()
	return cr.MakeVectorData(cr.MakeNumericList(full))
}
