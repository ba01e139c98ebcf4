package anyrbm

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/unixpickle/essentials"
)

// A Checkpoint is a portable snapshot of a model's
// parameters, suitable for exchange with programs that
// do not use the serializer package.
type Checkpoint struct {
	VisibleShape []int             `cbor:"visible_shape"`
	HiddenShape  []int             `cbor:"hidden_shape"`
	Params       []CheckpointParam `cbor:"params"`
}

// A CheckpointParam stores the data of one parameter.
type CheckpointParam struct {
	Name string    `cbor:"name"`
	Data []float64 `cbor:"data"`
}

// Snapshot copies the model's parameters into a
// Checkpoint.
func (r *RBM) Snapshot() *Checkpoint {
	res := &Checkpoint{
		VisibleShape: r.Visible.Shape(),
		HiddenShape:  r.Hidden.Shape(),
	}
	for _, p := range r.NamedParameters() {
		data := append([]float64{}, p.Var.Vector.Data().([]float64)...)
		res.Params = append(res.Params, CheckpointParam{Name: p.Name, Data: data})
	}
	return res
}

// Restore copies parameters from a Checkpoint into the
// model.
//
// The checkpoint must have the same shapes and parameter
// names as the model, or else the model is left
// unchanged and an error is returned.
func (r *RBM) Restore(c *Checkpoint) error {
	if !r.Visible.Shape().Equal(c.VisibleShape) {
		return &DimensionError{Op: "restore visible", Expected: r.Visible.Shape(),
			Actual: c.VisibleShape}
	}
	if !r.Hidden.Shape().Equal(c.HiddenShape) {
		return &DimensionError{Op: "restore hidden", Expected: r.Hidden.Shape(),
			Actual: c.HiddenShape}
	}
	named := r.NamedParameters()
	if len(named) != len(c.Params) {
		return fmt.Errorf("restore: expected %d parameters but got %d", len(named),
			len(c.Params))
	}
	for i, p := range named {
		if c.Params[i].Name != p.Name {
			return fmt.Errorf("restore: expected parameter %s but got %s", p.Name,
				c.Params[i].Name)
		}
		if len(c.Params[i].Data) != p.Var.Vector.Len() {
			return &DimensionError{Op: "restore " + p.Name,
				Expected: []int{p.Var.Vector.Len()}, Actual: []int{len(c.Params[i].Data)}}
		}
	}
	for i, p := range named {
		cr := p.Var.Vector.Creator()
		p.Var.Vector.Set(cr.MakeVectorData(cr.MakeNumericList(c.Params[i].Data)))
	}
	return nil
}

// WriteCheckpoint encodes a snapshot of the model as CBOR.
func (r *RBM) WriteCheckpoint(w io.Writer) error {
	if err := cbor.NewEncoder(w).Encode(r.Snapshot()); err != nil {
		return essentials.AddCtx("write checkpoint", err)
	}
	return nil
}

// ReadCheckpoint decodes a CBOR checkpoint and restores
// the model from it.
func (r *RBM) ReadCheckpoint(rd io.Reader) error {
	var c Checkpoint
	if err := cbor.NewDecoder(rd).Decode(&c); err != nil {
		return essentials.AddCtx("read checkpoint", err)
	}
	if err := r.Restore(&c); err != nil {
		return essentials.AddCtx("read checkpoint", err)
	}
	return nil
}
