package anyrbm

import (
	"fmt"

	"github.com/unixpickle/anyrbm/anyunit"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var r RBM
	serializer.RegisterTypedDeserializer(r.SerializerType(), DeserializeRBM)
}

// DeserializeRBM deserializes an RBM.
func DeserializeRBM(d []byte) (*RBM, error) {
	var visible, hidden anyunit.Layer
	var weights *anyvecsave.S
	if err := serializer.DeserializeAny(d, &visible, &hidden, &weights); err != nil {
		return nil, essentials.AddCtx("deserialize RBM", err)
	}
	res, err := NewRBM(visible, hidden, weights.Vector,
		visible.Shape().Concat(hidden.Shape()))
	if err != nil {
		return nil, essentials.AddCtx("deserialize RBM", err)
	}
	return res, nil
}

// SerializerType returns the unique ID used to serialize
// an RBM with the serializer package.
func (r *RBM) SerializerType() string {
	return "github.com/unixpickle/anyrbm.RBM"
}

// Serialize serializes the RBM.
// This fails if either layer is not a
// serializer.Serializer.
func (r *RBM) Serialize() ([]byte, error) {
	for _, l := range []anyunit.Layer{r.Visible, r.Hidden} {
		if _, ok := l.(serializer.Serializer); !ok {
			return nil, fmt.Errorf("serialize RBM: not a Serializer: %T", l)
		}
	}
	return serializer.SerializeAny(
		r.Visible.(serializer.Serializer),
		r.Hidden.(serializer.Serializer),
		&anyvecsave.S{Vector: r.Weights.Vector},
	)
}
