package anycd

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/unixpickle/anyrbm/anysgd"
	"github.com/unixpickle/anyvec"
)

// A Sample is a visible configuration along with an
// importance weight.
type Sample struct {
	Visible anyvec.Vector
	Weight  float64
}

// A SampleList is an anysgd.SampleList that produces
// visible configurations.
type SampleList interface {
	anysgd.SampleList

	GetSample(idx int) (*Sample, error)
}

// A SliceSampleList is a concrete SampleList with
// predetermined samples.
type SliceSampleList []*Sample

// NewSliceSampleList creates a list of samples with unit
// weights.
func NewSliceSampleList(visible ...anyvec.Vector) SliceSampleList {
	res := make(SliceSampleList, len(visible))
	for i, v := range visible {
		res[i] = &Sample{Visible: v, Weight: 1}
	}
	return res
}

// Len returns the number of samples.
func (s SliceSampleList) Len() int {
	return len(s)
}

// Swap swaps two samples.
func (s SliceSampleList) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Slice copies a sub-slice of the list.
func (s SliceSampleList) Slice(i, j int) anysgd.SampleList {
	return append(SliceSampleList{}, s[i:j]...)
}

// GetSample returns the sample at the index.
func (s SliceSampleList) GetSample(idx int) (*Sample, error) {
	return s[idx], nil
}

// Hash hashes the sample's weight and visible units.
//
// This only works for float64 creators.
func (s SliceSampleList) Hash(idx int) []byte {
	h := xxhash.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(s[idx].Weight))
	h.Write(buf[:])
	for _, x := range s[idx].Visible.Data().([]float64) {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(x))
		h.Write(buf[:])
	}
	return h.Sum(nil)
}
