package anycd

import (
	"bytes"
	"testing"

	"github.com/unixpickle/anyrbm/anysgd"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestSliceSampleListHash(t *testing.T) {
	list := SliceSampleList{
		{Visible: anyvec64.MakeVectorData([]float64{1, 0, 1}), Weight: 1},
		{Visible: anyvec64.MakeVectorData([]float64{1, 0, 1}), Weight: 1},
		{Visible: anyvec64.MakeVectorData([]float64{1, 0, 1}), Weight: 2},
		{Visible: anyvec64.MakeVectorData([]float64{0, 1, 1}), Weight: 1},
	}
	if h := list.Hash(0); len(h) != 8 {
		t.Fatalf("expected 8 byte hash but got %d bytes", len(h))
	}
	if !bytes.Equal(list.Hash(0), list.Hash(1)) {
		t.Error("identical samples should hash equally")
	}
	if bytes.Equal(list.Hash(0), list.Hash(2)) {
		t.Error("weight should affect the hash")
	}
	if bytes.Equal(list.Hash(0), list.Hash(3)) {
		t.Error("visible units should affect the hash")
	}
}

func TestSliceSampleListSplit(t *testing.T) {
	list := testSamples(500, 6, 1)
	left, right := anysgd.HashSplit(list, 0.25)
	if left.Len()+right.Len() != 500 {
		t.Fatalf("split lost samples: %d+%d", left.Len(), right.Len())
	}
	if left.Len() < 75 || left.Len() > 175 {
		t.Errorf("unexpected left size %d", left.Len())
	}
	left1, _ := anysgd.HashSplit(testSamples(500, 6, 1), 0.25)
	for i := 0; i < left.Len(); i++ {
		if !bytes.Equal(left.(SliceSampleList).Hash(i), left1.(SliceSampleList).Hash(i)) {
			t.Fatal("split should be deterministic")
		}
	}
}
