package anysgd

import (
	"bytes"
	"sort"
)

// HashSplit deterministically partitions a Hasher into
// two lists, for example to hold out validation samples.
//
// A sample goes to the left list if its hash, read as a
// big-endian fraction in [0, 1), is below leftRatio.
// The Hasher is re-ordered so that the left samples come
// first.
func HashSplit(h Hasher, leftRatio float64) (left, right SampleList) {
	cutoff := fractionBytes(leftRatio)
	if leftRatio >= 1 {
		return h, h.Slice(0, 0)
	}
	sort.Stable(&hashSorter{Hasher: h, Cutoff: cutoff})
	split := sort.Search(h.Len(), func(i int) bool {
		return bytes.Compare(h.Hash(i), cutoff) >= 0
	})
	return h.Slice(0, split), h.Slice(split, h.Len())
}

// hashSorter moves hashes below the cutoff to the front,
// keeping the order within each side.
type hashSorter struct {
	Hasher
	Cutoff []byte
}

func (h *hashSorter) Less(i, j int) bool {
	return h.below(i) && !h.below(j)
}

func (h *hashSorter) below(i int) bool {
	return bytes.Compare(h.Hash(i), h.Cutoff) < 0
}

// fractionBytes writes the first 8 base-256 digits of a
// fraction in [0, 1].
func fractionBytes(frac float64) []byte {
	res := make([]byte, 8)
	for i := range res {
		frac *= 256
		digit := int(frac)
		if digit > 255 {
			digit = 255
		}
		res[i] = byte(digit)
		frac -= float64(digit)
	}
	return res
}
