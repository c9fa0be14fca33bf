package mapper

import (
	"sort"

	"github.com/masarunakajima/methylign/internal/gindex"
	"github.com/masarunakajima/methylign/internal/seq"
)

// Probe returns the index-array range [lo, hi) holding all genome
// positions sharing the given seed hash key.
func Probe(idx *gindex.Index, key uint32) (lo, hi uint32) {
	return idx.Probe(key)
}

func genomeBitAt(idx *gindex.Index, pos uint32, offset int) byte {
	gp := pos + uint32(offset)
	if gp >= idx.GenomeSize {
		return 0
	}
	return seq.DesignatedBit(idx.GenomeBase(gp))
}

// Refine narrows [lo, hi) by binary-searching, for each base offset
// from KeyWeight up to upTo-1 (capped at the read's length), the
// boundary between candidates whose designated bit at pos+offset is 0
// and those where it is 1 — and keeping only the half agreeing with the
// read's own designated bit at that offset. The input range must
// already be sorted by that same bit vector, which is how the index is
// built.
func Refine(idx *gindex.Index, read seq.EncodedRead, lo, hi uint32, upTo int) (uint32, uint32) {
	limit := upTo
	if len(read) < limit {
		limit = len(read)
	}
	for p := idx.KeyWeight; p < limit; p++ {
		if lo >= hi {
			break
		}
		readBit := seq.DesignatedBit(read[p])
		boundary := lo + uint32(sort.Search(int(hi-lo), func(i int) bool {
			pos := idx.Positions[int(lo)+i]
			return genomeBitAt(idx, pos, p) == 1
		}))
		if readBit == 0 {
			hi = boundary
		} else {
			lo = boundary
		}
	}
	return lo, hi
}
