package mapper

import (
	"github.com/masarunakajima/methylign/internal/gindex"
	"github.com/masarunakajima/methylign/internal/seq"
)

// FullCompare scans a candidate genome position against a read's
// packed even/odd forms, counting mismatches under the AND-equals-zero
// predicate. It stops early once the count reaches cutoff. Candidate
// parity (pos's low bit) selects which packed form aligns byte-for-byte
// against the genome, per spec.md §4.4: the even form starts at genome
// byte pos/2 on the low nibble, the odd form at the same byte but
// logically begins reading from its upper nibble.
func FullCompare(idx *gindex.Index, pos uint32, even, odd seq.PackedRead, cutoff int16) int16 {
	form := even
	if pos%2 != 0 {
		form = odd
	}
	base := pos / 2
	var d int16
	for i := 0; i < len(form); i++ {
		gi := base + uint32(i)
		if gi >= uint32(len(idx.Genome)) {
			break
		}
		gb := idx.Genome[gi]
		rb := form[i]
		if seq.LowNibble(gb)&seq.LowNibble(rb) == 0 {
			d++
			if d >= cutoff {
				return d
			}
		}
		if seq.HighNibble(gb)&seq.HighNibble(rb) == 0 {
			d++
			if d >= cutoff {
				return d
			}
		}
	}
	return d
}
