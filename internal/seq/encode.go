// Package seq implements the 4-bit conversion-aware base encoding used
// throughout the mapper: canonical genome masks, T-rich and A-rich read
// masks, and the packed even/odd seeding views derived from them.
package seq

// Base masks. Canonical form is used for the genome; T-rich and A-rich
// are read-side encodings that fold a bisulfite conversion into the bit
// pattern so that mismatch(read, ref) = (read & ref) == 0 treats the
// conversion as a match.
const (
	MaskA = 0x1 // 0001
	MaskC = 0x2 // 0010
	MaskG = 0x4 // 0100
	MaskT = 0x8 // 1000
	MaskN = 0x0

	// T-rich T also carries the C bit, so it matches reference C as well
	// as reference T.
	maskTRichT = MaskT | MaskC // 1010

	// A-rich A also carries the G bit, so it matches reference G as well
	// as reference A.
	maskARichA = MaskA | MaskG // 0101
)

var refTable [256]byte
var tRichTable [256]byte
var aRichTable [256]byte

func init() {
	set := func(t *[256]byte, upper, lower byte, v byte) {
		t[upper] = v
		t[lower] = v
	}
	set(&refTable, 'A', 'a', MaskA)
	set(&refTable, 'C', 'c', MaskC)
	set(&refTable, 'G', 'g', MaskG)
	set(&refTable, 'T', 't', MaskT)

	set(&tRichTable, 'A', 'a', MaskA)
	set(&tRichTable, 'C', 'c', MaskC)
	set(&tRichTable, 'G', 'g', MaskG)
	set(&tRichTable, 'T', 't', maskTRichT)

	set(&aRichTable, 'A', 'a', maskARichA)
	set(&aRichTable, 'C', 'c', MaskC)
	set(&aRichTable, 'G', 'g', MaskG)
	set(&aRichTable, 'T', 't', MaskT)
}

// EncodeRefBase encodes a single genome (reference) base. Anything
// outside ACGTacgt, including N, encodes to 0 and therefore matches no
// real base under the AND-equals-zero mismatch rule.
func EncodeRefBase(b byte) byte { return refTable[b] }

// EncodeTRichBase encodes a single read base under the T-rich
// (original strand) bisulfite convention.
func EncodeTRichBase(b byte) byte { return tRichTable[b] }

// EncodeARichBase encodes a single read base under the A-rich
// (complementary strand) bisulfite convention.
func EncodeARichBase(b byte) byte { return aRichTable[b] }

// EncodedRead is one 4-bit mask per base, stored one byte per base.
type EncodedRead []byte

// EncodeTRich encodes an entire ASCII read under the T-rich convention.
func EncodeTRich(ascii string) EncodedRead {
	out := make(EncodedRead, len(ascii))
	for i := 0; i < len(ascii); i++ {
		out[i] = EncodeTRichBase(ascii[i])
	}
	return out
}

// EncodeARich encodes an entire ASCII read under the A-rich convention.
func EncodeARich(ascii string) EncodedRead {
	out := make(EncodedRead, len(ascii))
	for i := 0; i < len(ascii); i++ {
		out[i] = EncodeARichBase(ascii[i])
	}
	return out
}

// EncodeRef encodes an entire ASCII sequence under the canonical
// (reference) convention.
func EncodeRef(ascii string) EncodedRead {
	out := make(EncodedRead, len(ascii))
	for i := 0; i < len(ascii); i++ {
		out[i] = EncodeRefBase(ascii[i])
	}
	return out
}

var complementTable [256]byte

func init() {
	for i := range complementTable {
		complementTable[i] = 'N'
	}
	pairs := []struct{ a, b byte }{
		{'A', 'T'}, {'T', 'A'}, {'C', 'G'}, {'G', 'C'},
		{'a', 't'}, {'t', 'a'}, {'c', 'g'}, {'g', 'c'},
		{'N', 'N'}, {'n', 'n'},
	}
	for _, p := range pairs {
		complementTable[p.a] = p.b
	}
}

// ReverseComplement returns the reverse complement of an ASCII DNA
// sequence. Non-ACGTN bytes complement to N.
func ReverseComplement(s string) string {
	rc := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		rc[len(s)-1-i] = complementTable[s[i]]
	}
	return string(rc)
}

// DesignatedBit extracts bit 0 ("is this base A") from an encoded base
// mask. This bit is 1 for A under all three encodings above (canonical,
// T-rich, A-rich) and is what the seed hasher and index refiner compare.
// It is invariant under the T-rich conversion (read T and reference C
// both have it clear); under the A-rich conversion it is not, since read
// A has it set while a reference G does not.
func DesignatedBit(mask byte) byte { return mask & 0x1 }

// CountNonN reports how many bytes of an ASCII sequence are not N or n.
// Used for the read-length floor: reads below the floor are skipped
// rather than attempted.
func CountNonN(ascii string) int {
	n := 0
	for i := 0; i < len(ascii); i++ {
		if ascii[i] != 'N' && ascii[i] != 'n' {
			n++
		}
	}
	return n
}
