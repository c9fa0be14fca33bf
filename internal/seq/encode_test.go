package seq

import "testing"

func TestEncodeRoundTripPartners(t *testing.T) {
	// invariant 1: T-rich T matches ref C (its bisulfite partner) and
	// ref T, but not ref A/G.
	cases := []struct {
		readBase byte
		refBase  byte
		want     bool
	}{
		{'T', 'T', true},
		{'T', 'C', true},
		{'T', 'A', false},
		{'T', 'G', false},
		{'A', 'A', true},
		{'C', 'C', true},
		{'G', 'G', true},
	}
	for _, c := range cases {
		read := EncodeTRichBase(c.readBase)
		ref := EncodeRefBase(c.refBase)
		got := (read & ref) != 0
		if got != c.want {
			t.Errorf("t-rich %c vs ref %c: got match=%v want %v", c.readBase, c.refBase, got, c.want)
		}
	}
}

func TestEncodeARichPartner(t *testing.T) {
	cases := []struct {
		readBase byte
		refBase  byte
		want     bool
	}{
		{'A', 'A', true},
		{'A', 'G', true},
		{'A', 'C', false},
		{'A', 'T', false},
	}
	for _, c := range cases {
		read := EncodeARichBase(c.readBase)
		ref := EncodeRefBase(c.refBase)
		got := (read & ref) != 0
		if got != c.want {
			t.Errorf("a-rich %c vs ref %c: got match=%v want %v", c.readBase, c.refBase, got, c.want)
		}
	}
}

func TestMismatchPredicateSymmetric(t *testing.T) {
	bases := []byte{'A', 'C', 'G', 'T', 'N'}
	for _, a := range bases {
		for _, b := range bases {
			ea, eb := EncodeTRichBase(a), EncodeTRichBase(b)
			if (ea&eb == 0) != (eb&ea == 0) {
				t.Fatalf("mismatch predicate not symmetric for %c,%c", a, b)
			}
		}
	}
}

func TestUnknownBaseEncodesToZero(t *testing.T) {
	for _, b := range []byte{'N', 'n', 'X', '-', 0} {
		if EncodeRefBase(b) != MaskN {
			t.Errorf("ref encode of %v = %#x, want 0", b, EncodeRefBase(b))
		}
		if EncodeTRichBase(b) != MaskN {
			t.Errorf("t-rich encode of %v = %#x, want 0", b, EncodeTRichBase(b))
		}
	}
}

func TestReverseComplement(t *testing.T) {
	got := ReverseComplement("AAATTTCCCGGG")
	want := "CCCGGGAAATTT"
	if got != want {
		t.Errorf("ReverseComplement = %q, want %q", got, want)
	}
}

func TestPrepForSeedsSizes(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 7, 8} {
		r := make(EncodedRead, n)
		even, odd := PrepForSeeds(r)
		wantEven := (n + 1) / 2
		wantOdd := wantEven + 1
		if len(even) != wantEven {
			t.Errorf("n=%d: len(even)=%d want %d", n, len(even), wantEven)
		}
		if len(odd) != wantOdd {
			t.Errorf("n=%d: len(odd)=%d want %d", n, len(odd), wantOdd)
		}
	}
}

func TestPrepForSeedsPlacement(t *testing.T) {
	r := EncodeTRich("ACGT")
	even, odd := PrepForSeeds(r)
	if LowNibble(even[0]) != r[0] || HighNibble(even[0]) != r[1] {
		t.Errorf("even[0] = %#x, want low=%#x high=%#x", even[0], r[0], r[1])
	}
	if LowNibble(even[1]) != r[2] || HighNibble(even[1]) != r[3] {
		t.Errorf("even[1] = %#x, want low=%#x high=%#x", even[1], r[2], r[3])
	}
	if LowNibble(odd[0]) != padNibble || HighNibble(odd[0]) != r[0] {
		t.Errorf("odd[0] = %#x, want low=pad high=%#x", odd[0], r[0])
	}
	if LowNibble(odd[1]) != r[1] || HighNibble(odd[1]) != r[2] {
		t.Errorf("odd[1] = %#x, want low=%#x high=%#x", odd[1], r[1], r[2])
	}
	if LowNibble(odd[2]) != r[3] || HighNibble(odd[2]) != padNibble {
		t.Errorf("odd[2] = %#x, want low=%#x high=pad", odd[2], r[3])
	}
}

func TestCountNonN(t *testing.T) {
	if got := CountNonN("ACGTNNacgtnn"); got != 8 {
		t.Errorf("CountNonN = %d, want 8", got)
	}
}
