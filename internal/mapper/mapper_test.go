package mapper

import (
	"strings"
	"testing"

	"github.com/masarunakajima/methylign/internal/gindex"
)

func buildTestIndex(genome string) *gindex.Index {
	cfg := gindex.BuildConfig{
		KeyWeight:         6,
		NSortingPositions: 12,
		NSeedPositions:    20,
		IndexInterval:     1,
		MaxMaxCandidates:  2000,
	}
	return gindex.Build(genome, []gindex.Chrom{{Name: "chr1", Start: 0, Length: uint32(len(genome))}}, cfg)
}

// S1 — exact single-end T-rich.
func TestExactMatchSingleEnd(t *testing.T) {
	genome := "ACGTACGTACGTACGT" + strings.Repeat("N", 200)
	idx := buildTestIndex(genome)
	s := NewSearcher(idx, 64, 500)
	result, skipped := s.MapSingle("ACGTACGTACGTACGT", ConvDefault)
	if skipped {
		t.Fatalf("unexpectedly skipped")
	}
	if result.Best.Diffs != 0 {
		t.Fatalf("Best.Diffs = %d, want 0", result.Best.Diffs)
	}
	if result.Best.Pos != 0 {
		t.Fatalf("Best.Pos = %d, want 0", result.Best.Pos)
	}
	if result.Best.IsRC() {
		t.Fatalf("Best should be forward strand")
	}
	if result.Best.Cigar != "16M" {
		t.Fatalf("Cigar = %q, want 16M", result.Best.Cigar)
	}
}

// S2 — bisulfite-converted single-end: every C became T.
func TestBisulfiteConvertedSingleEnd(t *testing.T) {
	genome := "ACGTACGTACGTACGT" + strings.Repeat("N", 200)
	idx := buildTestIndex(genome)
	s := NewSearcher(idx, 64, 500)
	result, skipped := s.MapSingle("ATGTATGTATGTATGT", ConvDefault)
	if skipped {
		t.Fatalf("unexpectedly skipped")
	}
	if result.Best.Diffs != 0 {
		t.Fatalf("Best.Diffs = %d, want 0", result.Best.Diffs)
	}
	if result.Best.Pos != 0 {
		t.Fatalf("Best.Pos = %d, want 0", result.Best.Pos)
	}
}

func TestReadBelowLengthFloorSkipped(t *testing.T) {
	genome := "ACGTACGTACGTACGT" + strings.Repeat("N", 200)
	idx := buildTestIndex(genome)
	s := NewSearcher(idx, 64, 500)
	_, skipped := s.MapSingle("ACGTACGT", ConvDefault)
	if !skipped {
		t.Fatalf("expected short read to be skipped")
	}
}

func TestSeResultOrderingInvariant(t *testing.T) {
	r := NewSeResult()
	r.Update(SeEntry{Pos: 10, Diffs: 3})
	r.Update(SeEntry{Pos: 20, Diffs: 1})
	r.Update(SeEntry{Pos: 30, Diffs: 5})
	if r.Best.Diffs > r.SecondBest.Diffs {
		t.Fatalf("invariant violated: best.diffs=%d > second.diffs=%d", r.Best.Diffs, r.SecondBest.Diffs)
	}
	if r.Best.Pos == r.SecondBest.Pos {
		t.Fatalf("best and second share a position")
	}
}

func TestSeResultDeduplication(t *testing.T) {
	r := NewSeResult()
	r.Update(SeEntry{Pos: 10, Diffs: 0})
	r.Update(SeEntry{Pos: 10, Diffs: 0})
	if r.hasSecond {
		t.Fatalf("duplicate (pos,flags) candidate should not populate second_best")
	}
}

func TestPeCandidatesBoundedHeap(t *testing.T) {
	h := NewPeCandidates(3)
	for i, d := range []int16{5, 3, 8, 1, 9, 2} {
		h.Add(SeEntry{Pos: uint32(i), Diffs: d})
	}
	entries := h.Entries()
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	var diffs []int16
	for _, e := range entries {
		diffs = append(diffs, e.Diffs)
	}
	want := map[int16]bool{1: true, 2: true, 3: true}
	for _, d := range diffs {
		if !want[d] {
			t.Fatalf("unexpected diffs %d retained in bounded heap, got %v", d, diffs)
		}
	}
}

func TestPeCandidatesEntriesDedupesSamePosAndFlags(t *testing.T) {
	h := NewPeCandidates(10)
	h.Add(SeEntry{Pos: 100, Diffs: 0, Flags: 0})
	h.Add(SeEntry{Pos: 100, Diffs: 0, Flags: 0}) // same seed re-probed at a different refine depth
	h.Add(SeEntry{Pos: 200, Diffs: 1, Flags: 0})
	entries := h.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (duplicate at pos 100 should collapse): %v", len(entries), entries)
	}
	if entries[0].Pos != 100 || entries[1].Pos != 200 {
		t.Fatalf("unexpected positions: %v", entries)
	}
}

func TestCigarConsistency(t *testing.T) {
	c := CIGAR("5S10M2I3M5S")
	readLen := uint32(5 + 10 + 2 + 3 + 5)
	if got := c.QueryConsumed(); got != readLen {
		t.Fatalf("QueryConsumed = %d, want %d", got, readLen)
	}
	if got := c.RefConsumed(); got != 13 {
		t.Fatalf("RefConsumed = %d, want 13", got)
	}
}

func TestPairedEndConcordant(t *testing.T) {
	e1 := strings.Repeat("ACGT", 20) // 80bp block, pos 1000
	gap := strings.Repeat("N", 400)
	e2 := strings.Repeat("TGCA", 20) // 80bp block whose RC maps at pos 1480
	genome := strings.Repeat("N", 1000) + e1 + gap + e2 + strings.Repeat("N", 500)
	idx := buildTestIndex(genome)
	s := NewSearcher(idx, 200, 2000)

	read1 := e1
	read2 := reverseComplementForTest(e2)
	cfg := DefaultPEConfig()
	result, ok := s.MapPaired(read1, read2, ConvDefault, cfg)
	if !ok {
		t.Fatalf("expected a concordant pair")
	}
	if result.Best.R1.Diffs != 0 || result.Best.R2.Diffs != 0 {
		t.Fatalf("expected exact mates, got diffs %d,%d", result.Best.R1.Diffs, result.Best.R2.Diffs)
	}
	if result.Ambiguous() {
		t.Fatalf("a single genuine exact pair should not report Ambiguous (duplicate candidate leaking into SecondBest)")
	}
}

func reverseComplementForTest(s string) string {
	comp := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[len(s)-1-i] = comp[s[i]]
	}
	return string(out)
}
