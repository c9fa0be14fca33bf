package mapper

import "github.com/masarunakajima/methylign/internal/seq"

// PEConfig carries the paired-end fragment window and bounded-heap
// capacity (spec.md §4.7 defaults).
type PEConfig struct {
	MinDist  uint32 // default 32
	MaxDist  uint32 // default 3000
	MaxMates int    // default 20
}

// DefaultPEConfig returns spec.md's stated defaults.
func DefaultPEConfig() PEConfig {
	return PEConfig{MinDist: 32, MaxDist: 3000, MaxMates: 20}
}

// collectCandidates runs the full specific+sensitive seed search for
// one mate, accumulating every surviving candidate (not just top-2)
// into a bounded max-heap, per spec.md §4.7's "without pruning to
// top-2" instruction.
func (s *Searcher) collectCandidates(readSeq string, mode ConversionMode, maxMates int) *PeCandidates {
	heap := NewPeCandidates(maxMates)
	sink := peUpdater{c: heap}
	for _, c := range combosFor(mode) {
		encoded := encodeCombo(readSeq, c)
		even, odd := seq.PrepForSeeds(encoded)
		s.specificPass(encoded, even, odd, flagsFor(c), sink)
		s.sensitivePass(encoded, even, odd, flagsFor(c), sink)
	}
	return heap
}

// MapPaired runs the paired-end candidate search and mating procedure
// for a read pair, returning the best/second-best concordant pairs. If
// either mate is below the length floor, ok is false and the caller
// should fall back per-mate to MapSingle.
func (s *Searcher) MapPaired(read1, read2 string, mode ConversionMode, cfg PEConfig) (result *PeResult, ok bool) {
	if seq.CountNonN(read1) < MinAlignedLength || seq.CountNonN(read2) < MinAlignedLength {
		return nil, false
	}

	h1 := s.collectCandidates(read1, mode, cfg.MaxMates)
	h2 := s.collectCandidates(read2, mode, cfg.MaxMates)
	e1 := h1.Entries()
	e2 := h2.Entries()
	if len(e1) == 0 || len(e2) == 0 {
		return nil, false
	}

	result = NewPeResult()
	read2Len := uint32(len(read2))

	type alignedR2 struct {
		done  bool
		score int16
		cigar CIGAR
		pos   uint32
		diffs int16
	}
	r2Aligned := make([]alignedR2, len(e2))

	alignR1 := func(e SeEntry) SeEntry {
		c := combo{aRich: e.IsARich(), rc: e.IsRC()}
		encoded := encodeCombo(read1, c)
		sc, cigar, refStart, diffs := s.Aligner.Align(s.Index, encoded, e.Pos)
		e.AlnScore, e.Cigar, e.Pos, e.Diffs = sc, cigar, refStart, diffs
		return e
	}
	alignR2 := func(j int) SeEntry {
		if !r2Aligned[j].done {
			e := e2[j]
			c := combo{aRich: e.IsARich(), rc: e.IsRC()}
			encoded := encodeCombo(read2, c)
			sc, cigar, refStart, diffs := s.Aligner.Align(s.Index, encoded, e.Pos)
			r2Aligned[j] = alignedR2{true, sc, cigar, refStart, diffs}
		}
		a := r2Aligned[j]
		e := e2[j]
		e.AlnScore, e.Cigar, e.Pos, e.Diffs = a.score, a.cigar, a.pos, a.diffs
		return e
	}

	r1idx := 0
	for j, cand2 := range e2 {
		for r1idx < len(e1) && e1[r1idx].Pos+cfg.MaxDist < cand2.Pos+read2Len {
			r1idx++
		}
		for k := r1idx; k < len(e1) && e1[k].Pos+cfg.MinDist <= cand2.Pos+read2Len; k++ {
			cand1 := e1[k]
			if cand1.IsRC() == cand2.IsRC() {
				continue // concordant pairs require opposite strand mates
			}
			r1 := alignR1(cand1)
			r2 := alignR2(j)
			result.Update(PeEntry{R1: r1, R2: r2})
		}
	}

	if !result.hasBest {
		return nil, false
	}
	return result, true
}
