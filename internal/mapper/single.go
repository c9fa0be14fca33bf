package mapper

import (
	"github.com/masarunakajima/methylign/internal/gindex"
	"github.com/masarunakajima/methylign/internal/seq"
)

// ConversionMode selects which (strand, conversion) combinations the
// single-end search tries, per spec.md §4.6.
type ConversionMode int

const (
	ConvDefault ConversionMode = iota // T-rich forward + A-rich reverse-complement
	ConvPBAT                          // the complementary pair
	ConvRandomPBAT                    // all four combinations
	ConvARich                         // directional A-rich library (-A): same pair as PBAT, named for clarity
)

// combo is one (conversion, strand) attempt.
type combo struct {
	aRich bool
	rc    bool
}

var defaultCombos = []combo{{aRich: false, rc: false}, {aRich: true, rc: true}}
var pbatCombos = []combo{{aRich: true, rc: false}, {aRich: false, rc: true}}

func combosFor(mode ConversionMode) []combo {
	switch mode {
	case ConvPBAT, ConvARich:
		return pbatCombos
	case ConvRandomPBAT:
		return append(append([]combo{}, defaultCombos...), pbatCombos...)
	default:
		return defaultCombos
	}
}

func flagsFor(c combo) uint16 {
	var f uint16
	if c.rc {
		f |= FlagRC
	}
	if c.aRich {
		f |= FlagARich
	}
	return f
}

func encodeCombo(ascii string, c combo) seq.EncodedRead {
	a := ascii
	if c.rc {
		a = seq.ReverseComplement(a)
	}
	if c.aRich {
		return seq.EncodeARich(a)
	}
	return seq.EncodeTRich(a)
}

// MinAlignedLength is the read-length floor (spec.md §7 supplement):
// reads with fewer than this many non-N bases are classified skipped
// rather than attempted.
const MinAlignedLength = 12

// ValidFrac and InvalidHitFrac are the default reporting thresholds
// from spec.md §4.6.
const (
	ValidFrac      = 0.1
	InvalidHitFrac = 0.4
)

// Searcher runs the seed-and-extend candidate search shared by the
// single-end and paired-end mappers. One Searcher (and its Aligner) is
// owned per worker goroutine; it touches no shared mutable state.
type Searcher struct {
	Index      *gindex.Index
	Aligner    *Aligner
	MaxCandidates int
}

// NewSearcher builds a per-worker searcher bound to an immutable index.
func NewSearcher(idx *gindex.Index, maxReadLen, maxCandidates int) *Searcher {
	return &Searcher{
		Index:         idx,
		Aligner:       NewAligner(maxReadLen),
		MaxCandidates: idx.ClampMaxCandidates(maxCandidates),
	}
}

// candidateSink is satisfied by both SeResult (single-result tracking)
// and PeCandidates (bounded heap), per design note §9's polymorphism
// guidance.
type candidateSink interface {
	Update(pos uint32, diffs int16, flags uint16)
	Cutoff() int16
}

// seUpdater adapts SeResult to candidateSink.
type seUpdater struct{ r *SeResult }

func (u seUpdater) Update(pos uint32, diffs int16, flags uint16) {
	u.r.Update(SeEntry{Pos: pos, Diffs: diffs, Flags: flags})
}
func (u seUpdater) Cutoff() int16 {
	if !u.r.hasSecond {
		return 1<<15 - 1
	}
	return u.r.SecondBest.Diffs
}

// peUpdater adapts PeCandidates to candidateSink.
type peUpdater struct{ c *PeCandidates }

func (u peUpdater) Update(pos uint32, diffs int16, flags uint16) {
	u.c.Add(SeEntry{Pos: pos, Diffs: diffs, Flags: flags})
}
func (u peUpdater) Cutoff() int16 { return u.c.Cutoff() }

// specificPass runs the index_interval-offset seed search, refined to
// NSortingPositions.
func (s *Searcher) specificPass(encoded seq.EncodedRead, even, odd seq.PackedRead, flags uint16, sink candidateSink) {
	idx := s.Index
	interval := idx.IndexInterval
	if interval < 1 {
		interval = 1
	}
	for start := 0; start < interval; start++ {
		if start+idx.KeyWeight > len(encoded) {
			continue
		}
		s.probeAndCheck(encoded, even, odd, start, idx.NSortingPositions, flags, sink)
	}
}

// sensitivePass slides a full seed across the read in roughly-equal
// steps, refined to NSeedPositions, to recover alignments whose 5' end
// is corrupted or conversion-ambiguous.
func (s *Searcher) sensitivePass(encoded seq.EncodedRead, even, odd seq.PackedRead, flags uint16, sink candidateSink) {
	idx := s.Index
	readLen := len(encoded)
	if readLen < idx.KeyWeight {
		return
	}
	numSteps := (readLen + idx.NSeedPositions - 1) / idx.NSeedPositions
	if numSteps < 1 {
		numSteps = 1
	}
	step := 0
	if numSteps > 1 {
		step = (readLen - idx.KeyWeight) / (numSteps - 1)
	}
	for i := 0; i < numSteps; i++ {
		start := i * step
		if start+idx.KeyWeight > readLen {
			break
		}
		s.probeAndCheck(encoded, even, odd, start, idx.NSeedPositions, flags, sink)
	}
}

func (s *Searcher) probeAndCheck(encoded seq.EncodedRead, even, odd seq.PackedRead, start, refineDepth int, flags uint16, sink candidateSink) {
	idx := s.Index
	key := GetHash(encoded, start, idx.KeyWeight)
	lo, hi := Probe(idx, key)
	lo, hi = Refine(idx, encoded[start:], lo, hi, refineDepth)
	if int(hi-lo) > s.MaxCandidates {
		return // throughput guard: this seed offset is skipped entirely
	}
	for i := lo; i < hi; i++ {
		pos := idx.Positions[i]
		if pos < uint32(start) {
			continue
		}
		predictedStart := pos - uint32(start)
		cutoff := sink.Cutoff()
		const maxCutoff = 1 << 14 // headroom so cutoff+1 never overflows int16
		if cutoff > maxCutoff {
			cutoff = maxCutoff
		}
		if cutoff < 0 {
			cutoff = 0
		}
		diffs := FullCompare(idx, predictedStart, even, odd, cutoff+1)
		sink.Update(predictedStart, diffs, flags)
	}
}

// MapSingle runs the full single-end candidate search and banded
// alignment for one read, returning the result and whether the read
// was skipped (below the length floor).
func (s *Searcher) MapSingle(readSeq string, mode ConversionMode) (result *SeResult, skipped bool) {
	if seq.CountNonN(readSeq) < MinAlignedLength {
		return nil, true
	}

	result = NewSeResult()
	sink := func() seUpdater { return seUpdater{r: result} }

	exact := false
	for _, c := range combosFor(mode) {
		encoded := encodeCombo(readSeq, c)
		even, odd := seq.PrepForSeeds(encoded)
		s.specificPass(encoded, even, odd, flagsFor(c), sink())
		if result.Best.Diffs == 0 {
			exact = true
			break
		}
	}

	if !exact && !result.SureAmbig(0) {
		for _, c := range combosFor(mode) {
			encoded := encodeCombo(readSeq, c)
			even, odd := seq.PrepForSeeds(encoded)
			s.sensitivePass(encoded, even, odd, flagsFor(c), sink())
			if result.SureAmbig(1) {
				break
			}
		}
	}

	s.alignResult(result, readSeq)
	return result, false
}

// alignResult runs the banded aligner on Best/SecondBest, replacing
// their pre-alignment Hamming diffs with edit-distance diffs and a
// CIGAR, then promotes SecondBest over Best if alignment gives it a
// strictly better score (spec.md §4.6).
func (s *Searcher) alignResult(result *SeResult, readSeq string) {
	alignOne := func(e *SeEntry) {
		if e.Diffs >= 1<<15-1 || !ValidForAlignment(e.Diffs, len(readSeq)) {
			return
		}
		c := combo{aRich: e.IsARich(), rc: e.IsRC()}
		encoded := encodeCombo(readSeq, c)
		sc, cigar, refStart, diffs := s.Aligner.Align(s.Index, encoded, e.Pos)
		e.AlnScore = sc
		e.Cigar = cigar
		e.Pos = refStart
		e.Diffs = diffs
	}
	alignOne(&result.Best)
	if result.hasSecond {
		alignOne(&result.SecondBest)
	}
	result.PromoteByScore()
}

// Valid reports whether a result meets the default reporting threshold.
func Valid(e SeEntry, readLen int) bool {
	return ValidWithFrac(e, readLen, ValidFrac)
}

// ValidWithFrac reports whether a result meets a caller-supplied
// fractional edit distance threshold (the CLI's -M flag); frac<=0
// falls back to ValidFrac.
func ValidWithFrac(e SeEntry, readLen int, frac float64) bool {
	if frac <= 0 {
		frac = ValidFrac
	}
	return float64(e.Diffs) <= frac*float64(readLen)
}

// ValidForAlignment reports whether a candidate is worth refining with
// the banded aligner at all.
func ValidForAlignment(diffs int16, readLen int) bool {
	return float64(diffs) <= InvalidHitFrac*float64(readLen)
}
