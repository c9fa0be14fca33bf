// Package mapper implements the seed-and-extend bisulfite read mapper:
// seed hashing, index probing, candidate comparison, banded alignment,
// and single/paired-end candidate search and selection.
package mapper

import "container/heap"

// Flag bits recorded on a candidate.
const (
	FlagRC    uint16 = 1 << 0 // candidate used the read's reverse complement
	FlagARich uint16 = 1 << 1 // candidate used the A-rich conversion
)

// SeEntry is one candidate hit: a genome position plus how it scored.
type SeEntry struct {
	Pos      uint32
	Diffs    int16
	AlnScore int16
	Flags    uint16
	Cigar    CIGAR
}

// IsRC reports whether this candidate matched the read's reverse
// complement.
func (e SeEntry) IsRC() bool { return e.Flags&FlagRC != 0 }

// IsARich reports whether this candidate used the A-rich conversion.
func (e SeEntry) IsARich() bool { return e.Flags&FlagARich != 0 }

func sameCandidate(a, b SeEntry) bool {
	return a.Pos == b.Pos && a.Flags == b.Flags
}

// SeResult tracks the best and second-best single-end candidates seen
// so far. Invariant: Best.Diffs <= SecondBest.Diffs, and the two never
// share (Pos, Flags).
type SeResult struct {
	Best, SecondBest SeEntry
	hasBest          bool
	hasSecond        bool
}

// NewSeResult returns an empty result with both slots at worst-possible
// quality.
func NewSeResult() *SeResult {
	worst := SeEntry{Diffs: 1<<15 - 1}
	return &SeResult{Best: worst, SecondBest: worst}
}

// Update folds in a newly compared candidate. A candidate replaces
// SecondBest if it has strictly fewer diffs than SecondBest; if it then
// beats Best, the two are swapped. Duplicates of the current Best are
// ignored.
func (r *SeResult) Update(cand SeEntry) {
	if r.hasBest && sameCandidate(cand, r.Best) {
		return
	}
	if r.hasSecond && sameCandidate(cand, r.SecondBest) {
		return
	}
	if !r.hasSecond || cand.Diffs < r.SecondBest.Diffs {
		r.SecondBest = cand
		r.hasSecond = true
	} else {
		return
	}
	if !r.hasBest || r.SecondBest.Diffs < r.Best.Diffs {
		r.Best, r.SecondBest = r.SecondBest, r.Best
		r.hasBest, r.hasSecond = true, r.hasBest
	}
}

// SureAmbig resolves spec.md's Open Question 3: once both top
// candidates tie at the floor achievable by the current pass, no
// further seeding can disambiguate them, so the search can stop early.
// seedNumber is 0 during the specific pass's first (offset-0) probe and
// nonzero once a later seed offset has been tried.
func (r *SeResult) SureAmbig(seedNumber int) bool {
	if !r.hasBest || !r.hasSecond {
		return false
	}
	if r.Best.Diffs != r.SecondBest.Diffs {
		return false
	}
	if r.Best.Diffs == 0 {
		return true
	}
	return seedNumber > 0 && r.Best.Diffs == 1
}

// Ambiguous reports whether the two top candidates are equivalent in
// quality under the active criterion (equal Diffs after alignment).
func (r *SeResult) Ambiguous() bool {
	return r.hasBest && r.hasSecond && r.Best.Diffs == r.SecondBest.Diffs
}

// PromoteByScore swaps Best/SecondBest if alignment gave SecondBest a
// strictly higher AlnScore than Best.
func (r *SeResult) PromoteByScore() {
	if r.hasBest && r.hasSecond && r.SecondBest.AlnScore > r.Best.AlnScore {
		r.Best, r.SecondBest = r.SecondBest, r.Best
	}
}

// peCandHeap is a min-heap by Diffs with max-on-top semantics inverted:
// container/heap always gives us a min-heap by Less, so to bound by
// worst-diffs-evicted-first we keep Less meaning "worse than", making
// the root the currently worst (max-diffs) candidate, which is exactly
// what a bounded max-heap needs to evict when a better candidate
// arrives and the heap is full.
type peCandHeap []SeEntry

func (h peCandHeap) Len() int            { return len(h) }
func (h peCandHeap) Less(i, j int) bool  { return h[i].Diffs > h[j].Diffs }
func (h peCandHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *peCandHeap) Push(x interface{}) { *h = append(*h, x.(SeEntry)) }
func (h *peCandHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// PeCandidates is a bounded max-heap of SeEntry ordered by Diffs,
// capacity MaxMates. When full, a strictly better (lower-diffs)
// candidate evicts the current worst.
type PeCandidates struct {
	h        peCandHeap
	MaxMates int
}

// NewPeCandidates returns an empty bounded heap with the given
// capacity.
func NewPeCandidates(maxMates int) *PeCandidates {
	return &PeCandidates{MaxMates: maxMates}
}

// Add inserts a candidate, evicting the current worst if the heap is
// already at capacity and the new candidate is better.
func (p *PeCandidates) Add(e SeEntry) {
	if len(p.h) < p.MaxMates {
		heap.Push(&p.h, e)
		return
	}
	if len(p.h) > 0 && e.Diffs < p.h[0].Diffs {
		heap.Pop(&p.h)
		heap.Push(&p.h, e)
	}
}

// Cutoff returns the diffs value a new candidate must beat to be worth
// comparing at all: the current worst once the heap is full, or no
// bound otherwise.
func (p *PeCandidates) Cutoff() int16 {
	if len(p.h) < p.MaxMates {
		return 1<<15 - 1
	}
	return p.h[0].Diffs
}

// Entries returns the heap's contents sorted by genome position,
// ascending, and deduplicated by (Pos, Flags) — the same seed probed at
// two different refine depths (specificPass and sensitivePass) can land
// the identical candidate in the heap twice, and the mating step in
// paired.go requires a duplicate-free list to mate against.
func (p *PeCandidates) Entries() []SeEntry {
	out := make([]SeEntry, len(p.h))
	copy(out, p.h)
	sortByPos(out)
	return dedupeByPos(out)
}

// dedupeByPos collapses adjacent (Pos, Flags) duplicates in a
// position-sorted slice, keeping the first (lowest-Diffs after Add's
// eviction rule never inserts a worse duplicate over a better one, so
// either occurrence is representative).
func dedupeByPos(e []SeEntry) []SeEntry {
	if len(e) == 0 {
		return e
	}
	out := e[:1]
	for i := 1; i < len(e); i++ {
		if sameCandidate(e[i], out[len(out)-1]) {
			continue
		}
		out = append(out, e[i])
	}
	return out
}

func sortByPos(e []SeEntry) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && (e[j].Pos < e[j-1].Pos || (e[j].Pos == e[j-1].Pos && e[j].Flags < e[j-1].Flags)); j-- {
			e[j], e[j-1] = e[j-1], e[j]
		}
	}
}

// PeEntry is a concordant pair: one SeEntry per mate.
type PeEntry struct {
	R1, R2 SeEntry
}

func (p PeEntry) combinedScore() int { return int(p.R1.AlnScore) + int(p.R2.AlnScore) }
func (p PeEntry) combinedDiffs() int16 { return p.R1.Diffs + p.R2.Diffs }

// PeResult tracks the best and second-best concordant pairs seen.
type PeResult struct {
	Best, SecondBest PeEntry
	hasBest          bool
	hasSecond        bool
}

// NewPeResult returns an empty paired-end result.
func NewPeResult() *PeResult { return &PeResult{} }

// Update folds in a newly aligned pair, ranked by combined alignment
// score (spec.md §4.7).
func (r *PeResult) Update(cand PeEntry) {
	if !r.hasBest {
		r.Best, r.hasBest = cand, true
		return
	}
	if cand.combinedScore() > r.Best.combinedScore() {
		r.SecondBest, r.hasSecond = r.Best, r.hasBest
		r.Best = cand
		return
	}
	if !r.hasSecond || cand.combinedScore() > r.SecondBest.combinedScore() {
		r.SecondBest, r.hasSecond = cand, true
	}
}

// Ambiguous reports whether the top two pairs are equivalent in
// quality (equal combined diffs).
func (r *PeResult) Ambiguous() bool {
	return r.hasBest && r.hasSecond && r.Best.combinedDiffs() == r.SecondBest.combinedDiffs()
}

// HasBest reports whether any pair was found at all.
func (r *PeResult) HasBest() bool { return r.hasBest }
