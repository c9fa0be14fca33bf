// Package stats aggregates per-read mapping outcomes into the counters
// reported by the .mapstats summary file, grounded on original_source's
// se_map_stats/pe_map_stats and the teacher's atomic.AddInt64 counter
// style (FilterStats in kfilt).
package stats

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/masarunakajima/methylign/internal/mapper"
)

// SeStats accumulates single-end outcome counts. Safe for concurrent
// updates from worker goroutines.
type SeStats struct {
	Total, Unique, Ambiguous, Unmapped, Skipped int64
}

// Update folds in one read's classification.
func (s *SeStats) Update(status mapper.Status) {
	atomic.AddInt64(&s.Total, 1)
	switch status {
	case mapper.StatusUnique:
		atomic.AddInt64(&s.Unique, 1)
	case mapper.StatusAmbiguous:
		atomic.AddInt64(&s.Ambiguous, 1)
	case mapper.StatusSkipped:
		atomic.AddInt64(&s.Skipped, 1)
	default:
		atomic.AddInt64(&s.Unmapped, 1)
	}
}

func pct(a, b int64) float64 {
	if b == 0 {
		return 0
	}
	return 100.0 * float64(a) / float64(b)
}

func (s *SeStats) writeTo(w io.Writer, indent string) {
	mapped := s.Unique + s.Ambiguous
	fmt.Fprintf(w, "%stotal_reads: %d\n", indent, s.Total)
	fmt.Fprintf(w, "%smapped:\n", indent)
	fmt.Fprintf(w, "%s    percent_mapped: %.2f\n", indent, pct(mapped, s.Total))
	fmt.Fprintf(w, "%s    unique: %d\n", indent, s.Unique)
	fmt.Fprintf(w, "%s    percent_unique: %.2f\n", indent, pct(s.Unique, s.Total))
	fmt.Fprintf(w, "%s    ambiguous: %d\n", indent, s.Ambiguous)
	fmt.Fprintf(w, "%sunmapped: %d\n", indent, s.Unmapped)
	fmt.Fprintf(w, "%sskipped: %d\n", indent, s.Skipped)
}

// WriteTo writes the single-end summary block.
func (s *SeStats) WriteTo(w io.Writer) { s.writeTo(w, "") }

// PeStats accumulates paired-end outcome counts, plus per-mate
// sub-blocks for each end's own single-end search statistics.
type PeStats struct {
	TotalPairs, UniquePairs, AmbigPairs, UnmappedPairs int64
	MinDist, MaxDist                                   uint32

	Mate1, Mate2 SeStats
}

// NewPeStats returns an empty paired-end stats block for the given
// mating distance bounds (recorded for the summary header only).
func NewPeStats(minDist, maxDist uint32) *PeStats {
	return &PeStats{MinDist: minDist, MaxDist: maxDist}
}

// Update folds in one pair's classification.
func (p *PeStats) Update(status mapper.Status) {
	atomic.AddInt64(&p.TotalPairs, 1)
	switch status {
	case mapper.StatusUnique:
		atomic.AddInt64(&p.UniquePairs, 1)
	case mapper.StatusAmbiguous:
		atomic.AddInt64(&p.AmbigPairs, 1)
	default:
		atomic.AddInt64(&p.UnmappedPairs, 1)
	}
}

// WriteTo writes the full paired-end summary, including both mates'
// own single-end sub-blocks.
func (p *PeStats) WriteTo(w io.Writer) {
	mapped := p.UniquePairs + p.AmbigPairs
	fmt.Fprintf(w, "pairs:\n")
	fmt.Fprintf(w, "    total_read_pairs: %d\n", p.TotalPairs)
	fmt.Fprintf(w, "    mapped:\n")
	fmt.Fprintf(w, "        percent_mapped: %.2f\n", pct(mapped, p.TotalPairs))
	fmt.Fprintf(w, "        unique: %d\n", p.UniquePairs)
	fmt.Fprintf(w, "        percent_unique: %.2f\n", pct(p.UniquePairs, p.TotalPairs))
	fmt.Fprintf(w, "        ambiguous: %d\n", p.AmbigPairs)
	fmt.Fprintf(w, "    unmapped: %d\n", p.UnmappedPairs)
	fmt.Fprintf(w, "mate1:\n")
	p.Mate1.writeTo(w, "    ")
	fmt.Fprintf(w, "mate2:\n")
	p.Mate2.writeTo(w, "    ")
}
