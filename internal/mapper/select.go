package mapper

import "github.com/masarunakajima/methylign/internal/gindex"

// Status classifies the outcome of mapping one read or pair, mirroring
// the stats categories spec.md §6's stats file reports.
type Status int

const (
	StatusUnique Status = iota
	StatusAmbiguous
	StatusUnmapped
	StatusSkipped
)

// SeReport is the structured single-end result handed to internal/samout.
type SeReport struct {
	Status Status
	Chrom  string
	Pos    uint32 // 0-based local offset within Chrom
	RC     bool
	ARich  bool
	Diffs  int16
	Cigar  CIGAR
}

// SelectSingle applies spec.md §4.8's single-end reporting rules:
// ambiguous hits are suppressed unless allowAmbig, invalid hits or
// chromosome-boundary crossings are unmapped, otherwise the hit is
// reported with its strand/conversion flags.
func SelectSingle(idx *gindex.Index, result *SeResult, readLen int, allowAmbig bool, maxEditFrac float64) SeReport {
	if result == nil {
		return SeReport{Status: StatusUnmapped}
	}
	ambig := result.Ambiguous()
	if ambig && !allowAmbig {
		return SeReport{Status: StatusAmbiguous}
	}
	if !ValidWithFrac(result.Best, readLen, maxEditFrac) {
		return SeReport{Status: StatusUnmapped}
	}
	chrom, local, ok := idx.LookupSpan(result.Best.Pos, result.Best.Cigar.RefConsumed())
	if !ok {
		return SeReport{Status: StatusUnmapped}
	}
	status := StatusUnique
	if ambig {
		status = StatusAmbiguous
	}
	return SeReport{
		Status: status,
		Chrom:  chrom.Name,
		Pos:    local,
		RC:     result.Best.IsRC(),
		ARich:  result.Best.IsARich(),
		Diffs:  result.Best.Diffs,
		Cigar:  result.Best.Cigar,
	}
}

// PeReport is the structured paired-end result handed to internal/samout.
type PeReport struct {
	Status     Status
	Chrom      string
	Pos1, Pos2 uint32
	RC1, RC2   bool
	ARich      bool
	Diffs1     int16
	Diffs2     int16
	Cigar1     CIGAR
	Cigar2     CIGAR
	TLen       int32
}

// SelectPaired applies spec.md §4.8's paired-end reporting rules: both
// mates must fall in the same chromosome; TLEN is the signed reference
// distance; ambiguous pairs are suppressed unless allowAmbig.
func SelectPaired(idx *gindex.Index, result *PeResult, allowAmbig bool, maxEditFrac float64, len1, len2 int) PeReport {
	if result == nil {
		return PeReport{Status: StatusUnmapped}
	}
	ambig := result.Ambiguous()
	if ambig && !allowAmbig {
		return PeReport{Status: StatusAmbiguous}
	}
	if !ValidWithFrac(result.Best.R1, len1, maxEditFrac) || !ValidWithFrac(result.Best.R2, len2, maxEditFrac) {
		return PeReport{Status: StatusUnmapped}
	}

	best := result.Best
	c1, off1, ok1 := idx.LookupSpan(best.R1.Pos, best.R1.Cigar.RefConsumed())
	c2, off2, ok2 := idx.LookupSpan(best.R2.Pos, best.R2.Cigar.RefConsumed())
	if !ok1 || !ok2 || c1.Name != c2.Name {
		return PeReport{Status: StatusUnmapped}
	}

	var shift1, shift2 uint32
	best.R1.Cigar, best.R2.Cigar, shift1, shift2 = reconcileOverlap(best.R1, best.R2)
	off1 += shift1
	off2 += shift2

	lo := off1
	if off2 < lo {
		lo = off2
	}
	hi := off1 + best.R1.Cigar.RefConsumed()
	if e := off2 + best.R2.Cigar.RefConsumed(); e > hi {
		hi = e
	}
	tlen := int32(hi - lo)
	if off1 > off2 {
		tlen = -tlen
	}

	status := StatusUnique
	if ambig {
		status = StatusAmbiguous
	}
	return PeReport{
		Status: status,
		Chrom:  c1.Name,
		Pos1:   off1,
		Pos2:   off2,
		RC1:    best.R1.IsRC(),
		RC2:    best.R2.IsRC(),
		ARich:  best.R1.IsARich(),
		Diffs1: best.R1.Diffs,
		Diffs2: best.R2.Diffs,
		Cigar1: best.R1.Cigar,
		Cigar2: best.R2.Cigar,
		TLen:   tlen,
	}
}

// reconcileOverlap implements the PE dovetail/overlap reconciliation
// supplemented from original_source's get_pe_overlap (spec.md's
// distillation drops this): when the two mates' aligned spans overlap
// or dovetail, truncate one mate's CIGAR so the reported spans don't
// silently contradict each other.
//
// Three cases, ordered by how much the spans overlap:
//   - no overlap (a spacer gap between the mates): nothing to do.
//   - partial overlap (short fragment): truncate the downstream mate's
//     leading aligned bases to soft clip, so the spans abut exactly.
//   - dovetail (the mates' spans cross past each other entirely):
//     truncate the downstream mate down to nothing beyond the upstream
//     mate's end, converting the rest to soft clip.
//
// shift1/shift2 are how far each mate's start position moves forward
// because its leading reference bases became soft clip.
func reconcileOverlap(r1, r2 SeEntry) (c1, c2 CIGAR, shift1, shift2 uint32) {
	c1, c2 = r1.Cigar, r2.Cigar
	start1, end1 := r1.Pos, r1.Pos+c1.RefConsumed()
	start2, end2 := r2.Pos, r2.Pos+c2.RefConsumed()

	downstream, shift := &c2, &shift2
	upEnd, downStart := end1, start2
	if start2 < start1 {
		downstream, shift = &c1, &shift1
		upEnd, downStart = end2, start1
	}
	if downStart >= upEnd {
		return c1, c2, 0, 0 // spacer gap, or exact abutment: no reconciliation needed
	}

	overlap := upEnd - downStart
	if refLen := downstream.RefConsumed(); overlap > refLen {
		overlap = refLen
	}
	*downstream = truncateLeadingRef(*downstream, overlap)
	*shift = overlap
	return c1, c2, shift1, shift2
}

// truncateLeadingRef converts the first n reference-consuming bases of
// a CIGAR into soft clip, used to resolve mate overlap.
func truncateLeadingRef(c CIGAR, n uint32) CIGAR {
	if n == 0 {
		return c
	}
	ops := parseCigar(c)
	var softBases uint32
	i := 0
	for i < len(ops) && n > 0 {
		op := ops[i]
		if op.op != 'M' && op.op != 'D' {
			i++
			continue
		}
		consume := op.n
		if consume > n {
			consume = n
		}
		if op.op == 'M' {
			softBases += consume
		}
		op.n -= consume
		n -= consume
		ops[i] = op
		if op.n == 0 {
			i++
		}
	}
	var out []cigOp
	if softBases > 0 {
		out = append(out, cigOp{softBases, 'S'})
	}
	out = append(out, ops[i:]...)
	return formatCigar(out)
}

type cigOp struct {
	n  uint32
	op byte
}

func parseCigar(c CIGAR) []cigOp {
	var ops []cigOp
	n := uint32(0)
	for i := 0; i < len(c); i++ {
		ch := c[i]
		if ch >= '0' && ch <= '9' {
			n = n*10 + uint32(ch-'0')
			continue
		}
		ops = append(ops, cigOp{n, ch})
		n = 0
	}
	return ops
}

func formatCigar(ops []cigOp) CIGAR {
	if len(ops) == 0 {
		return "0M"
	}
	var merged []cigOp
	for _, op := range ops {
		if op.n == 0 {
			continue
		}
		if len(merged) > 0 && merged[len(merged)-1].op == op.op {
			merged[len(merged)-1].n += op.n
		} else {
			merged = append(merged, op)
		}
	}
	out := ""
	for _, op := range merged {
		out += itoa(op.n) + string(op.op)
	}
	if out == "" {
		return "0M"
	}
	return CIGAR(out)
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
