// Package samout formats mapped reads as SAM text, replacing the
// teacher's writeReadFastq/writeReadFasta text writers with a
// bufio.Writer-based SAM record writer driven by mapper.SeReport and
// mapper.PeReport (spec.md §6).
package samout

import (
	"bufio"
	"fmt"

	"github.com/masarunakajima/methylign/internal/gindex"
	"github.com/masarunakajima/methylign/internal/mapper"
	"github.com/masarunakajima/methylign/internal/seq"
)

// SAM flag bits (SAM spec §1.4).
const (
	FlagPaired        uint16 = 1 << 0
	FlagProperPair    uint16 = 1 << 1
	FlagUnmapped      uint16 = 1 << 2
	FlagMateUnmapped  uint16 = 1 << 3
	FlagReverse       uint16 = 1 << 4
	FlagMateReverse   uint16 = 1 << 5
	FlagFirstInPair   uint16 = 1 << 6
	FlagSecondInPair  uint16 = 1 << 7
	FlagSecondary     uint16 = 1 << 8
)

// WriteHeader writes the @HD/@SQ/@PG header block, one @SQ line per
// indexed chromosome.
func WriteHeader(w *bufio.Writer, chroms []gindex.Chrom, programName, programVersion, commandLine string) error {
	if _, err := w.WriteString("@HD\tVN:1.6\tSO:unsorted\n"); err != nil {
		return err
	}
	for _, c := range chroms {
		if _, err := fmt.Fprintf(w, "@SQ\tSN:%s\tLN:%d\n", c.Name, c.Length); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "@PG\tID:%s\tPN:%s\tVN:%s\tCL:%s\n", programName, programName, programVersion, commandLine)
	return err
}

func conversionTag(aRich bool) string {
	if aRich {
		return "CV:A:A"
	}
	return "CV:A:T"
}

const unmappedRecord = "4\t*\t0\t0\t*\t*\t0\t0"

// reverseString reverses a string byte-wise, used to flip quality
// strings alongside a reverse-complemented sequence.
func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// WriteSingle formats one single-end read's SAM record. readSeq/qual
// are the read as sequenced (5'->3'); SAM requires SEQ/QUAL relative
// to the forward reference strand, so they are flipped here when the
// best hit used the reverse complement.
func WriteSingle(w *bufio.Writer, readName string, rep mapper.SeReport, readSeq, qual string) error {
	if rep.Status == mapper.StatusUnique || rep.Status == mapper.StatusAmbiguous {
		flag := uint16(0)
		if rep.Status == mapper.StatusAmbiguous {
			flag |= FlagSecondary
		}
		outSeq, outQual := readSeq, qual
		if rep.RC {
			flag |= FlagReverse
			outSeq = seq.ReverseComplement(readSeq)
			outQual = reverseString(qual)
		}
		_, err := fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\t*\t0\t0\t%s\t%s\tNM:i:%d\t%s\n",
			readName, flag, rep.Chrom, rep.Pos+1, mapq(rep), string(rep.Cigar), outSeq, outQual, rep.Diffs, conversionTag(rep.ARich))
		return err
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", readName, unmappedRecord, readSeq, qual)
	return err
}

// WritePaired formats one concordant pair's two SAM records.
func WritePaired(w *bufio.Writer, readName string, rep mapper.PeReport, seq1, qual1, seq2, qual2 string) error {
	if rep.Status != mapper.StatusUnique && rep.Status != mapper.StatusAmbiguous {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", readName, unmappedRecord, seq1, qual1); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", readName, unmappedRecord, seq2, qual2)
		return err
	}

	flag1 := FlagPaired | FlagProperPair | FlagFirstInPair
	flag2 := FlagPaired | FlagProperPair | FlagSecondInPair
	if rep.Status == mapper.StatusAmbiguous {
		flag1 |= FlagSecondary
		flag2 |= FlagSecondary
	}
	if rep.RC1 {
		flag1 |= FlagReverse
		flag2 |= FlagMateReverse
	}
	if rep.RC2 {
		flag2 |= FlagReverse
		flag1 |= FlagMateReverse
	}

	outSeq1, outQual1 := seq1, qual1
	if rep.RC1 {
		outSeq1, outQual1 = seq.ReverseComplement(seq1), reverseString(qual1)
	}
	outSeq2, outQual2 := seq2, qual2
	if rep.RC2 {
		outSeq2, outQual2 = seq.ReverseComplement(seq2), reverseString(qual2)
	}

	mq := mapqPaired(rep)
	if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\t=\t%d\t%d\t%s\t%s\tNM:i:%d\t%s\n",
		readName, flag1, rep.Chrom, rep.Pos1+1, mq, string(rep.Cigar1), rep.Pos2+1, rep.TLen,
		outSeq1, outQual1, rep.Diffs1, conversionTag(rep.ARich)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\t=\t%d\t%d\t%s\t%s\tNM:i:%d\t%s\n",
		readName, flag2, rep.Chrom, rep.Pos2+1, mq, string(rep.Cigar2), rep.Pos1+1, -rep.TLen,
		outSeq2, outQual2, rep.Diffs2, conversionTag(rep.ARich))
	return err
}

// mapq reports a coarse mapping quality: 0 for ambiguous hits, 40
// otherwise. spec.md's reporting model tracks only unique/ambiguous,
// not a calibrated quality score.
func mapq(rep mapper.SeReport) int {
	if rep.Status == mapper.StatusAmbiguous {
		return 0
	}
	return 40
}

func mapqPaired(rep mapper.PeReport) int {
	if rep.Status == mapper.StatusAmbiguous {
		return 0
	}
	return 40
}
