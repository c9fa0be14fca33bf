// Package gindex implements the genome index: the packed reference
// sequence, the hash-key-to-position-range counter table, the sorted
// position list within each key's slot, and the chromosome lookup
// table. The index is built once and treated as read-only for the
// life of a mapping run.
package gindex

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"sort"

	"github.com/masarunakajima/methylign/internal/seq"
)

// Chrom describes one chromosome's placement in the flattened genome
// coordinate space.
type Chrom struct {
	Name   string
	Start  uint32
	Length uint32
}

// Index is the on-disk, read-only structure the mapper probes. Field
// names mirror spec.md's data model directly.
type Index struct {
	Genome      seq.PackedRead // two reference bases per byte
	GenomeSize  uint32
	Counter     []uint32 // counter[k]..counter[k+1) is key k's slot in Positions
	Positions   []uint32
	ChromLookup []Chrom

	KeyWeight         int // k, bits in the seed hash key
	NSortingPositions int // specific-pass refinement depth
	NSeedPositions    int // sensitive-pass refinement depth
	IndexInterval     int // every Nth genome position is indexed
	MaxMaxCandidates  int // upper clamp for the CLI's max_candidates
}

// MinMaxCandidates is the lower clamp for max_candidates (Open
// Question 2): requests are never narrowed below this floor.
const MinMaxCandidates = 4

// ClampMaxCandidates resolves spec.md's Open Question 2: the
// requested cap is clamped into [MinMaxCandidates, idx.MaxMaxCandidates].
func (idx *Index) ClampMaxCandidates(requested int) int {
	c := requested
	if c > idx.MaxMaxCandidates {
		c = idx.MaxMaxCandidates
	}
	if c < MinMaxCandidates {
		c = MinMaxCandidates
	}
	return c
}

// NumKeys is the number of distinct seed hash keys, 2^KeyWeight.
func (idx *Index) NumKeys() int { return 1 << idx.KeyWeight }

// Probe returns the sorted position range for a seed hash key.
func (idx *Index) Probe(key uint32) (lo, hi uint32) {
	return idx.Counter[key], idx.Counter[key+1]
}

// GenomeBase returns the 4-bit mask at global genome position p.
func (idx *Index) GenomeBase(p uint32) byte {
	return seq.UnpackGenomeBase(idx.Genome, int(p))
}

// Lookup finds the chromosome containing global position p, or ok=false
// if p is out of range.
func (idx *Index) Lookup(p uint32) (c Chrom, localOffset uint32, ok bool) {
	i := sort.Search(len(idx.ChromLookup), func(i int) bool {
		return idx.ChromLookup[i].Start+idx.ChromLookup[i].Length > p
	})
	if i == len(idx.ChromLookup) || p < idx.ChromLookup[i].Start {
		return Chrom{}, 0, false
	}
	c = idx.ChromLookup[i]
	return c, p - c.Start, true
}

// LookupSpan finds the chromosome containing a span [p, p+refOps), and
// fails if the span crosses a chromosome boundary — the chromosome
// lookup rule spec.md §4.8 requires of the reporting adapter.
func (idx *Index) LookupSpan(p uint32, refOps uint32) (c Chrom, localOffset uint32, ok bool) {
	c, localOffset, ok = idx.Lookup(p)
	if !ok {
		return Chrom{}, 0, false
	}
	if localOffset+refOps > c.Length {
		return Chrom{}, 0, false
	}
	return c, localOffset, true
}

// Save persists the index as gob-encoded, gzip-compressed bytes,
// mirroring the teacher's BKTree.Save.
func (idx *Index) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("gindex: create %s: %w", filename, err)
	}
	defer file.Close()
	gz := gzip.NewWriter(file)
	defer gz.Close()
	if err := gob.NewEncoder(gz).Encode(idx); err != nil {
		return fmt.Errorf("gindex: encode %s: %w", filename, err)
	}
	return nil
}

// Load reads back an index written by Save.
func Load(filename string) (*Index, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("gindex: open %s: %w", filename, err)
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("gindex: gzip %s: %w", filename, err)
	}
	defer gz.Close()
	var idx Index
	if err := gob.NewDecoder(gz).Decode(&idx); err != nil {
		return nil, fmt.Errorf("gindex: decode %s: %w", filename, err)
	}
	return &idx, nil
}

// Bytes serializes the index the same way Save does, for tests that
// want to round-trip without touching disk.
func (idx *Index) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(idx); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
