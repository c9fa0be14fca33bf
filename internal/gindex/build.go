package gindex

import (
	"sort"

	"github.com/masarunakajima/methylign/internal/seq"
)

// BuildConfig carries the seed geometry parameters an indexer decides
// at build time. Index construction itself is out of scope as a CLI
// feature (spec.md §1), but this repo still needs a working builder for
// tests and for a future standalone indexer to call.
type BuildConfig struct {
	KeyWeight         int
	NSortingPositions int
	NSeedPositions    int
	IndexInterval     int
	MaxMaxCandidates  int
}

// Build constructs an Index from a flat ASCII genome sequence (all
// chromosomes concatenated in ChromLookup order) in memory.
func Build(genomeASCII string, chroms []Chrom, cfg BuildConfig) *Index {
	encoded := seq.EncodeRef(genomeASCII)
	n := len(encoded)

	numKeys := 1 << cfg.KeyWeight
	buckets := make([][]uint32, numKeys)

	interval := cfg.IndexInterval
	if interval < 1 {
		interval = 1
	}
	for p := 0; p+cfg.KeyWeight <= n; p += interval {
		key := seq.Hash(encoded, p, cfg.KeyWeight)
		buckets[key] = append(buckets[key], uint32(p))
	}

	for k := range buckets {
		bucket := buckets[k]
		sort.Slice(bucket, func(i, j int) bool {
			ki := seq.SortKey(encoded, int(bucket[i]), cfg.KeyWeight, cfg.NSortingPositions)
			kj := seq.SortKey(encoded, int(bucket[j]), cfg.KeyWeight, cfg.NSortingPositions)
			if ki != kj {
				return ki < kj
			}
			return bucket[i] < bucket[j]
		})
	}

	counter := make([]uint32, numKeys+1)
	var positions []uint32
	for k := 0; k < numKeys; k++ {
		counter[k] = uint32(len(positions))
		positions = append(positions, buckets[k]...)
	}
	counter[numKeys] = uint32(len(positions))

	return &Index{
		Genome:            seq.PackGenome(encoded),
		GenomeSize:        uint32(n),
		Counter:           counter,
		Positions:         positions,
		ChromLookup:       chroms,
		KeyWeight:         cfg.KeyWeight,
		NSortingPositions: cfg.NSortingPositions,
		NSeedPositions:    cfg.NSeedPositions,
		IndexInterval:     interval,
		MaxMaxCandidates:  cfg.MaxMaxCandidates,
	}
}
