// Package pipeline implements the order-preserving worker-pool batch
// scheduler used by cmd/methylign's map command: one goroutine pulls
// batches from the FASTQ reader under a mutex, each worker holds a
// private mapper.Searcher/mapper.Aligner scratch pair and maps its
// shard of the batch, a sync.WaitGroup barriers the batch, and results
// are emitted to the SAM writer in original read order. This differs
// deliberately from the teacher's own channel pipeline, which does not
// preserve input order — SAM output must line up with the input FASTQ.
package pipeline

import (
	"bufio"
	"bytes"
	"fmt"
	"runtime"
	"sync"

	"github.com/masarunakajima/methylign/internal/fastq"
	"github.com/masarunakajima/methylign/internal/gindex"
	"github.com/masarunakajima/methylign/internal/mapper"
	"github.com/masarunakajima/methylign/internal/samout"
	"github.com/masarunakajima/methylign/internal/stats"
)

// Config holds the per-run tunables a worker needs to build its own
// Searcher/Aligner and select/report results.
type Config struct {
	Workers       int
	BatchSize     int
	MaxReadLen    int
	MaxCandidates int
	AllowAmbig    bool
	MaxEditFrac   float64
	Mode          mapper.ConversionMode
	PE            mapper.PEConfig
}

// DefaultConfig returns sane defaults, one worker per CPU and a
// moderate batch size.
func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		BatchSize:     10000,
		MaxReadLen:    300,
		MaxCandidates: 3000,
		MaxEditFrac:   mapper.ValidFrac,
		Mode:          mapper.ConvDefault,
		PE:            mapper.DefaultPEConfig(),
	}
}

func workerCount(cfg Config) int {
	if cfg.Workers < 1 {
		return 1
	}
	return cfg.Workers
}

func batchSize(cfg Config) int {
	if cfg.BatchSize < 1 {
		return 1
	}
	return cfg.BatchSize
}

// RunSingleEnd maps every record of r against idx, writing SAM records
// to w in input order, and returns the accumulated stats.
func RunSingleEnd(idx *gindex.Index, r *fastq.Reader, w *bufio.Writer, cfg Config) (*stats.SeStats, error) {
	st := &stats.SeStats{}
	searchers := make([]*mapper.Searcher, workerCount(cfg))
	for i := range searchers {
		searchers[i] = mapper.NewSearcher(idx, cfg.MaxReadLen, cfg.MaxCandidates)
	}

	var readMu sync.Mutex
	pullBatch := func() ([]fastq.Read, bool, error) {
		readMu.Lock()
		defer readMu.Unlock()
		return r.Batch(batchSize(cfg))
	}

	for {
		batch, ok, err := pullBatch()
		if err != nil {
			return st, fmt.Errorf("pipeline: reading batch: %w", err)
		}
		if !ok {
			break
		}
		lines := make([]string, len(batch))
		statuses := make([]mapper.Status, len(batch))

		var wg sync.WaitGroup
		nWorkers := workerCount(cfg)
		for wID := 0; wID < nWorkers; wID++ {
			wg.Add(1)
			go func(wID int) {
				defer wg.Done()
				s := searchers[wID]
				for i := wID; i < len(batch); i += nWorkers {
					rec := batch[i]
					result, skipped := s.MapSingle(rec.Sequence, cfg.Mode)
					var rep mapper.SeReport
					if skipped {
						rep = mapper.SeReport{Status: mapper.StatusSkipped}
					} else {
						rep = mapper.SelectSingle(idx, result, len(rec.Sequence), cfg.AllowAmbig, cfg.MaxEditFrac)
					}
					statuses[i] = rep.Status
					lines[i] = formatRecord(func(bw *bufio.Writer) error {
						return samout.WriteSingle(bw, rec.Name, rep, rec.Sequence, rec.Qual)
					})
				}
			}(wID)
		}
		wg.Wait()

		for i := range lines {
			if _, err := w.WriteString(lines[i]); err != nil {
				return st, err
			}
			st.Update(statuses[i])
		}
	}
	return st, nil
}

// RunPairedEnd maps every mate pair from r1/r2 against idx, writing SAM
// records to w in input order, and returns the accumulated stats.
func RunPairedEnd(idx *gindex.Index, r1, r2 *fastq.Reader, w *bufio.Writer, cfg Config) (*stats.PeStats, error) {
	st := stats.NewPeStats(cfg.PE.MinDist, cfg.PE.MaxDist)
	searchers := make([]*mapper.Searcher, workerCount(cfg))
	for i := range searchers {
		searchers[i] = mapper.NewSearcher(idx, cfg.MaxReadLen, cfg.MaxCandidates)
	}

	var readMu sync.Mutex
	pullBatch := func() ([]fastq.Read, []fastq.Read, bool, error) {
		readMu.Lock()
		defer readMu.Unlock()
		b1, ok1, err1 := r1.Batch(batchSize(cfg))
		if err1 != nil {
			return nil, nil, false, err1
		}
		b2, ok2, err2 := r2.Batch(batchSize(cfg))
		if err2 != nil {
			return nil, nil, false, err2
		}
		if len(b1) != len(b2) {
			return nil, nil, false, fmt.Errorf("pipeline: mate files have different record counts")
		}
		return b1, b2, ok1 && ok2, nil
	}

	for {
		batch1, batch2, ok, err := pullBatch()
		if err != nil {
			return st, err
		}
		if !ok {
			break
		}
		lines := make([]string, len(batch1))
		statuses := make([]mapper.Status, len(batch1))

		var wg sync.WaitGroup
		nWorkers := workerCount(cfg)
		for wID := 0; wID < nWorkers; wID++ {
			wg.Add(1)
			go func(wID int) {
				defer wg.Done()
				s := searchers[wID]
				for i := wID; i < len(batch1); i += nWorkers {
					rec1, rec2 := batch1[i], batch2[i]
					result, ok := s.MapPaired(rec1.Sequence, rec2.Sequence, cfg.Mode, cfg.PE)
					var rep mapper.PeReport
					if !ok {
						rep = mapper.PeReport{Status: mapper.StatusUnmapped}
					} else {
						rep = mapper.SelectPaired(idx, result, cfg.AllowAmbig, cfg.MaxEditFrac, len(rec1.Sequence), len(rec2.Sequence))
					}
					statuses[i] = rep.Status
					lines[i] = formatRecord(func(bw *bufio.Writer) error {
						return samout.WritePaired(bw, rec1.Name, rep, rec1.Sequence, rec1.Qual, rec2.Sequence, rec2.Qual)
					})
				}
			}(wID)
		}
		wg.Wait()

		for i := range lines {
			if _, err := w.WriteString(lines[i]); err != nil {
				return st, err
			}
			st.Update(statuses[i])
		}
	}
	return st, nil
}

// formatRecord renders one SAM write into a string via a private
// buffer, so each worker can build its shard's output independently
// before the ordered emit phase.
func formatRecord(write func(*bufio.Writer) error) string {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if err := write(bw); err != nil {
		return ""
	}
	bw.Flush()
	return buf.String()
}
