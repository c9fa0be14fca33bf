package stats

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/masarunakajima/methylign/internal/mapper"
)

func TestSeStatsUpdateCounts(t *testing.T) {
	s := &SeStats{}
	s.Update(mapper.StatusUnique)
	s.Update(mapper.StatusUnique)
	s.Update(mapper.StatusAmbiguous)
	s.Update(mapper.StatusUnmapped)
	s.Update(mapper.StatusSkipped)
	if s.Total != 5 || s.Unique != 2 || s.Ambiguous != 1 || s.Unmapped != 1 || s.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
}

func TestSeStatsConcurrentUpdate(t *testing.T) {
	s := &SeStats{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(mapper.StatusUnique)
		}()
	}
	wg.Wait()
	if s.Total != 100 || s.Unique != 100 {
		t.Fatalf("concurrent update lost updates: %+v", s)
	}
}

func TestSeStatsWriteTo(t *testing.T) {
	s := &SeStats{Total: 10, Unique: 7, Ambiguous: 1, Unmapped: 2}
	var buf bytes.Buffer
	s.WriteTo(&buf)
	out := buf.String()
	if !strings.Contains(out, "total_reads: 10") {
		t.Fatalf("missing total_reads line: %s", out)
	}
	if !strings.Contains(out, "unique: 7") {
		t.Fatalf("missing unique line: %s", out)
	}
}

func TestPeStatsWriteTo(t *testing.T) {
	p := NewPeStats(32, 3000)
	p.Update(mapper.StatusUnique)
	p.Update(mapper.StatusAmbiguous)
	p.Update(mapper.StatusUnmapped)
	p.Mate1.Update(mapper.StatusUnique)
	p.Mate2.Update(mapper.StatusUnmapped)

	var buf bytes.Buffer
	p.WriteTo(&buf)
	out := buf.String()
	if !strings.Contains(out, "total_read_pairs: 3") {
		t.Fatalf("missing total_read_pairs: %s", out)
	}
	if !strings.Contains(out, "mate1:") || !strings.Contains(out, "mate2:") {
		t.Fatalf("missing per-mate blocks: %s", out)
	}
}
