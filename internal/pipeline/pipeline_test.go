package pipeline

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/masarunakajima/methylign/internal/fastq"
	"github.com/masarunakajima/methylign/internal/gindex"
	"github.com/masarunakajima/methylign/internal/mapper"
)

func writeFastqFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func buildIndex(genome string) *gindex.Index {
	cfg := gindex.BuildConfig{
		KeyWeight: 6, NSortingPositions: 12, NSeedPositions: 20,
		IndexInterval: 1, MaxMaxCandidates: 2000,
	}
	return gindex.Build(genome, []gindex.Chrom{{Name: "chr1", Length: uint32(len(genome))}}, cfg)
}

func TestRunSingleEndPreservesOrder(t *testing.T) {
	genome := strings.Repeat("N", 100) + "ACGTACGTACGTACGTACGTACGTACGTACGTACGT" + strings.Repeat("N", 300)
	idx := buildIndex(genome)

	content := "@r1\n" + "ACGTACGTACGTACGTACGTACGTACGTACGTACGT" + "\n+\n" + strings.Repeat("I", 36) + "\n" +
		"@r2\n" + strings.Repeat("ACGT", 2) + "\n+\n" + strings.Repeat("I", 8) + "\n" + // too short, skipped
		"@r3\n" + "ACGTACGTACGTACGTACGTACGTACGTACGTACGT" + "\n+\n" + strings.Repeat("I", 36) + "\n"
	path := writeFastqFile(t, "reads.fq", content)

	r, err := fastq.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.BatchSize = 2
	st, err := RunSingleEnd(idx, r, w, cfg)
	if err != nil {
		t.Fatalf("RunSingleEnd: %v", err)
	}
	w.Flush()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 SAM lines, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "r1\t") || !strings.HasPrefix(lines[1], "r2\t") || !strings.HasPrefix(lines[2], "r3\t") {
		t.Fatalf("order not preserved: %v", lines)
	}
	if st.Total != 3 || st.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestRunPairedEndMismatchedMateCounts(t *testing.T) {
	genome := strings.Repeat("N", 2000)
	idx := buildIndex(genome)

	path1 := writeFastqFile(t, "r1.fq", "@r1\nACGT\n+\nIIII\n@r2\nACGT\n+\nIIII\n")
	path2 := writeFastqFile(t, "r2.fq", "@r1\nACGT\n+\nIIII\n")

	r1, _ := fastq.Open(path1)
	r2, _ := fastq.Open(path2)
	defer r1.Close()
	defer r2.Close()

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	cfg := DefaultConfig()
	cfg.PE = mapper.DefaultPEConfig()
	_, err := RunPairedEnd(idx, r1, r2, w, cfg)
	if err == nil {
		t.Fatalf("expected error on mismatched mate counts")
	}
}
