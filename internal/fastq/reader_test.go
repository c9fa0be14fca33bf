package fastq

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFastq(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reads.fq")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp fastq: %v", err)
	}
	return path
}

func TestReaderParsesNameUpToWhitespace(t *testing.T) {
	path := writeTempFastq(t, "@read1 extra info\nACGT\n+\nIIII\n@read2/1\nTTTT\n+\nIIII\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rec, ok, err := r.Next()
	if err != nil || !ok {
		t.Fatalf("Next: rec=%v ok=%v err=%v", rec, ok, err)
	}
	if rec.Name != "read1" || rec.Sequence != "ACGT" {
		t.Fatalf("got %+v, want name=read1 seq=ACGT", rec)
	}

	rec, ok, err = r.Next()
	if err != nil || !ok {
		t.Fatalf("Next: rec=%v ok=%v err=%v", rec, ok, err)
	}
	if rec.Name != "read2/1" {
		t.Fatalf("got name %q, want read2/1", rec.Name)
	}

	_, ok, err = r.Next()
	if ok || err != nil {
		t.Fatalf("expected EOF, got ok=%v err=%v", ok, err)
	}
}

func TestBatchShortFinalBatch(t *testing.T) {
	path := writeTempFastq(t, "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\nIIII\n@r3\nGGGG\n+\nIIII\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	batch, ok, err := r.Batch(2)
	if err != nil || !ok || len(batch) != 2 {
		t.Fatalf("first batch: batch=%v ok=%v err=%v", batch, ok, err)
	}
	batch, ok, err = r.Batch(2)
	if err != nil || !ok || len(batch) != 1 {
		t.Fatalf("second batch: batch=%v ok=%v err=%v", batch, ok, err)
	}
	_, ok, _ = r.Batch(2)
	if ok {
		t.Fatalf("expected no more records")
	}
}

func TestCountRecords(t *testing.T) {
	path := writeTempFastq(t, "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\nIIII\n")
	n, err := CountRecords(path)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 2 {
		t.Fatalf("CountRecords = %d, want 2", n)
	}
}
