// Package fastq implements a gzip-aware batch FASTQ reader. Only the
// sequence line of each 4-line record is used by the mapper; names are
// taken up to the first whitespace (spec.md §6).
package fastq

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read is one parsed FASTQ record's name, sequence, and quality line.
type Read struct {
	Name     string
	Sequence string
	Qual     string
}

// Reader delivers FASTQ records one at a time from a possibly-gzipped
// file, mirroring the teacher's openFile/parseFastqRecord pair.
type Reader struct {
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
}

// Open opens a FASTQ file, transparently decompressing if its name
// ends in .gz, matching the teacher's openFile.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("fastq: open %s: %w", filename, err)
	}
	var src io.Reader = f
	var gz *gzip.Reader
	if strings.HasSuffix(filename, ".gz") {
		gz, err = gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("fastq: gzip %s: %w", filename, err)
		}
		src = gz
	}
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	return &Reader{file: f, gz: gz, scanner: scanner}, nil
}

// Close releases the underlying file (and gzip reader, if any).
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.file.Close()
}

// Next parses the next 4-line FASTQ record. ok is false at EOF.
func (r *Reader) Next() (rec Read, ok bool, err error) {
	if !r.scanner.Scan() {
		return Read{}, false, r.scanner.Err()
	}
	header := r.scanner.Text()
	if !r.scanner.Scan() {
		return Read{}, false, fmt.Errorf("fastq: truncated record after header %q", header)
	}
	seqLine := r.scanner.Text()
	if !r.scanner.Scan() { // '+' separator line
		return Read{}, false, fmt.Errorf("fastq: truncated record, missing '+' line")
	}
	if !r.scanner.Scan() { // quality line
		return Read{}, false, fmt.Errorf("fastq: truncated record, missing quality line")
	}
	qualLine := r.scanner.Text()
	name := strings.TrimPrefix(header, "@")
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return Read{Name: name, Sequence: seqLine, Qual: qualLine}, true, nil
}

// Batch reads up to n records. A short final batch (fewer than n
// records, ok=true) is returned at end of file; ok is false once
// nothing more remains.
func (r *Reader) Batch(n int) (batch []Read, ok bool, err error) {
	batch = make([]Read, 0, n)
	for i := 0; i < n; i++ {
		rec, more, rerr := r.Next()
		if rerr != nil {
			return batch, len(batch) > 0, rerr
		}
		if !more {
			break
		}
		batch = append(batch, rec)
	}
	return batch, len(batch) > 0, nil
}

// CountRecords counts FASTQ records in a file, used to size the
// progress bar — mirrors the teacher's countReads.
func CountRecords(filename string) (int64, error) {
	r, err := Open(filename)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	var n int64
	for r.scanner.Scan() { // header line
		n++
		for i := 0; i < 3 && r.scanner.Scan(); i++ { // sequence, '+', quality
		}
	}
	return n, r.scanner.Err()
}
