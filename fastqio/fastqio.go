// Package fastqio implements streaming, transparently-gzipped FASTQ
// reading shared by fastcat and fastlint, following the same open/sniff
// idiom interval.Load uses for BED input.
package fastqio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// Record is one four-line FASTQ entry, with the header line already split
// into name and comment at the first space or tab.
type Record struct {
	Name    string
	Comment string
	Seq     []byte
	Qual    []byte
}

// Reader reads consecutive Records from a FASTQ stream.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// Open opens path (use "-" for stdin), transparently gzip-decompressing
// it when fileio.DetermineType identifies it as such, matching
// interval.Load's sniff-then-wrap pattern.
func Open(ctx context.Context, path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin, nil), nil
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	r := f.Reader(ctx)
	br := bufio.NewReader(r)
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &Reader{scanner: bufio.NewScanner(gz), closer: gz}, nil
	}
	return &Reader{scanner: bufio.NewScanner(br)}, nil
}

// NewReader wraps an already-open, already-decompressed stream. r may be
// nil only when the Reader will never be used to Read (tests).
func NewReader(r io.Reader, closer io.Closer) *Reader {
	if r == nil {
		return &Reader{}
	}
	return &Reader{scanner: bufio.NewScanner(r), closer: closer}
}

// splitNameComment splits a FASTQ header (minus the leading '@') on the
// first space or tab, matching kseq's whitespace-delimited name/comment
// split.
func splitNameComment(s string) (name, comment string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// Read returns the next record, or io.EOF once the stream is exhausted.
func (r *Reader) Read() (Record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, io.EOF
	}
	header := r.scanner.Text()
	if len(header) == 0 || header[0] != '@' {
		return Record{}, fmt.Errorf("fastqio: expected '@' header line, got %q", header)
	}
	name, comment := splitNameComment(header[1:])
	if !r.scanner.Scan() {
		return Record{}, fmt.Errorf("fastqio: truncated record after name %q", name)
	}
	seq := append([]byte(nil), r.scanner.Bytes()...)
	if !r.scanner.Scan() {
		return Record{}, fmt.Errorf("fastqio: truncated record after name %q", name)
	}
	if !r.scanner.Scan() {
		return Record{}, fmt.Errorf("fastqio: truncated record after name %q", name)
	}
	qual := append([]byte(nil), r.scanner.Bytes()...)
	return Record{Name: name, Comment: comment, Seq: seq, Qual: qual}, nil
}

// Close closes the gzip decompressor opened by Open, or the closer passed
// to NewReader, if any. The file handle that Open itself opened is not
// closed.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// WriteRecord writes rec in four-line FASTQ form, preserving the
// name/comment separator exactly as fastlint's original did: a tab if the
// comment itself contains one (a signal it came from fastcat --reheader),
// a space otherwise.
func WriteRecord(w io.Writer, rec Record) error {
	if rec.Comment == "" {
		_, err := fmt.Fprintf(w, "@%s\n%s\n+\n%s\n", rec.Name, rec.Seq, rec.Qual)
		return err
	}
	sep := " "
	if strings.Contains(rec.Comment, "\t") {
		sep = "\t"
	}
	_, err := fmt.Fprintf(w, "@%s%s%s\n%s\n+\n%s\n", rec.Name, sep, rec.Comment, rec.Seq, rec.Qual)
	return err
}
