package bedgraph

import (
	"fmt"
	"io"
	"strconv"
)

// Writer emits a bedgraph ("chrom start end value" per line) compressed as
// BGZF, tracking per-chromosome virtual offset ranges so an Index can be
// written alongside it on Close. One Writer handles one output file; the
// caller is expected to present chromosomes in header order and lines within
// a chromosome in ascending start order, matching the rest of the coverage
// engine's single-pass contract.
type Writer struct {
	bgzf     *bgzfWriter
	line     []byte // reused scratch buffer for formatting one line
	cur      *chromEntry
	idx      Index
}

// NewWriter wraps w, compressing every line written through Writer.WriteLine
// at the given gzip compression level (1-9; 6 is a reasonable default).
func NewWriter(w io.Writer, level int) *Writer {
	return &Writer{bgzf: newBGZFWriter(w, level)}
}

// WriteLine appends one bedgraph row. tid must be non-decreasing across
// calls; a new tid starts a fresh index entry and closes out the previous
// one.
func (w *Writer) WriteLine(tid int32, chrom string, start, end int64, value float64) error {
	if w.cur == nil || w.cur.Tid != tid {
		w.closeChrom()
		w.idx.Chroms = append(w.idx.Chroms, chromEntry{
			Tid:       tid,
			Name:      chrom,
			VOffsetLo: w.bgzf.voffset(),
		})
		w.cur = &w.idx.Chroms[len(w.idx.Chroms)-1]
	}

	w.line = w.line[:0]
	w.line = append(w.line, chrom...)
	w.line = append(w.line, '\t')
	w.line = strconv.AppendInt(w.line, start, 10)
	w.line = append(w.line, '\t')
	w.line = strconv.AppendInt(w.line, end, 10)
	w.line = append(w.line, '\t')
	w.line = appendValue(w.line, value)
	w.line = append(w.line, '\n')

	if _, err := w.bgzf.Write(w.line); err != nil {
		return fmt.Errorf("bedgraph: write line for %s:%d-%d: %w", chrom, start, end, err)
	}
	w.cur.NumLines++
	return nil
}

// appendValue renders value the way the coverage engine wants bedgraph
// values formatted: integral coverage counts as bare integers, any fractional
// statistic (e.g. a per-base mean when binning is enabled) with exactly two
// decimal places.
func appendValue(dst []byte, value float64) []byte {
	if value == float64(int64(value)) {
		return strconv.AppendInt(dst, int64(value), 10)
	}
	return strconv.AppendFloat(dst, value, 'f', 2, 64)
}

func (w *Writer) closeChrom() {
	if w.cur != nil {
		w.cur.VOffsetHi = w.bgzf.voffset()
	}
}

// Close flushes the BGZF stream, appends the terminator block, and writes
// the companion index to idxW (nil to skip index output).
func (w *Writer) Close(idxW io.Writer) error {
	w.closeChrom()
	if err := w.bgzf.close(); err != nil {
		return err
	}
	if idxW == nil {
		return nil
	}
	_, err := w.idx.WriteTo(idxW)
	return err
}
