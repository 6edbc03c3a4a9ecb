// Package bedgraph provides a BGZF-compressed sink for piecewise-constant
// coverage lines, together with a lightweight coordinate index (a CSI-style
// sibling file) so that the compressed bedgraph can later be seeked into by
// chromosome without decompressing the whole file.
//
// The BGZF block framing here is adapted from grailbio-bio's
// encoding/bgzf.Writer: a gzip stream per <=64KB block, each carrying the
// BGZF "BC" Extra subfield, with the compressed-size field patched in after
// the block is flushed and a standard empty terminator block appended on
// Close.  The compression backend is klauspost/compress/gzip (already the
// pack's gzip implementation of choice) rather than grailbio's internal
// libdeflate/zlibng bindings, which aren't part of this module's dependency
// surface.
package bedgraph

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

const (
	// uncompressedBlockSize is the largest amount of uncompressed payload
	// placed in a single BGZF block, matching bgzf.DefaultUncompressedBlockSize.
	uncompressedBlockSize = 0x0ff00
	// compressedBlockSize is the maximum compressed size of a BGZF block.
	compressedBlockSize = 0x10000
)

// bgzfExtra is the BGZF "BC" Extra subfield (subfield ids 66,67, length 2,
// placeholder BSIZE).  See the SAM/BAM spec, section on the BGZF format.
var bgzfExtra = [6]byte{66, 67, 2, 0, 0, 0}

// terminator is the empty BGZF EOF block appended by Close.
var terminator = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
	0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// bgzfWriter compresses a byte stream into BGZF blocks, tracking a virtual
// file offset (coffset<<16 | uncompressedOffsetWithinBlock) as it goes.
type bgzfWriter struct {
	level      int
	w          io.Writer
	pending    bytes.Buffer // uncompressed bytes not yet flushed to a block
	compressed bytes.Buffer // scratch buffer for one compressed block
	coffset    uint64       // compressed byte offset of the next block to write
}

func newBGZFWriter(w io.Writer, level int) *bgzfWriter {
	return &bgzfWriter{level: level, w: w}
}

func (w *bgzfWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		room := uncompressedBlockSize - w.pending.Len()
		chunk := p
		if len(chunk) > room {
			chunk = chunk[:room]
		}
		n, _ := w.pending.Write(chunk)
		total += n
		p = p[n:]
		if w.pending.Len() >= uncompressedBlockSize {
			if err := w.flushBlock(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// voffset returns the current virtual offset: the position the next byte
// written will occupy.
func (w *bgzfWriter) voffset() uint64 {
	return w.coffset<<16 | uint64(w.pending.Len())
}

func (w *bgzfWriter) flushBlock() error {
	if w.pending.Len() == 0 {
		return nil
	}
	w.compressed.Reset()
	gz, err := gzip.NewWriterLevel(&w.compressed, w.level)
	if err != nil {
		return err
	}
	gz.Header.Extra = append([]byte(nil), bgzfExtra[:]...)
	gz.Header.OS = 0xff
	if _, err := gz.Write(w.pending.Bytes()); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	w.pending.Reset()

	b := w.compressed.Bytes()
	bsize := w.compressed.Len() - 1
	if bsize >= compressedBlockSize {
		return fmt.Errorf("bedgraph: compressed block too large: %d", bsize)
	}
	extraOff := bytes.Index(b, []byte{66, 67, 2, 0})
	if extraOff < 0 {
		return fmt.Errorf("bedgraph: could not locate BGZF Extra subfield in gzip header")
	}
	b[extraOff+4] = byte(bsize)
	b[extraOff+5] = byte(bsize >> 8)

	n, err := w.w.Write(b)
	if err != nil {
		return err
	}
	w.coffset += uint64(n)
	return nil
}

// close flushes any pending block and appends the BGZF terminator.
func (w *bgzfWriter) close() error {
	if err := w.flushBlock(); err != nil {
		return err
	}
	_, err := w.w.Write(terminator)
	return err
}
