package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"
)

// indexMagic tags a .bci file. Chosen independently of htslib's BAI/CSI
// magic bytes since this index has nothing to do with either format.
var indexMagic = [4]byte{'F', 'A', 'N', 'Z'}

// chunkRec records the BGZF virtual offset at which a chunk of alignment
// records begins, named by the qname of its first record.
type chunkRec struct {
	VOffset uint64
	QName   string
}

// chunkIndex is the in-memory form of a .bci file: a sparse list of chunk
// start offsets into an unsorted BAM, taken every chunkSize records.
type chunkIndex struct {
	Version   uint64
	ChunkSize uint64
	NChunks   uint64
	Recs      []chunkRec
}

func newChunkIndex(chunkSize uint64) *chunkIndex {
	return &chunkIndex{Version: 1, ChunkSize: chunkSize}
}

// toVOffset packs a bgzf.Offset into the single uint64 used on disk, the
// same packing GIndex and the bedgraph sibling index use: high 48 bits are
// the compressed-block file offset, low 16 bits the within-block offset.
func toVOffset(off bgzf.Offset) uint64 {
	return uint64(off.File)<<16 | uint64(off.Block)
}

func fromVOffset(v uint64) bgzf.Offset {
	return bgzf.Offset{File: int64(v >> 16), Block: uint16(v & 0xffff)}
}

// writeHeader (re)writes the fixed-size header at the start of w, which
// must support seeking back to its start; called once up front and again
// after the body has been written, to fill in the final NChunks.
func (idx *chunkIndex) writeHeader(w io.WriteSeeker) error {
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write(indexMagic[:]); err != nil {
		return err
	}
	for _, v := range []uint64{idx.Version, idx.ChunkSize, idx.NChunks} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	_, err := w.Seek(0, io.SeekEnd)
	return err
}

// appendRecord writes one chunk record to w and tallies it, mirroring
// bc_idx_write's on-disk layout: offset, qname length (including the NUL
// terminator carried by the C implementation), qname bytes.
func (idx *chunkIndex) appendRecord(w io.Writer, voffset uint64, qname string) error {
	lqname := uint64(len(qname) + 1)
	if err := binary.Write(w, binary.LittleEndian, voffset); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, lqname); err != nil {
		return err
	}
	if _, err := io.WriteString(w, qname); err != nil {
		return err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	idx.NChunks++
	return nil
}

// readChunkIndex parses a .bci file written by writeHeader/appendRecord.
func readChunkIndex(r io.Reader) (*chunkIndex, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("not a bamindex chunk index (bad magic)")
	}
	idx := &chunkIndex{}
	for _, dst := range []*uint64{&idx.Version, &idx.ChunkSize, &idx.NChunks} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("reading index header: %w", err)
		}
	}
	idx.Recs = make([]chunkRec, 0, idx.NChunks)
	for i := uint64(0); i < idx.NChunks; i++ {
		var voffset, lqname uint64
		if err := binary.Read(r, binary.LittleEndian, &voffset); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &lqname); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		buf := make([]byte, lqname)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		// drop the NUL terminator written by appendRecord.
		name := string(buf)
		if n := len(name); n > 0 && name[n-1] == 0 {
			name = name[:n-1]
		}
		idx.Recs = append(idx.Recs, chunkRec{VOffset: voffset, QName: name})
	}
	return idx, nil
}
