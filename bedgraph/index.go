package bedgraph

import (
	"encoding/binary"
	"io"
)

// indexMagic tags the sibling index file. It intentionally does not claim to
// be htslib's CSI format (that format's bin-packing scheme is tied to BAM's
// depth-5 R-tree layout, which has no role here); this is a minimal analogue
// that answers the one question the CLIs need: "what virtual offset does
// reference tid start at, and how many lines does it have".
var indexMagic = [4]byte{'B', 'G', 'C', 'I'}

// chromEntry records the BGZF virtual offset range spanned by one reference's
// lines in the bedgraph.
type chromEntry struct {
	Tid        int32
	NameLen    uint32
	Name       string
	NumLines   uint64
	VOffsetLo  uint64 // virtual offset of the first line
	VOffsetHi  uint64 // virtual offset just past the last line
}

// Index is the in-memory form of a bedgraph's .csi sibling file.
type Index struct {
	Chroms []chromEntry
}

func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	var written int64
	n, err := w.Write(indexMagic[:])
	written += int64(n)
	if err != nil {
		return written, err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(idx.Chroms))); err != nil {
		return written, err
	}
	written += 4
	for _, c := range idx.Chroms {
		if err := binary.Write(w, binary.LittleEndian, c.Tid); err != nil {
			return written, err
		}
		written += 4
		if err := binary.Write(w, binary.LittleEndian, uint32(len(c.Name))); err != nil {
			return written, err
		}
		written += 4
		nb, err := io.WriteString(w, c.Name)
		written += int64(nb)
		if err != nil {
			return written, err
		}
		for _, v := range []uint64{c.NumLines, c.VOffsetLo, c.VOffsetHi} {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return written, err
			}
			written += 8
		}
	}
	return written, nil
}

// ReadIndex parses an index file written by WriteTo.
func ReadIndex(r io.Reader) (*Index, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	idx := &Index{Chroms: make([]chromEntry, 0, n)}
	for i := uint32(0); i < n; i++ {
		var c chromEntry
		if err := binary.Read(r, binary.LittleEndian, &c.Tid); err != nil {
			return nil, err
		}
		var nameLen uint32
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, err
		}
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, err
		}
		c.Name = string(nameBuf)
		for _, dst := range []*uint64{&c.NumLines, &c.VOffsetLo, &c.VOffsetHi} {
			if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
				return nil, err
			}
		}
		idx.Chroms = append(idx.Chroms, c)
	}
	return idx, nil
}

// Lookup returns the chromEntry for name, if present.
func (idx *Index) Lookup(name string) (chromEntry, bool) {
	for _, c := range idx.Chroms {
		if c.Name == name {
			return c, true
		}
	}
	return chromEntry{}, false
}
