package interval

import "math"

// PosType is the coordinate type used throughout the coverage engine.  int32
// is wide enough since that's what BAM itself is limited to.
type PosType = int32

// PosTypeMax is the maximum value representable by PosType.
const PosTypeMax = math.MaxInt32

// Header is the subset of a SAM/BAM header BedRegions needs: an ordered
// sequence of (tid, name, length) triples.  *sam.Header from
// github.com/biogo/hts/sam satisfies this via a thin adapter in samutil.
type Header interface {
	NTargets() int
	RefName(tid int) string
	RefLen(tid int) PosType
}

// Region is a single half-open interval [Start, End) on reference Tid.  The
// invariant 0 <= Start < End <= Header.RefLen(Tid) is enforced by the loaders
// in this package, not by the type itself.
type Region struct {
	Chr   string
	Tid   int
	Start PosType
	End   PosType
}

// BedRegions is an ordered, read-only sequence of Regions sorted by
// (Tid, Start, End) in header-tid order.  Duplicate regions are permitted.
type BedRegions struct {
	Regions []Region
}

// Len returns the number of regions.
func (b *BedRegions) Len() int { return len(b.Regions) }
