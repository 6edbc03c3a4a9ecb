package samutil

import "github.com/biogo/hts/sam"

// RefSpan returns the number of reference bases consumed by cigar, i.e. the
// distance from a record's start to its (exclusive) end on the reference.
// Equivalent to bam_endpos(b) - b->core.pos in htslib.
func RefSpan(cigar sam.Cigar) int32 {
	var span int32
	for _, op := range cigar {
		if consumesRef(op.Type()) {
			span += int32(op.Len())
		}
	}
	return span
}

func consumesRef(t sam.CigarOpType) bool {
	return isRefAndQuery(t) || consumesRefOnly(t)
}

// isRefAndQuery reports whether op both consumes the reference and
// contributes a coverage increment — M/=/X.
func isRefAndQuery(t sam.CigarOpType) bool {
	return t == sam.CigarMatch || t == sam.CigarEqual || t == sam.CigarMismatch
}

// consumesRefOnly reports whether op advances the reference cursor without
// adding coverage — D/N.
func consumesRefOnly(t sam.CigarOpType) bool {
	return t == sam.CigarDeletion || t == sam.CigarSkipped
}

// WalkCigar calls onMatch(start, length) for every run of reference-and-
// query-consuming CIGAR operations (M/=/X), and advances past D/N without
// calling back.  I/S/H/P operations are ignored entirely, matching
// original_source/src/bamcoverage/coverage.c's coverage_process loop.
func WalkCigar(cigar sam.Cigar, refStart int32, onMatch func(start, length int32)) {
	cur := refStart
	for _, op := range cigar {
		t := op.Type()
		length := int32(op.Len())
		switch {
		case isRefAndQuery(t):
			onMatch(cur, length)
			cur += length
		case consumesRefOnly(t):
			cur += length
		default:
			// query-only (I/S/H/P): does not advance the reference cursor.
		}
	}
}
