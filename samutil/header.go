// Package samutil collects small helpers shared across the coverage engine
// and the read-statistics tools: a Header adapter over *sam.Header, the
// default mosdepth-style flag masks, and reference-consuming CIGAR walking.
package samutil

import "github.com/biogo/hts/sam"

// Header adapts *sam.Header to interval.Header (a structural interface;
// imported by name only, not by type, to avoid a dependency cycle).
type Header struct {
	H *sam.Header
}

// NTargets returns the number of references in the header.
func (h Header) NTargets() int { return len(h.H.Refs()) }

// RefName returns the name of reference tid.
func (h Header) RefName(tid int) string { return h.H.Refs()[tid].Name() }

// RefLen returns the length of reference tid.
func (h Header) RefLen(tid int) int32 { return int32(h.H.Refs()[tid].Len()) }

// IsCoordinateSorted reports whether hdr declares SO:coordinate.
func IsCoordinateSorted(hdr *sam.Header) bool {
	return hdr.SortOrder == sam.Coordinate
}
