// Package interval implements the BED interval store used by the coverage
// engine: a flat, header-ordered sequence of regions loaded from a BED file
// or synthesized from a reference header (whole-chromosome or fixed-length
// tiling).
//
// Unlike a merged interval-union, BedRegions keeps one entry per input row;
// duplicate and adjacent rows are preserved verbatim since each becomes its
// own output row downstream.
package interval
