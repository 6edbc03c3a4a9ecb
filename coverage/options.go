package coverage

import "sort"

// DefaultThresholds mirrors the original tool's hardcoded sparse-CDF
// breakpoints when the caller supplies none.
var DefaultThresholds = []uint32{1, 5, 10, 20, 30, 40}

// DefaultDistCutoff is the minimum cumulative-fraction a coverage level must
// reach before it is written to a stratum's dist.txt; below this the dense
// distribution tail is truncated. mosdepth itself uses 8e-5; this toolkit's
// default is looser.
const DefaultDistCutoff = 1e-3

// DefaultCompressionLevel is the gzip level used for bedgraph outputs.
const DefaultCompressionLevel = 6

// minHistogramCapacity is the initial size of each stratum's coverage
// histogram, large enough to avoid reallocating for typical depths.
const minHistogramCapacity = 1 << 8

// Opts configures a CovWriter. Zero values select the tool's defaults,
// except for ExcludeFlags and IncludeFlags, where -1 selects the default
// and 0 means an empty mask.
type Opts struct {
	// OutDir is the top-level output directory; one subdirectory is created
	// per stratum (global, each segment length, each BED file).
	OutDir string

	// PerBase enables writing of the piecewise-constant bedgraph traces.
	// Without it, only the summary and distribution files are produced.
	PerBase bool

	// ByStrand additionally writes forward/reverse-strand bedgraphs; without
	// it, only the combined trace is written.
	ByStrand bool

	// UseCigar walks each record's CIGAR to find reference-consuming runs
	// instead of treating every alignment as one contiguous block from its
	// start to bam_endpos.
	UseCigar bool

	// ExcludeFlags and IncludeFlags are SAM flag bitmasks. A flag value of -1
	// selects the default (samutil.DefaultExcludeFlags, 0 respectively).
	ExcludeFlags int
	IncludeFlags int

	// Thresholds are the coverage levels reported as sparse-CDF fractions in
	// each stratum's summary file. Defaults to DefaultThresholds.
	Thresholds []uint32

	// Segments declares additional fixed-length-tiling strata, one
	// "segments_<n>" output directory per entry.
	Segments []int32

	// BedFiles maps a stratum name to a BED file path; one stratum is
	// produced per entry, in map iteration order is NOT relied upon — callers
	// needing deterministic output ordering should supply BedNames.
	BedFiles map[string]string
	// BedNames gives stable iteration order over BedFiles; any name present
	// in BedFiles but absent here is appended in unspecified order.
	BedNames []string

	// DistCutoff overrides DefaultDistCutoff.
	DistCutoff float64

	// CompressionLevel overrides DefaultCompressionLevel for bedgraph output.
	CompressionLevel int
}

func (o *Opts) thresholds() []uint32 {
	t := o.Thresholds
	if len(t) == 0 {
		t = DefaultThresholds
	}
	out := append([]uint32(nil), t...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (o *Opts) distCutoff() float64 {
	if o.DistCutoff > 0 {
		return o.DistCutoff
	}
	return DefaultDistCutoff
}

func (o *Opts) compressionLevel() int {
	if o.CompressionLevel > 0 {
		return o.CompressionLevel
	}
	return DefaultCompressionLevel
}

func (o *Opts) bedNames() []string {
	seen := make(map[string]bool, len(o.BedFiles))
	names := make([]string, 0, len(o.BedFiles))
	for _, n := range o.BedNames {
		if _, ok := o.BedFiles[n]; ok && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	for n := range o.BedFiles {
		if !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	return names
}
