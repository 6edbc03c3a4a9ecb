// Package histogram implements the fixed- and growable-bucket counters
// shared by fastcat's and bamstats's length/quality reports.
package histogram

import (
	"bufio"
	"fmt"
	"io"
)

// Length is a growable, unit-width histogram of non-negative integer
// values (read/alignment lengths), matching create_length_stats/
// add_length_count's "one massive bucket" simplification: rather than the
// original's tiered bucket-width groups, every bucket is width 1 and the
// slice grows on demand.
type Length struct {
	counts []int64
}

// Add increments the bucket for length x, growing the histogram if
// needed.
func (h *Length) Add(x int) {
	if x < 0 {
		x = 0
	}
	if x >= len(h.counts) {
		grown := make([]int64, x+1)
		copy(grown, h.counts)
		h.counts = grown
	}
	h.counts[x]++
}

// WriteTSV writes one "lower\tupper\tcount" row per non-empty bucket
// (lower inclusive, upper exclusive), matching print_stats's tsv=true,
// zeroes=false behavior for the fixed-width case.
func (h *Length) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, c := range h.counts {
		if c == 0 {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\n", i, i+1, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Quality is a fixed-width histogram over the range [0, 100], used for
// both mean base-quality (log10-scaled "QUAL") and percentage accuracy/
// identity/coverage figures, matching create_qual_stats/add_qual_count.
type Quality struct {
	width  float64
	counts []int64
}

// NewQuality builds a Quality histogram with the given bucket width,
// spanning the fixed [0, 100] range.
func NewQuality(width float64) *Quality {
	n := int(100.0/width) + 1
	return &Quality{width: width, counts: make([]int64, n)}
}

// Add increments the bucket containing q, clamping q to 100.
func (h *Quality) Add(q float64) {
	if q > 100 {
		q = 100
	}
	if q < 0 {
		q = 0
	}
	i := int(q / h.width)
	if i >= len(h.counts) {
		i = len(h.counts) - 1
	}
	h.counts[i]++
}

// WriteTSV writes one "lower\tupper\tcount" row per non-empty bucket.
func (h *Quality) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, c := range h.counts {
		if c == 0 {
			continue
		}
		lower := float64(i) * h.width
		upper := float64(i+1) * h.width
		if _, err := fmt.Fprintf(bw, "%.2f\t%.2f\t%d\n", lower, upper, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}
