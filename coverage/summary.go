package coverage

import (
	"fmt"
	"math"
	"strconv"

	"github.com/grailbio/base/tsv"
)

// stats indices, matching the original tool's int64_t stats[4] layout.
const (
	statMin = iota
	statMax
	statTotal
	statPositions
)

func newStats() [4]int64 {
	return [4]int64{statMin: math.MaxInt64}
}

// growDist doubles dist until it can index cover, copying existing counts.
func growDist(dist []int64, cover int64) []int64 {
	if int(cover) < len(dist) {
		return dist
	}
	newCap := len(dist)
	if newCap == 0 {
		newCap = minHistogramCapacity
	}
	for int64(newCap) <= cover {
		newCap *= 2
	}
	grown := make([]int64, newCap)
	copy(grown, dist)
	return grown
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// writeSummaryRow writes one row to summaryW (chrom, start, end, length,
// bases, mean, min, max, then one sparse-CDF fraction per threshold) and,
// when distW is non-nil, the dense coverage distribution for this stats/dist
// pair (coverage level descending, cumulative fraction, truncated below
// distCutoff). thresholds must be sorted ascending.
func writeSummaryRow(summaryW, distW *tsv.Writer, name string, start, end int64, stats [4]int64, dist []int64, thresholds []uint32, distCutoff float64) error {
	threshCounts := make([]int64, len(thresholds))
	curThresh := len(thresholds) - 1
	var cum float64
	positions := float64(stats[statPositions])
	for cover := len(dist) - 1; cover >= 0; cover-- {
		cum += float64(dist[cover])

		if distW != nil && positions > 0 {
			frac := cum / positions
			if frac >= distCutoff {
				distW.WriteString(name)
				distW.WriteInt64(int64(cover))
				distW.WriteString(formatFloat(frac, 3))
				if err := distW.EndLine(); err != nil {
					return err
				}
			}
		}

		if curThresh >= 0 && uint32(cover) == thresholds[curThresh] {
			threshCounts[curThresh] = int64(cum)
			if curThresh > 0 {
				curThresh--
			}
		}
	}

	var mean float64
	if stats[statPositions] != 0 {
		mean = float64(stats[statTotal]) / float64(stats[statPositions])
	}
	min := stats[statMin]
	if min == math.MaxInt64 {
		min = 0
	}

	summaryW.WriteString(name)
	summaryW.WriteInt64(start)
	summaryW.WriteInt64(end)
	summaryW.WriteInt64(stats[statPositions])
	summaryW.WriteInt64(stats[statTotal])
	summaryW.WriteString(formatFloat(mean, 2))
	// the trailing space reproduces coverage.c's _write_summary fprintf
	// format string ("%jd \t%jd") verbatim; see DESIGN.md.
	summaryW.WriteString(strconv.FormatInt(min, 10) + " ")
	summaryW.WriteInt64(stats[statMax])
	for i := range thresholds {
		var frac float64
		if stats[statPositions] != 0 {
			frac = float64(threshCounts[i]) / float64(stats[statPositions])
		}
		summaryW.WriteString(formatFloat(frac, 3))
	}
	return summaryW.EndLine()
}

func writeSummaryHeader(w *tsv.Writer, thresholds []uint32) error {
	h := "chrom\tstart\tend\tlength\tbases\tmean\tmin\tmax"
	for _, t := range thresholds {
		h += fmt.Sprintf("\t%dx", t)
	}
	w.WriteString(h)
	return w.EndLine()
}
