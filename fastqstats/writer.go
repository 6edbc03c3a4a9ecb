package fastqstats

import (
	"strconv"

	"github.com/grailbio/base/tsv"
)

// readStatColumns is the per-read report's column order, matching
// write_header in the original tool (qname through acc, with mean_quality
// between read_length and match).
const readStatColumns = "coverage\tref_coverage\t" +
	"qstart\tqend\trstart\trend\t" +
	"aligned_ref_len\tdirection\tlength\tread_length\tmean_quality\t" +
	"match\tins\tdel\tsub\tiden\tacc"

// WriteReadStatHeader writes the per-read report's header line. sample, if
// non-empty, inserts a sample_name column after name.
func WriteReadStatHeader(w *tsv.Writer, sample string) error {
	if sample == "" {
		w.WriteString("name\tref\t" + readStatColumns)
	} else {
		w.WriteString("name\tsample_name\tref\t" + readStatColumns)
	}
	return w.EndLine()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// WriteReadStat writes one per-read report row. sample, if non-empty, must
// match what was passed to WriteReadStatHeader.
func WriteReadStat(w *tsv.Writer, rs ReadStat, sample string) error {
	w.WriteString(rs.Name)
	if sample != "" {
		w.WriteString(sample)
	}
	w.WriteString(rs.Ref)
	w.WriteString(formatFloat(rs.Coverage, 4))
	w.WriteString(formatFloat(rs.RefCoverage, 4))
	w.WriteInt64(int64(rs.QStart))
	w.WriteInt64(int64(rs.QEnd))
	w.WriteInt64(int64(rs.RStart))
	w.WriteInt64(int64(rs.REnd))
	w.WriteInt64(int64(rs.AlignedRefLen))
	w.WriteString(string(rs.Direction))
	w.WriteInt64(int64(rs.Length))
	w.WriteInt64(int64(rs.ReadLength))
	w.WriteString(formatFloat(rs.MeanQuality, 2))
	w.WriteInt64(int64(rs.Match))
	w.WriteInt64(int64(rs.Ins))
	w.WriteInt64(int64(rs.Del))
	w.WriteInt64(int64(rs.Sub))
	w.WriteString(formatFloat(rs.Identity, 3))
	w.WriteString(formatFloat(rs.Accuracy, 3))
	return w.EndLine()
}
