package fastqstats

import (
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/tsv"
)

// FlagStats tallies SAM FLAG categories for one reference (or the "*"
// unplaced bucket), matching write_stats_header/write_stats's seven
// columns: total, primary, secondary, supplementary, unmapped, qcfail,
// duplicate.
type FlagStats struct {
	Total         int64
	Primary       int64
	Secondary     int64
	Supplementary int64
	Unmapped      int64
	QCFail        int64
	Duplicate     int64
}

// Add tallies one record's flags into fs.
func (fs *FlagStats) Add(flags sam.Flags) {
	fs.Total++
	switch {
	case flags&sam.Secondary != 0:
		fs.Secondary++
	case flags&sam.Supplementary != 0:
		fs.Supplementary++
	default:
		fs.Primary++
	}
	if flags&sam.Unmapped != 0 {
		fs.Unmapped++
	}
	if flags&sam.QCFail != 0 {
		fs.QCFail++
	}
	if flags&sam.Duplicate != 0 {
		fs.Duplicate++
	}
}

// WriteFlagStatsHeader writes the flagstat report header, with or without
// a sample_name column depending on whether sample is empty.
func WriteFlagStatsHeader(w *tsv.Writer, sample string) error {
	w.WriteString("ref")
	if sample != "" {
		w.WriteString("sample_name")
	}
	w.WriteString("total")
	w.WriteString("primary")
	w.WriteString("secondary")
	w.WriteString("supplementary")
	w.WriteString("unmapped")
	w.WriteString("qcfail")
	w.WriteString("duplicate")
	return w.EndLine()
}

// WriteFlagStats writes one flagstat row for ref (or "*" for unplaced
// reads).
func WriteFlagStats(w *tsv.Writer, ref, sample string, fs FlagStats) error {
	w.WriteString(ref)
	if sample != "" {
		w.WriteString(sample)
	}
	w.WriteInt64(fs.Total)
	w.WriteInt64(fs.Primary)
	w.WriteInt64(fs.Secondary)
	w.WriteInt64(fs.Supplementary)
	w.WriteInt64(fs.Unmapped)
	w.WriteInt64(fs.QCFail)
	w.WriteInt64(fs.Duplicate)
	return w.EndLine()
}
