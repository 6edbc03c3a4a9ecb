// Package fastqstats computes per-read alignment and composition statistics
// for the bamstats/fastcat tools: per-record coverage/accuracy/identity
// figures from a BAM alignment, and per-reference flag-category tallies.
package fastqstats

import (
	"fmt"
	"math"

	"github.com/biogo/hts/sam"

	"github.com/epi2me-labs/fastcat/samutil"
)

var nmTag = sam.Tag{'N', 'M'}

// ReadStat is one row of the per-read alignment report, matching the column
// order bamstats has always emitted: name, ref, coverage, ref_coverage,
// qstart, qend, rstart, rend, aligned_ref_len, direction, length,
// read_length, mean_quality, match, ins, del, sub, iden, acc.
type ReadStat struct {
	Name          string
	Ref           string
	Coverage      float64 // percentage of the read's length that aligned
	RefCoverage   float64 // percentage of the reference that this alignment spans
	QStart, QEnd  int     // query coordinates of the aligned portion, clipping excluded
	RStart, REnd  int     // reference coordinates of the alignment
	AlignedRefLen int
	Direction     byte // '+' or '-'
	Length        int  // match + ins + del
	ReadLength    int  // full, unclipped query length
	MeanQuality   float64
	Match, Ins, Del, Sub int
	Identity      float64 // percentage
	Accuracy      float64 // percentage
}

// cigarStats tallies reference/query-consuming bases per CIGAR op type, the
// same nine-bucket layout as create_cigar_stats in the original C: indexed
// by sam.CigarOpType, M/I/D/N/S/H/P/=/X.
func cigarStats(cigar sam.Cigar) [9]int {
	var stats [9]int
	for _, op := range cigar {
		stats[op.Type()] += op.Len()
	}
	return stats
}

// queryBounds returns the [start,end) of the aligned (non-clipped) portion
// of the query, matching get_query_start/get_query_end's leading/trailing
// soft/hard-clip walk.
func queryBounds(cigar sam.Cigar, qlen int) (start, end int) {
	for _, op := range cigar {
		switch op.Type() {
		case sam.CigarHardClipped:
			continue
		case sam.CigarSoftClipped:
			start += op.Len()
		default:
			start, end = start, qlen
			goto trailing
		}
	}
	end = qlen
trailing:
	for i := len(cigar) - 1; i >= 0; i-- {
		switch cigar[i].Type() {
		case sam.CigarHardClipped:
			continue
		case sam.CigarSoftClipped:
			end -= cigar[i].Len()
		default:
			return start, end
		}
	}
	return start, end
}

// phredMeanQuality averages per-base error probabilities (Kahan-summed, to
// keep precision over reads with hundreds of thousands of bases) and
// converts the mean back to a Phred score, matching common.c's mean_qual/
// mean_qual_from_bam: the mean of error probabilities, not of Phred scores.
func phredMeanQuality(errProb func(i int) float64, n int) float64 {
	if n == 0 {
		return 0
	}
	var sum, c float64
	for i := 0; i < n; i++ {
		y := errProb(i) + c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	sum /= float64(n)
	return -10 * math.Log10(sum)
}

// meanQuality averages the record's raw (BAM-encoded) base qualities,
// returning 0 for records with no quality string (qual[0] == 0xff, "*").
func meanQuality(qual []byte) float64 {
	if len(qual) == 0 || qual[0] == 0xff {
		return 0
	}
	return phredMeanQuality(func(i int) float64 {
		return math.Pow(10, -float64(qual[i])/10)
	}, len(qual))
}

// MeanQualityASCII computes the same Phred-scale mean as meanQuality, but
// over a FASTQ Phred+33 ASCII quality string.
func MeanQualityASCII(qual []byte) float64 {
	return phredMeanQuality(func(i int) float64 {
		return math.Pow(10, -float64(int(qual[i])-33)/10)
	}, len(qual))
}

// ComputeReadStat builds a ReadStat for rec, which must carry an "NM" aux
// tag (edit distance) and be aligned against a reference of length refLen.
// It returns an error if the NM tag is absent, matching the original tool's
// hard requirement.
func ComputeReadStat(rec *sam.Record, refLen int) (ReadStat, error) {
	nmAux := rec.AuxFields.Get(nmTag)
	if nmAux == nil {
		return ReadStat{}, fmt.Errorf("fastqstats: read %q has no NM tag", rec.Name)
	}
	var nm int
	switch v := nmAux.Value().(type) {
	case int8:
		nm = int(v)
	case uint8:
		nm = int(v)
	case int16:
		nm = int(v)
	case uint16:
		nm = int(v)
	case int32:
		nm = int(v)
	case uint32:
		nm = int(v)
	default:
		return ReadStat{}, fmt.Errorf("fastqstats: read %q has non-integer NM tag", rec.Name)
	}

	cig := cigarStats(rec.Cigar)
	match := cig[sam.CigarMatch]
	ins := cig[sam.CigarInsertion]
	del := cig[sam.CigarDeletion]
	sub := nm - ins - del
	length := match + ins + del

	readLength := rec.Seq.Length
	qstart, qend := queryBounds(rec.Cigar, readLength)

	rstart := rec.Pos
	rend := rstart + int(samutil.RefSpan(rec.Cigar))
	alignedRefLen := rend - rstart

	var iden, acc, coverage, refCoverage float64
	if match != 0 {
		iden = 100 * float64(match-sub) / float64(match)
	}
	if length != 0 {
		acc = 100 - 100*float64(nm)/float64(length)
	}
	if readLength != 0 {
		coverage = 100 * float64(qend-qstart) / float64(readLength)
	}
	if refLen != 0 {
		refCoverage = 100 * float64(alignedRefLen) / float64(refLen)
	}

	direction := byte('+')
	if rec.Flags&sam.Reverse != 0 {
		direction = '-'
	}

	return ReadStat{
		Name:          rec.Name,
		Ref:           rec.Ref.Name(),
		Coverage:      coverage,
		RefCoverage:   refCoverage,
		QStart:        qstart,
		QEnd:          qend,
		RStart:        rstart,
		REnd:          rend,
		AlignedRefLen: alignedRefLen,
		Direction:     direction,
		Length:        length,
		ReadLength:    readLength,
		MeanQuality:   meanQuality(rec.Qual),
		Match:         match,
		Ins:           ins,
		Del:           del,
		Sub:           sub,
		Identity:      iden,
		Accuracy:      acc,
	}, nil
}
