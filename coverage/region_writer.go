package coverage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"

	"github.com/epi2me-labs/fastcat/bedgraph"
	"github.com/epi2me-labs/fastcat/interval"
)

// regionWriter is one output stratum: the whole genome, one fixed-length
// tiling, or one BED file. It owns its own bedgraph sinks, summary/dist
// files, and running totals, and consumes interval.BedRegions.Regions in
// order as contigs are flushed past it.
type regionWriter struct {
	ctx context.Context

	name       string
	dir        string
	perBase    bool
	byStrand   bool
	wholeChrom bool

	bed       *interval.BedRegions
	curRegion int

	thresholds []uint32
	distCutoff float64

	dist  []int64
	stats [4]int64

	bgFwd, bgRev, bgTot       *bedgraph.Writer
	fFwd, fRev, fTot          file.File
	pathFwd, pathRev, pathTot string

	summaryFile file.File
	summaryW    *tsv.Writer
	distFile    file.File
	distW       *tsv.Writer
}

func newRegionWriter(ctx context.Context, dir, name string, bed *interval.BedRegions, wholeChrom bool, opts *Opts) (*regionWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	thresholds := opts.thresholds()
	maxCover := minHistogramCapacity
	if n := len(thresholds); n > 0 && int(thresholds[n-1])+1 > maxCover {
		maxCover = int(thresholds[n-1]) + 1
	}

	rw := &regionWriter{
		ctx:        ctx,
		name:       name,
		dir:        dir,
		perBase:    opts.PerBase,
		byStrand:   opts.ByStrand,
		wholeChrom: wholeChrom,
		bed:        bed,
		thresholds: thresholds,
		distCutoff: opts.distCutoff(),
		dist:       make([]int64, maxCover),
		stats:      newStats(),
	}

	if rw.perBase {
		level := opts.compressionLevel()
		if rw.byStrand {
			var err error
			rw.pathFwd = filepath.Join(dir, name+".fwd.bed.gz")
			if rw.fFwd, err = file.Create(ctx, rw.pathFwd); err != nil {
				return nil, err
			}
			rw.bgFwd = bedgraph.NewWriter(rw.fFwd.Writer(ctx), level)

			rw.pathRev = filepath.Join(dir, name+".rev.bed.gz")
			if rw.fRev, err = file.Create(ctx, rw.pathRev); err != nil {
				return nil, err
			}
			rw.bgRev = bedgraph.NewWriter(rw.fRev.Writer(ctx), level)
		}
		var err error
		rw.pathTot = filepath.Join(dir, name+".bed.gz")
		if rw.fTot, err = file.Create(ctx, rw.pathTot); err != nil {
			return nil, err
		}
		rw.bgTot = bedgraph.NewWriter(rw.fTot.Writer(ctx), level)
	}

	var err error
	if rw.summaryFile, err = file.Create(ctx, filepath.Join(dir, name+".summary.txt")); err != nil {
		return nil, err
	}
	rw.summaryW = tsv.NewWriter(rw.summaryFile.Writer(ctx))
	if err := writeSummaryHeader(rw.summaryW, thresholds); err != nil {
		return nil, err
	}

	if rw.distFile, err = file.Create(ctx, filepath.Join(dir, name+".dist.txt")); err != nil {
		return nil, err
	}
	rw.distW = tsv.NewWriter(rw.distFile.Writer(ctx))

	return rw, nil
}

func (rw *regionWriter) regionName(reg interval.Region) string {
	if rw.wholeChrom {
		return reg.Chr
	}
	return interval.ToString(reg)
}

// fillSkipped emits explicit zero-coverage rows for every region that
// precedes tid in header order — regions on contigs with no alignments at
// all would otherwise never be visited by flush.
func (rw *regionWriter) fillSkipped(tid int) error {
	for rw.curRegion < rw.bed.Len() {
		reg := rw.bed.Regions[rw.curRegion]
		if reg.Tid >= tid {
			break
		}
		length := int64(reg.End - reg.Start)
		zeroStats := [4]int64{statMin: 0, statMax: 0, statTotal: 0, statPositions: length}
		zeroDist := make([]int64, len(rw.dist))
		if err := writeSummaryRow(rw.summaryW, nil, rw.regionName(reg), int64(reg.Start), int64(reg.End), zeroStats, zeroDist, rw.thresholds, rw.distCutoff); err != nil {
			return err
		}
		if rw.perBase {
			if err := rw.writeBedgraphZero(reg); err != nil {
				return err
			}
		}
		rw.curRegion++
		rw.stats[statMin] = 0
		rw.stats[statPositions] += length
		rw.dist[0] += length
	}
	return nil
}

func (rw *regionWriter) writeBedgraphZero(reg interval.Region) error {
	if rw.bgFwd != nil {
		if err := rw.bgFwd.WriteLine(int32(reg.Tid), reg.Chr, int64(reg.Start), int64(reg.End), 0); err != nil {
			return err
		}
	}
	if rw.bgRev != nil {
		if err := rw.bgRev.WriteLine(int32(reg.Tid), reg.Chr, int64(reg.Start), int64(reg.End), 0); err != nil {
			return err
		}
	}
	if rw.bgTot != nil {
		if err := rw.bgTot.WriteLine(int32(reg.Tid), reg.Chr, int64(reg.Start), int64(reg.End), 0); err != nil {
			return err
		}
	}
	return nil
}

// flush processes every region on tid, consuming cumulative per-base
// coverage from diffFwd/diffRev (already prefix-summed by the caller).
func (rw *regionWriter) flush(tid int, chrom string, diffFwd, diffRev []int32, contigLen int32) error {
	for rw.curRegion < rw.bed.Len() {
		reg := rw.bed.Regions[rw.curRegion]
		if reg.Tid != tid {
			break
		}
		if reg.Start >= contigLen || reg.End <= 0 {
			rw.curRegion++
			continue
		}

		stats := newStats()
		stats[statPositions] = int64(reg.End - reg.Start)
		dist := make([]int64, len(rw.dist))
		for pos := reg.Start; pos < reg.End; pos++ {
			cov := int64(diffFwd[pos]) + int64(diffRev[pos])
			if cov < stats[statMin] {
				stats[statMin] = cov
			}
			if cov > stats[statMax] {
				stats[statMax] = cov
			}
			stats[statTotal] += cov
			dist = growDist(dist, cov)
			dist[cov]++
		}

		if err := writeSummaryRow(rw.summaryW, nil, rw.regionName(reg), int64(reg.Start), int64(reg.End), stats, dist, rw.thresholds, rw.distCutoff); err != nil {
			return err
		}

		if stats[statMin] < rw.stats[statMin] {
			rw.stats[statMin] = stats[statMin]
		}
		if stats[statMax] > rw.stats[statMax] {
			rw.stats[statMax] = stats[statMax]
		}
		rw.stats[statTotal] += stats[statTotal]
		rw.stats[statPositions] += stats[statPositions]
		if len(dist) > len(rw.dist) {
			grown := make([]int64, len(dist))
			copy(grown, rw.dist)
			rw.dist = grown
		}
		for i, c := range dist {
			rw.dist[i] += c
		}

		if rw.perBase {
			if err := rw.writeSegments(chrom, reg, diffFwd, diffRev); err != nil {
				return err
			}
		}

		rw.curRegion++
	}
	return nil
}

// writeSegments walks [reg.Start, reg.End) emitting one bedgraph line per
// maximal run of constant coverage, independently for the forward, reverse,
// and combined traces.
func (rw *regionWriter) writeSegments(chrom string, reg interval.Region, diffFwd, diffRev []int32) error {
	tid := int32(reg.Tid)
	covFwd := diffFwd[reg.Start]
	covRev := diffRev[reg.Start]
	covTot := covFwd + covRev
	segFwd, segRev, segTot := reg.Start, reg.Start, reg.Start

	for pos := reg.Start + 1; pos < reg.End; pos++ {
		prevFwd, prevRev := covFwd, covRev
		prevTot := prevFwd + prevRev

		covFwd = diffFwd[pos]
		covRev = diffRev[pos]
		covTot = covFwd + covRev

		if covFwd != prevFwd {
			if rw.bgFwd != nil {
				if err := rw.bgFwd.WriteLine(tid, chrom, int64(segFwd), int64(pos), float64(prevFwd)); err != nil {
					return err
				}
			}
			segFwd = pos
		}
		if covRev != prevRev {
			if rw.bgRev != nil {
				if err := rw.bgRev.WriteLine(tid, chrom, int64(segRev), int64(pos), float64(prevRev)); err != nil {
					return err
				}
			}
			segRev = pos
		}
		if covTot != prevTot {
			if rw.bgTot != nil {
				if err := rw.bgTot.WriteLine(tid, chrom, int64(segTot), int64(pos), float64(prevTot)); err != nil {
					return err
				}
			}
			segTot = pos
		}
	}

	if segFwd < reg.End && rw.bgFwd != nil {
		if err := rw.bgFwd.WriteLine(tid, chrom, int64(segFwd), int64(reg.End), float64(covFwd)); err != nil {
			return err
		}
	}
	if segRev < reg.End && rw.bgRev != nil {
		if err := rw.bgRev.WriteLine(tid, chrom, int64(segRev), int64(reg.End), float64(covRev)); err != nil {
			return err
		}
	}
	if segTot < reg.End && rw.bgTot != nil {
		if err := rw.bgTot.WriteLine(tid, chrom, int64(segTot), int64(reg.End), float64(covTot)); err != nil {
			return err
		}
	}
	return nil
}

// close writes the trailing total summary/dist row, flushes every sink, and
// writes a .bed.gz.csi index beside each bedgraph that was produced.
func (rw *regionWriter) close() error {
	if err := writeSummaryRow(rw.summaryW, rw.distW, rw.name, 0, 0, rw.stats, rw.dist, rw.thresholds, rw.distCutoff); err != nil {
		return err
	}
	if err := rw.summaryW.Flush(); err != nil {
		return err
	}
	if err := rw.summaryFile.Close(rw.ctx); err != nil {
		return err
	}
	if err := rw.distW.Flush(); err != nil {
		return err
	}
	if err := rw.distFile.Close(rw.ctx); err != nil {
		return err
	}

	for _, sink := range []struct {
		w    *bedgraph.Writer
		f    file.File
		path string
	}{
		{rw.bgFwd, rw.fFwd, rw.pathFwd},
		{rw.bgRev, rw.fRev, rw.pathRev},
		{rw.bgTot, rw.fTot, rw.pathTot},
	} {
		if sink.w == nil {
			continue
		}
		idxFile, err := file.Create(rw.ctx, sink.path+".csi")
		if err != nil {
			return err
		}
		if err := sink.w.Close(idxFile.Writer(rw.ctx)); err != nil {
			idxFile.Close(rw.ctx)
			return err
		}
		if err := idxFile.Close(rw.ctx); err != nil {
			return err
		}
		if err := sink.f.Close(rw.ctx); err != nil {
			return err
		}
	}
	return nil
}
