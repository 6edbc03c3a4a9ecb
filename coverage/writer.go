// Package coverage computes per-base sequencing depth from a coordinate-
// sorted stream of BAM records, maintaining one running difference array per
// contig (forward and reverse strand) and flushing it into one or more
// output strata — the whole genome, fixed-length tilings, and/or named BED
// files — as piecewise-constant bedgraphs plus per-region and aggregate
// summary/distribution reports.
//
// A CovWriter assumes records arrive already sorted by reference and
// position within reference; it is a single forward pass, not a random-
// access structure.
package coverage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/epi2me-labs/fastcat/interval"
	"github.com/epi2me-labs/fastcat/samutil"
)

// CovWriter accumulates coverage for every configured output stratum across
// a single coordinate-sorted BAM stream.
type CovWriter struct {
	hdr          *sam.Header
	shdr         samutil.Header
	useCigar     bool
	excludeFlags int
	includeFlags int

	tid       int32 // -1 before the first record
	contigLen int32
	chrom     string
	diffFwd   []int32
	diffRev   []int32

	writers []*regionWriter
}

// NewCovWriter validates opts and hdr, creates opts.OutDir (which must not
// already exist) and one subdirectory per configured stratum, and returns a
// CovWriter ready to Process records for hdr's references.
//
// hdr must declare SO:coordinate; see UnsortedInput.
func NewCovWriter(ctx context.Context, hdr *sam.Header, opts Opts) (*CovWriter, error) {
	if !samutil.IsCoordinateSorted(hdr) {
		return nil, UnsortedInput(fmt.Sprintf("%v", hdr.SortOrder))
	}
	if _, err := os.Stat(opts.OutDir); err == nil {
		return nil, OutputExists(opts.OutDir)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	shdr := samutil.Header{H: hdr}
	excludeFlags := opts.ExcludeFlags
	if excludeFlags == -1 {
		excludeFlags = samutil.DefaultExcludeFlags
	}
	includeFlags := opts.IncludeFlags
	if includeFlags == -1 {
		includeFlags = 0
	}

	cw := &CovWriter{
		hdr:          hdr,
		shdr:         shdr,
		useCigar:     opts.UseCigar,
		excludeFlags: excludeFlags,
		includeFlags: includeFlags,
		tid:          -1,
	}

	global := interval.Synthesize(shdr, 0)
	rw, err := newRegionWriter(ctx, opts.OutDir, "global", global, true, &opts)
	if err != nil {
		return nil, err
	}
	cw.writers = append(cw.writers, rw)

	seen := map[string]bool{"global": true}
	for _, length := range opts.Segments {
		name := fmt.Sprintf("segments_%d", length)
		if seen[name] {
			return nil, ConfigMismatch("duplicate stratum name " + name)
		}
		seen[name] = true
		bed := interval.Synthesize(shdr, length)
		dir := filepath.Join(opts.OutDir, name)
		rw, err := newRegionWriter(ctx, dir, name, bed, false, &opts)
		if err != nil {
			return nil, err
		}
		cw.writers = append(cw.writers, rw)
	}

	for _, name := range opts.bedNames() {
		if seen[name] {
			return nil, ConfigMismatch("duplicate stratum name " + name)
		}
		seen[name] = true
		bed, err := interval.Load(ctx, opts.BedFiles[name], shdr)
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(opts.OutDir, name)
		rw, err := newRegionWriter(ctx, dir, name, bed, false, &opts)
		if err != nil {
			return nil, err
		}
		cw.writers = append(cw.writers, rw)
	}

	return cw, nil
}

// Process folds one alignment record into the coverage traces. Records with
// no reference, the unmapped flag set, or matching the exclude/include
// flag masks are silently dropped, matching mosdepth's filtering contract.
func (cw *CovWriter) Process(rec *sam.Record) error {
	if rec.Ref == nil || rec.Flags&sam.Unmapped != 0 {
		return nil
	}
	if samutil.Excluded(rec.Flags, cw.excludeFlags, cw.includeFlags) {
		return nil
	}

	tid := int32(rec.Ref.ID())
	if tid != cw.tid {
		if err := cw.flushContig(); err != nil {
			return err
		}
		cw.resetContig(tid)
	}

	diff := cw.diffFwd
	if rec.Flags&sam.Reverse != 0 {
		diff = cw.diffRev
	}

	limit := cw.contigLen
	rstart := int32(rec.Pos)
	if !cw.useCigar {
		rend := rstart + samutil.RefSpan(rec.Cigar)
		bumpDiff(diff, rstart, 1, limit)
		bumpDiff(diff, rend, -1, limit)
		return nil
	}
	samutil.WalkCigar(rec.Cigar, rstart, func(start, length int32) {
		bumpDiff(diff, start, 1, limit)
		bumpDiff(diff, start+length, -1, limit)
	})
	return nil
}

func bumpDiff(diff []int32, pos, delta, limit int32) {
	if pos < 0 {
		pos = 0
	}
	if pos > limit {
		pos = limit
	}
	diff[pos] += delta
}

// resetContig zeroes the difference arrays (growing them if needed) and
// points CovWriter at tid.
func (cw *CovWriter) resetContig(tid int32) {
	cw.tid = tid
	if tid < 0 {
		cw.contigLen = 0
		cw.chrom = ""
		return
	}
	cw.contigLen = cw.shdr.RefLen(int(tid))
	cw.chrom = cw.shdr.RefName(int(tid))
	need := int(cw.contigLen) + 1
	if cap(cw.diffFwd) < need {
		cw.diffFwd = make([]int32, need)
		cw.diffRev = make([]int32, need)
		return
	}
	cw.diffFwd = cw.diffFwd[:need]
	cw.diffRev = cw.diffRev[:need]
	for i := range cw.diffFwd {
		cw.diffFwd[i] = 0
		cw.diffRev[i] = 0
	}
}

// flushContig fills in any skipped (zero-alignment) contigs preceding the
// current one, prefix-sums the difference arrays into coverage traces, and
// dispatches every configured stratum's regions on the current contig.
func (cw *CovWriter) flushContig() error {
	if cw.tid < 0 {
		return nil
	}
	for _, rw := range cw.writers {
		if err := rw.fillSkipped(int(cw.tid)); err != nil {
			return err
		}
	}
	for pos := int32(1); pos < cw.contigLen; pos++ {
		cw.diffFwd[pos] += cw.diffFwd[pos-1]
		cw.diffRev[pos] += cw.diffRev[pos-1]
	}
	for _, rw := range cw.writers {
		if err := rw.flush(int(cw.tid), cw.chrom, cw.diffFwd, cw.diffRev, cw.contigLen); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the final contig, emits zero rows for any wholly-unvisited
// trailing contigs, writes every stratum's trailer summary/distribution row,
// and closes all open files. It is safe to call Close exactly once.
func (cw *CovWriter) Close() error {
	if err := cw.flushContig(); err != nil {
		return err
	}
	nTargets := cw.shdr.NTargets()
	for _, rw := range cw.writers {
		if err := rw.fillSkipped(nTargets); err != nil {
			return err
		}
	}

	e := errors.Once{}
	for _, rw := range cw.writers {
		if err := rw.close(); err != nil {
			log.Error.Printf("coverage: closing stratum %s: %v", rw.name, err)
			e.Set(err)
		}
	}
	return e.Err()
}
