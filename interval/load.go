package interval

import (
	"bufio"
	"context"
	"sort"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// nameToTid resolves a chromosome name to a header tid, or (-1, false) if
// unknown.
func nameToTid(hdr Header, name string) (int, bool) {
	for tid := 0; tid < hdr.NTargets(); tid++ {
		if hdr.RefName(tid) == name {
			return tid, true
		}
	}
	return -1, false
}

// splitFields splits a BED line on tabs (or any run of whitespace), returning
// up to the first three columns.  Extra columns are ignored, matching the
// spec's "additional columns permitted" contract.
func splitFields(line []byte) []string {
	var fields []string
	start := -1
	for i, c := range line {
		if c == '\t' || c == ' ' {
			if start >= 0 {
				fields = append(fields, string(line[start:i]))
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		if len(fields) == 3 {
			break
		}
	}
	if start >= 0 && len(fields) < 3 {
		fields = append(fields, string(line[start:]))
	}
	return fields
}

// Load parses a three-column BED file (chr, start, end; additional columns
// ignored) against hdr, clipping each region to [0, RefLen(tid)) and
// dropping (with a warning) any row with a missing field, non-integer
// coordinate, start>=end, unknown chromosome, or an empty interval after
// clipping.  The returned BedRegions is sorted by (tid, start, end) in
// header tid order, per spec.md's §4.1 ordering contract.
//
// Returns an empty BedRegions, not an error, if bedPath is present but
// empty.  Fails with an I/O error if bedPath cannot be opened.
func Load(ctx context.Context, bedPath string, hdr Header) (*BedRegions, error) {
	f, err := file.Open(ctx, bedPath)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, f, &err)

	r := f.Reader(ctx)
	reader := bufio.NewReader(r)
	var scanner *bufio.Scanner
	if fileio.DetermineType(bedPath) == fileio.Gzip {
		gz, gzErr := gzip.NewReader(reader)
		if gzErr != nil {
			return nil, gzErr
		}
		defer gz.Close()
		scanner = bufio.NewScanner(gz)
	} else {
		scanner = bufio.NewScanner(reader)
	}

	out := &BedRegions{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fields := splitFields(line)
		if len(fields) < 3 {
			log.Error.Printf("interval: BED line %d: missing field, skipping", lineNo)
			continue
		}
		chr := fields[0]
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			log.Error.Printf("interval: BED line %d: non-integer start %q, skipping", lineNo, fields[1])
			continue
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			log.Error.Printf("interval: BED line %d: non-integer end %q, skipping", lineNo, fields[2])
			continue
		}
		if start >= end {
			log.Error.Printf("interval: BED line %d: start>=end (%d,%d), skipping", lineNo, start, end)
			continue
		}
		tid, ok := nameToTid(hdr, chr)
		if !ok {
			log.Error.Printf("interval: BED line %d: unknown reference %q, skipping", lineNo, chr)
			continue
		}
		length := hdr.RefLen(tid)
		if start >= PosType(length) {
			log.Error.Printf("interval: BED line %d: region starts past end of %q (length %d), skipping", lineNo, chr, length)
			continue
		}
		e := end
		if e > int64(length) {
			e = int64(length)
		}
		if start >= e {
			log.Error.Printf("interval: BED line %d: region empty after clipping to reference length, skipping", lineNo)
			continue
		}
		out.Regions = append(out.Regions, Region{
			Chr:   chr,
			Tid:   tid,
			Start: PosType(start),
			End:   PosType(e),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sortRegions(out.Regions)
	return out, nil
}

// sortRegions sorts in place by (tid, start, end), stably, matching the
// ordering contract regions must hold for single-pass flushing.
func sortRegions(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if a.Tid != b.Tid {
			return a.Tid < b.Tid
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}
