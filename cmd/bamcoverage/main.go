/*
bamcoverage computes per-base sequencing depth from a coordinate-sorted BAM
file, writing piecewise-constant bedgraphs plus summary and distribution
reports for the whole genome and, optionally, for fixed-length tilings and
user-supplied BED regions.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/epi2me-labs/fastcat/coverage"
)

var (
	outDir       = flag.String("out", "bamcoverage_out", "Output directory; must not already exist")
	perBase      = flag.Bool("per-base", false, "Write piecewise-constant bedgraph traces in addition to summary reports")
	byStrand     = flag.Bool("by-strand", false, "Additionally write forward/reverse-strand bedgraphs")
	useCigar     = flag.Bool("cigar", false, "Walk CIGAR operations rather than treating each alignment as one contiguous block")
	excludeFlags = flag.Int("exclude-flags", -1, "SAM FLAG bits to exclude; -1 selects the mosdepth default (1796)")
	includeFlags = flag.Int("include-flags", -1, "SAM FLAG bits a record must have at least one of; -1 selects no filter")
	bedFlag      = flag.String("bed", "", "Comma-separated name=path pairs, one stratum per BED file")
	segmentsFlag = flag.String("segments", "", "Comma-separated fixed segment lengths, one stratum per length")
	thresholds   = flag.String("thresholds", "", "Comma-separated coverage thresholds for the sparse CDF columns; default 1,5,10,20,30,40")
	distCutoff   = flag.Float64("dist-cutoff", coverage.DefaultDistCutoff, "Minimum cumulative fraction retained in dist.txt")
	compression  = flag.Int("compression-level", coverage.DefaultCompressionLevel, "gzip compression level for bedgraph output")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] bampath\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

func parseUint32List(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint32
	for _, tok := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok, err)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func parseInt32List(s string) ([]int32, error) {
	if s == "" {
		return nil, nil
	}
	var out []int32
	for _, tok := range strings.Split(s, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok, err)
		}
		out = append(out, int32(v))
	}
	return out, nil
}

func parseBedList(s string) (map[string]string, []string, error) {
	if s == "" {
		return nil, nil, nil
	}
	files := map[string]string{}
	var names []string
	for _, tok := range strings.Split(s, ",") {
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, nil, fmt.Errorf("invalid -bed entry %q; expected name=path", tok)
		}
		files[kv[0]] = kv[1]
		names = append(names, kv[0])
	}
	return files, names, nil
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Missing positional argument (bampath required); please check flag syntax")
	}
	bamPath := flag.Arg(0)

	segs, err := parseInt32List(*segmentsFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	threshVals, err := parseUint32List(*thresholds)
	if err != nil {
		log.Fatalf("%v", err)
	}
	bedFiles, bedNames, err := parseBedList(*bedFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := vcontext.Background()

	f, err := os.Open(bamPath)
	if err != nil {
		log.Fatalf("cannot open %s: %v", bamPath, err)
	}
	defer f.Close()

	reader, err := bam.NewReader(f, 0)
	if err != nil {
		log.Fatalf("cannot read BAM header from %s: %v", bamPath, err)
	}
	defer reader.Close()

	opts := coverage.Opts{
		OutDir:           *outDir,
		PerBase:          *perBase,
		ByStrand:         *byStrand,
		UseCigar:         *useCigar,
		ExcludeFlags:     *excludeFlags,
		IncludeFlags:     *includeFlags,
		Thresholds:       threshVals,
		Segments:         segs,
		BedFiles:         bedFiles,
		BedNames:         bedNames,
		DistCutoff:       *distCutoff,
		CompressionLevel: *compression,
	}

	cw, err := coverage.NewCovWriter(ctx, reader.Header(), opts)
	if err != nil {
		log.Fatalf("cannot initialize coverage writer: %v", err)
	}

	n := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("reading %s: %v", bamPath, err)
		}
		if err := cw.Process(rec); err != nil {
			log.Fatalf("processing record %s: %v", rec.Name, err)
		}
		n++
	}
	log.Debug.Printf("processed %d records", n)

	if err := cw.Close(); err != nil {
		log.Fatalf("closing coverage writer: %v", err)
	}
}
