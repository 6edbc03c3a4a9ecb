/*
bamstats reports per-read alignment accuracy/coverage statistics and, per
reference sequence, SAM FLAG category tallies, for a BAM file.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"

	"github.com/epi2me-labs/fastcat/coverage"
	"github.com/epi2me-labs/fastcat/fastqstats"
	"github.com/epi2me-labs/fastcat/histogram"
)

var (
	sample     = flag.String("sample", "", "Sample name; if given, adds a sample_name column to both reports")
	flagstats  = flag.String("flagstats", "", "Path to write per-reference FLAG tallies; empty disables the report")
	readGroup  = flag.String("read-group", "", "Only process reads carrying this read group ('RG' tag)")
	unmapped   = flag.Bool("unmapped", false, "Include unmapped/unplaced reads in the flagstat tallies")
	out        = flag.String("out", "", "Path to write the per-read report; empty writes to stdout")
	histDir    = flag.String("histograms", "bamstats-histograms", "Directory for length/quality histogram output; empty disables")
	doCoverage = flag.Bool("coverage", false, "Also run the coverage engine over the same alignments")
	covOutDir  = flag.String("coverage-out", "bamstats-coverage", "Output directory for -coverage; must not already exist")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] bampath\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

var rgTag = sam.Tag{'R', 'G'}

func readGroupOf(rec *sam.Record) (string, bool) {
	aux := rec.AuxFields.Get(rgTag)
	if aux == nil {
		return "", false
	}
	rg, ok := aux.Value().(string)
	return rg, ok
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Missing positional argument (bampath required); please check flag syntax")
	}
	bamPath := flag.Arg(0)

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

	readsOut := os.Stdout
	if *out != "" {
		readsOut, err = os.Create(*out)
		if err != nil {
			log.Fatalf("cannot create %s: %v", *out, err)
		}
		defer readsOut.Close()
	}
	readsTSV := tsv.NewWriter(readsOut)
	if err := fastqstats.WriteReadStatHeader(readsTSV, *sample); err != nil {
		log.Fatalf("writing read report header: %v", err)
	}

	var flagTSV *tsv.Writer
	var flagOut *os.File
	flagCounts := map[string]*fastqstats.FlagStats{}
	if *flagstats != "" {
		flagOut, err = os.Create(*flagstats)
		if err != nil {
			log.Fatalf("cannot create %s: %v", *flagstats, err)
		}
		defer flagOut.Close()
		flagTSV = tsv.NewWriter(flagOut)
		if err := fastqstats.WriteFlagStatsHeader(flagTSV, *sample); err != nil {
			log.Fatalf("writing flagstat header: %v", err)
		}
	}

	refLens := map[string]int{}
	for _, ref := range reader.Header().Refs() {
		refLens[ref.Name()] = ref.Len()
	}

	var lengthHist histogram.Length
	qualHist := histogram.NewQuality(1.0)

	var cw *coverage.CovWriter
	if *doCoverage {
		cw, err = coverage.NewCovWriter(context.Background(), reader.Header(), coverage.Opts{
			OutDir:       *covOutDir,
			ExcludeFlags: -1,
			IncludeFlags: -1,
		})
		if err != nil {
			log.Fatalf("initializing coverage engine: %v", err)
		}
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

		if *readGroup != "" {
			rg, ok := readGroupOf(rec)
			if !ok || rg != *readGroup {
				continue
			}
		}

		if cw != nil {
			if err := cw.Process(rec); err != nil {
				log.Fatalf("coverage engine: processing record %s: %v", rec.Name, err)
			}
		}

		refName := "*"
		if rec.Ref != nil {
			refName = rec.Ref.Name()
		}
		if flagTSV != nil {
			fs := flagCounts[refName]
			if fs == nil {
				fs = &fastqstats.FlagStats{}
				flagCounts[refName] = fs
			}
			fs.Add(rec.Flags)
		}

		if rec.Flags&sam.Unmapped != 0 && !*unmapped {
			continue
		}
		if rec.Ref == nil {
			continue
		}
		rs, err := fastqstats.ComputeReadStat(rec, refLens[refName])
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := fastqstats.WriteReadStat(readsTSV, rs, *sample); err != nil {
			log.Fatalf("writing read report row: %v", err)
		}
		lengthHist.Add(rs.ReadLength)
		qualHist.Add(rs.MeanQuality)
		n++
	}
	if err := readsTSV.Flush(); err != nil {
		log.Fatalf("flushing read report: %v", err)
	}
	log.Debug.Printf("wrote %d read records", n)

	if cw != nil {
		if err := cw.Close(); err != nil {
			log.Fatalf("closing coverage engine: %v", err)
		}
	}

	if *histDir != "" {
		if err := os.MkdirAll(*histDir, 0o755); err != nil {
			log.Fatalf("creating %s: %v", *histDir, err)
		}
		lengthFile, err := os.Create(filepath.Join(*histDir, "length.hist"))
		if err != nil {
			log.Fatalf("creating length histogram: %v", err)
		}
		if err := lengthHist.WriteTSV(lengthFile); err != nil {
			log.Fatalf("writing length histogram: %v", err)
		}
		if err := lengthFile.Close(); err != nil {
			log.Fatalf("closing length histogram: %v", err)
		}
		qualFile, err := os.Create(filepath.Join(*histDir, "quality.hist"))
		if err != nil {
			log.Fatalf("creating quality histogram: %v", err)
		}
		if err := qualHist.WriteTSV(qualFile); err != nil {
			log.Fatalf("writing quality histogram: %v", err)
		}
		if err := qualFile.Close(); err != nil {
			log.Fatalf("closing quality histogram: %v", err)
		}
	}

	if flagTSV != nil {
		for _, ref := range reader.Header().Refs() {
			fs := flagCounts[ref.Name()]
			if fs == nil {
				fs = &fastqstats.FlagStats{}
			}
			if err := fastqstats.WriteFlagStats(flagTSV, ref.Name(), *sample, *fs); err != nil {
				log.Fatalf("writing flagstat row: %v", err)
			}
		}
		if *unmapped {
			if fs := flagCounts["*"]; fs != nil {
				if err := fastqstats.WriteFlagStats(flagTSV, "*", *sample, *fs); err != nil {
					log.Fatalf("writing flagstat row: %v", err)
				}
			}
		}
		if err := flagTSV.Flush(); err != nil {
			log.Fatalf("flushing flagstats: %v", err)
		}
	}
}
