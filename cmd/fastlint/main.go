/*
fastlint drops reads whose DUST low-complexity score exceeds a maximum
masked-base proportion, passing the rest through unchanged.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/epi2me-labs/fastcat/dust"
	"github.com/epi2me-labs/fastcat/fastqio"
)

var (
	threshold     = flag.Int("threshold", dust.DefaultThreshold, "DUST repetition threshold")
	window        = flag.Int("window", dust.DefaultWindow, "DUST window size")
	maxProportion = flag.Float64("max-proportion", 0.95, "Maximum allowable masked-base proportion before a read is dropped")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] reads.fastq [reads2.fastq ...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *maxProportion < 0.0 || *maxProportion > 1.0 {
		log.Fatalf("-max-proportion must be between 0.0 and 1.0")
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	kept, dropped := 0, 0
	for _, path := range flag.Args() {
		r, err := fastqio.Open(ctx, path)
		if err != nil {
			log.Fatalf("cannot open %s: %v", path, err)
		}
		for {
			rec, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Fatalf("reading %s: %v", path, err)
			}
			intervals := dust.Mask(rec.Seq, *threshold, *window)
			frac := dust.MaskedFraction(rec.Seq, intervals)
			if frac > *maxProportion {
				log.Error.Printf("Read %s masked fraction %.2f exceeds threshold %.2f, skipping.", rec.Name, frac, *maxProportion)
				dropped++
				continue
			}
			if err := fastqio.WriteRecord(os.Stdout, rec); err != nil {
				log.Fatalf("writing output: %v", err)
			}
			kept++
		}
		if err := r.Close(); err != nil {
			log.Fatalf("closing %s: %v", path, err)
		}
	}
	log.Debug.Printf("kept %d reads, dropped %d", kept, dropped)
}
