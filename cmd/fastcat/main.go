/*
fastcat concatenates, filters, and optionally demultiplexes FASTQ(.gz)
files, emitting per-read, per-file, and run-ID summaries alongside
length/quality histograms.
*/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/epi2me-labs/fastcat/barcode"
	"github.com/epi2me-labs/fastcat/dust"
	"github.com/epi2me-labs/fastcat/fastqio"
	"github.com/epi2me-labs/fastcat/fastqstats"
)

var fastqExtensions = []string{".fastq", ".fq", ".fastq.gz", ".fq.gz"}

func hasFastqExt(name string) bool {
	for _, ext := range fastqExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

var (
	recurse      = flag.Bool("x", false, "Search directories recursively for FASTQ files")
	sample       = flag.String("sample", "", "Sample name; if given, adds a sample_name column to summaries")
	readsPerFile = flag.Int("reads-per-file", 0, "Split output into files with this many reads each (0: single file)")
	reheader     = flag.Bool("reheader", false, "Rewrite FASTQ header comments as SAM-aux-style tags")
	bamOut       = flag.Bool("bam-out", false, "Output data as unaligned BAM instead of FASTQ")
	verbose      = flag.Bool("v", false, "Verbose output")

	perRead     = flag.String("read", "", "Per-read summary output path")
	perFile     = flag.String("file", "", "Per-file summary output path")
	runIDsPath  = flag.String("runids", "", "Run ID summary output path")
	demultiplex = flag.String("demultiplex", "", "Top-level output directory for demultiplexing by barcode")
	histograms  = flag.String("histograms", "fastcat-histograms", "Directory for length/quality histograms (ignored when --demultiplex is set)")

	minLength = flag.Int("min-length", 0, "Minimum read length to output")
	maxLength = flag.Int("max-length", math.MaxInt32, "Maximum read length to output")
	minQscore = flag.Float64("min-qscore", 0, "Minimum mean read Q score to output")

	doDust    = flag.Bool("dust", false, "Enable DUST low-complexity filtering")
	maxDust   = flag.Float64("max-dust", 0.95, "Maximum proportion of low-complexity bases to allow")
	dustW     = flag.Int("dust-w", dust.DefaultWindow, "Window size for DUST filtering")
	dustT     = flag.Int("dust-t", dust.DefaultThreshold, "Threshold for DUST filtering")

	forceError = flag.Bool("force-error", false, "Exit with non-zero status if any files or records contained errors")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] reads1.fastq(.gz) reads2.fastq(.gz) dir-with-fastq ...\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Input may also be given on stdin as a list of paths, by passing '-' as the only argument.\n")
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *maxDust < 0 || *maxDust > 1 {
		log.Fatalf("-max-dust must be between 0.0 and 1.0")
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	w, err := newFastWriter(writerOpts{
		outputDir:    *demultiplex,
		histDir:      *histograms,
		sample:       *sample,
		reheader:     *reheader,
		bamOut:       *bamOut,
		readsPerFile: *readsPerFile,
		perReadPath:  *perRead,
		perFilePath:  *perFile,
		runIDsPath:   *runIDsPath,
	})
	if err != nil {
		log.Fatalf("initializing output: %v", err)
	}

	ctx := context.Background()
	status := 0
	args := flag.Args()
	if len(args) == 1 && args[0] == "-" {
		status = processStdinList(ctx, w)
	} else {
		for _, path := range args {
			if rtn := processPath(ctx, path, *recurse, w); rtn > status {
				status = rtn
			}
		}
	}

	if err := w.close(); err != nil {
		log.Fatalf("closing output: %v", err)
	}

	totalRecords := w.failures[failRecordOK] + w.failures[failTooLong] +
		w.failures[failTooShort] + w.failures[failLowQuality] + w.failures[failDustMasked]
	log.Printf("Processed %d records in %d files.", totalRecords, len(args))
	if status != 0 {
		log.Printf("WARNING: error processing files.")
	}
	fmt.Fprintln(os.Stderr, "\nParsing/filtering summary:")
	for i, name := range failureNames {
		fmt.Fprintf(os.Stderr, "%s\t%d\n", name, w.failures[i])
	}
	if *forceError && status != 0 {
		os.Exit(1)
	}
}

func processStdinList(ctx context.Context, w *fastWriter) int {
	status := 0
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		path := strings.TrimRight(scanner.Text(), "\r\n")
		if rtn := processFile(ctx, path, w); rtn > status {
			status = rtn
		}
	}
	return status
}

// processPath processes a single positional argument: a file is read
// directly; a directory has its immediate FASTQ-suffixed files processed
// and, when recurseFlag is set, its subdirectories walked without limit
// (matching main.c's process_dir/process_file pair, simplified from the
// original's decrementing recurse-depth counter to a single on/off flag).
func processPath(ctx context.Context, path string, recurseFlag bool, w *fastWriter) int {
	info, err := os.Stat(path)
	if err != nil {
		log.Error.Printf("could not process %s: %v", path, err)
		return 1
	}
	if !info.IsDir() {
		return processFile(ctx, path, w)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Error.Printf("could not process directory %s: %v", path, err)
		return 1
	}
	status := 0
	for _, e := range entries {
		full := filepath.Join(path, e.Name())
		if e.IsDir() {
			if recurseFlag {
				if rtn := processPath(ctx, full, true, w); rtn > status {
					status = rtn
				}
			}
			continue
		}
		if hasFastqExt(e.Name()) {
			if *verbose {
				log.Printf("Processing %s", full)
			}
			if rtn := processFile(ctx, full, w); rtn > status {
				status = rtn
			}
		}
	}
	return status
}

// processFile streams fname, filtering and forwarding reads to w, and
// writes its per-file summary row, matching process_file.
func processFile(ctx context.Context, fname string, w *fastWriter) int {
	r, err := fastqio.Open(ctx, fname)
	if err != nil {
		log.Error.Printf("could not open %s: %v", fname, err)
		return 1
	}

	var failures [numFailureCodes]uint64
	n, totalBases, minLen, maxLen := 0, 0, -1, 0
	var qsum float64

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures[failStreamError]++
			break
		}
		if len(rec.Qual) == 0 {
			failures[failQualMissing]++
			continue
		}

		length := len(rec.Seq)
		if length > *maxLength {
			failures[failTooLong]++
			continue
		}
		if length < *minLength {
			failures[failTooShort]++
			continue
		}
		meanQ := fastqstats.MeanQualityASCII(rec.Qual)
		if meanQ < *minQscore {
			failures[failLowQuality]++
			continue
		}
		if *doDust {
			intervals := dust.Mask(rec.Seq, *dustT, *dustW)
			if dust.MaskedFraction(rec.Seq, intervals) > *maxDust {
				failures[failDustMasked]++
				continue
			}
		}

		failures[failRecordOK]++
		n++
		totalBases += length
		if minLen == -1 || length < minLen {
			minLen = length
		}
		if length > maxLen {
			maxLen = length
		}
		qsum += meanQ

		meta := barcode.ParseComment(rec.Comment)
		if err := w.writeRead(rec, meta, meanQ, fname); err != nil {
			log.Fatalf("writing read %s: %v", rec.Name, err)
		}
	}
	if err := r.Close(); err != nil {
		log.Error.Printf("closing %s: %v", fname, err)
	}
	if failures[failStreamError] == 0 {
		failures[failFileOK]++
	} else {
		log.Error.Printf("file '%s' is possibly truncated.", fname)
	}

	meanQ := 0.0
	if n > 0 {
		meanQ = qsum / float64(n)
	} else {
		minLen = 0
	}
	if err := w.writePerFileSummary(fname, n, totalBases, minLen, maxLen, meanQ, failures); err != nil {
		log.Fatalf("writing per-file summary for %s: %v", fname, err)
	}

	for i, c := range failures {
		w.failures[i] += c
	}

	if failures[failStreamError] > 0 {
		return 1
	}
	return 0
}
