package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/grailbio/base/log"
)

func runFetch(args []string) {
	fs := flag.NewFlagSet("bamindex fetch", flag.ExitOnError)
	chunk := fs.Int("chunk", 0, "Chunk index to retrieve")
	indexPath := fs.String("index", "", "Path to the .bci index file; defaults to <reads.bam>.bci")
	out := fs.String("out", "", "Output BAM path; empty writes BAM to stdout")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bamindex fetch [OPTIONS] <reads.bam>")
		fmt.Fprintln(os.Stderr, "Fetches one chunk of records from a BAM using its chunk index.")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	bamPath := fs.Arg(0)
	idxPath := indexFilename(bamPath, *indexPath)

	in, err := os.Open(bamPath)
	if err != nil {
		log.Fatalf("could not open %s: %v", bamPath, err)
	}
	defer in.Close()

	reader, err := bam.NewReader(in, 1)
	if err != nil {
		log.Fatalf("could not read BAM header from %s: %v", bamPath, err)
	}
	defer reader.Close()

	idxFile, err := os.Open(idxPath)
	if err != nil {
		log.Fatalf("cannot open index file %s: %v", idxPath, err)
	}
	idx, err := readChunkIndex(idxFile)
	if err != nil {
		log.Fatalf("could not read index file %s: %v", idxPath, err)
	}
	idxFile.Close()

	if *chunk < 0 || *chunk >= len(idx.Recs) {
		log.Fatalf("chunk %d is out of range (index has %d chunks)", *chunk, len(idx.Recs))
	}
	rec := idx.Recs[*chunk]
	off := fromVOffset(rec.VOffset)
	log.Printf("starting from offset %d:%d (%s)", off.File, off.Block, rec.QName)
	log.Printf("reading %d records from bam", idx.ChunkSize)

	if err := reader.Seek(off); err != nil {
		log.Fatalf("failed to seek to chunk start: %v", err)
	}

	outFile := os.Stdout
	if *out != "" {
		outFile, err = os.Create(*out)
		if err != nil {
			log.Fatalf("cannot create %s: %v", *out, err)
		}
		defer outFile.Close()
	}
	writer, err := bam.NewWriter(outFile, reader.Header(), 1)
	if err != nil {
		log.Fatalf("could not open output for writing: %v", err)
	}

	var written uint64
	for written < idx.ChunkSize {
		r, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("reading %s: %v", bamPath, err)
		}
		if err := writer.Write(r); err != nil {
			log.Fatalf("writing output record: %v", err)
		}
		written++
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("closing output: %v", err)
	}
	log.Printf("written %d records to output", written)
}
