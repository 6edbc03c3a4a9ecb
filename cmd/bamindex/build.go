package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/grailbio/base/log"
)

func runBuild(args []string) {
	fs := flag.NewFlagSet("bamindex build", flag.ExitOnError)
	chunkSize := fs.Int("chunk_size", 1, "Number of records in a chunk")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bamindex build [OPTIONS] <reads.bam>")
		fmt.Fprintln(os.Stderr, "Builds a sparse index of file offsets for every Nth alignment record.")
		fmt.Fprintln(os.Stderr, "Intended for unaligned, unsorted BAMs.")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	bamPath := fs.Arg(0)
	if *chunkSize < 1 {
		log.Fatalf("-chunk_size must be at least 1")
	}

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

	outPath := indexFilename(bamPath, "")
	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("could not create %s: %v", outPath, err)
	}
	defer out.Close()

	idx := newChunkIndex(uint64(*chunkSize))
	if err := idx.writeHeader(out); err != nil {
		log.Fatalf("writing index header: %v", err)
	}

	i := 0
	for {
		voffset := toVOffset(reader.LastChunk().End)
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("reading %s: %v", bamPath, err)
		}
		if i%(*chunkSize) != 0 {
			i++
			continue
		}
		if i%100000 == 0 {
			log.Debug.Printf("record %d at offset %d", i, voffset)
		}
		if err := idx.appendRecord(out, voffset, rec.Name); err != nil {
			log.Fatalf("writing chunk record: %v", err)
		}
		i++
	}

	if err := idx.writeHeader(out); err != nil {
		log.Fatalf("rewriting index header: %v", err)
	}
	log.Printf("written %d/%d records to index %s", idx.NChunks, i, outPath)
}
