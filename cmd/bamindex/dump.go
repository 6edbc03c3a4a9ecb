package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/log"
)

func runDump(args []string) {
	fs := flag.NewFlagSet("bamindex dump", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bamindex dump <reads.bam.bci>")
		fmt.Fprintln(os.Stderr, "Dumps the contents of a chunk index to stdout for human inspection.")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	indexPath := fs.Arg(0)

	f, err := os.Open(indexPath)
	if err != nil {
		log.Fatalf("cannot open index file %s: %v", indexPath, err)
	}
	defer f.Close()

	idx, err := readChunkIndex(f)
	if err != nil {
		log.Fatalf("reading %s: %v", indexPath, err)
	}
	log.Debug.Printf("reading %d records from index", idx.NChunks)

	for i, rec := range idx.Recs {
		off := fromVOffset(rec.VOffset)
		fmt.Printf("%d\t%d:%d\t%s\n", i, off.File, off.Block, rec.QName)
	}
}
