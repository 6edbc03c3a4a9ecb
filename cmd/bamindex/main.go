/*
bamindex builds and serves a lightweight chunk index over an unsorted BAM,
independent of BAI/CSI, so that a consumer can fetch an arbitrary batch of
records without a coordinate sort. It has three subcommands: build, fetch,
and dump.
*/
package main

import (
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
)

var subcommands = map[string]struct {
	run   func([]string)
	descr string
}{
	"build": {runBuild, "Build a BAM chunk index."},
	"fetch": {runFetch, "Fetch records from a BAM using an index."},
	"dump":  {runDump, "Dump an index to text."},
}

func printCommands() {
	fmt.Fprintln(os.Stderr, "Usage: bamindex <command> [OPTIONS]")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range []string{"build", "fetch", "dump"} {
		fmt.Fprintf(os.Stderr, "  %-8s%s\n", name, subcommands[name].descr)
	}
}

func main() {
	if len(os.Args) < 2 {
		printCommands()
		os.Exit(0)
	}
	cmd, ok := subcommands[os.Args[1]]
	if !ok {
		printCommands()
		fmt.Fprintf(os.Stderr, "Unrecognised subcommand %q\n", os.Args[1])
		os.Exit(1)
	}

	shutdown := grail.Init()
	defer shutdown()
	cmd.run(os.Args[2:])
}

// indexFilename returns explicitIndex if non-empty, else bamPath with a
// ".bci" suffix appended, matching generate_index_filename.
func indexFilename(bamPath, explicitIndex string) string {
	if explicitIndex != "" {
		return explicitIndex
	}
	return bamPath + ".bci"
}
