package main

import (
	"testing"
)

func TestHasFastqExt(t *testing.T) {
	for _, name := range []string{"a.fastq", "a.fq", "a.fastq.gz", "a.fq.gz"} {
		if !hasFastqExt(name) {
			t.Errorf("expected %q to match a FASTQ extension", name)
		}
	}
	if hasFastqExt("a.bam") {
		t.Errorf("did not expect a.bam to match a FASTQ extension")
	}
}

func TestGroupDir(t *testing.T) {
	if got := groupDir(0); got != "unclassified" {
		t.Errorf("groupDir(0) = %q, want unclassified", got)
	}
	if got := groupDir(7); got != "barcode0007" {
		t.Errorf("groupDir(7) = %q, want barcode0007", got)
	}
}

func TestAsciiToPhred(t *testing.T) {
	got := asciiToPhred([]byte("III#"))
	want := []byte{40, 40, 40, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("asciiToPhred()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
