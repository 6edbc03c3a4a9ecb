package coverage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader(t *testing.T, refs ...struct {
	name string
	len  int
}) *sam.Header {
	t.Helper()
	var sr []*sam.Reference
	for _, r := range refs {
		ref, err := sam.NewReference(r.name, "", "", r.len, nil, nil)
		require.NoError(t, err)
		sr = append(sr, ref)
	}
	hdr, err := sam.NewHeader(nil, sr)
	require.NoError(t, err)
	hdr.SortOrder = sam.Coordinate
	return hdr
}

func mkRecord(t *testing.T, hdr *sam.Header, refName string, pos int, cigar sam.Cigar, flags sam.Flags) *sam.Record {
	t.Helper()
	var ref *sam.Reference
	for _, r := range hdr.Refs() {
		if r.Name() == refName {
			ref = r
		}
	}
	require.NotNil(t, ref)
	return &sam.Record{Name: "r", Ref: ref, Pos: pos, MapQ: 60, Cigar: cigar, Flags: flags}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestNewCovWriterRejectsUnsorted(t *testing.T) {
	hdr := testHeader(t, struct {
		name string
		len  int
	}{"chr1", 100})
	hdr.SortOrder = sam.Unsorted
	_, err := NewCovWriter(context.Background(), hdr, Opts{OutDir: filepath.Join(t.TempDir(), "out")})
	require.Error(t, err)
}

func TestNewCovWriterRejectsExistingOutDir(t *testing.T) {
	hdr := testHeader(t, struct {
		name string
		len  int
	}{"chr1", 100})
	dir := t.TempDir()
	_, err := NewCovWriter(context.Background(), hdr, Opts{OutDir: dir})
	require.Error(t, err)
}

func TestCovWriterSingleReadSummary(t *testing.T) {
	hdr := testHeader(t, struct {
		name string
		len  int
	}{"chr1", 20})
	out := filepath.Join(t.TempDir(), "out")
	cw, err := NewCovWriter(context.Background(), hdr, Opts{OutDir: out, PerBase: true, UseCigar: true, ExcludeFlags: -1, IncludeFlags: -1})
	require.NoError(t, err)

	rec := mkRecord(t, hdr, "chr1", 5, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}, 0)
	require.NoError(t, cw.Process(rec))
	require.NoError(t, cw.Close())

	summary := readFile(t, filepath.Join(out, "global.summary.txt"))
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")
	require.Len(t, lines, 3) // header + single whole-chrom row + trailer
	assert.Equal(t, "chrom\tstart\tend\tlength\tbases\tmean\tmin\tmax\t1x\t5x\t10x\t20x\t30x\t40x", lines[0])
	fields := strings.Split(lines[1], "\t")
	assert.Equal(t, "chr1", fields[0])
	assert.Equal(t, "20", fields[3]) // length/positions
	assert.Equal(t, "10", fields[4]) // total bases covered

	bg := readFile(t, filepath.Join(out, "global.bed.gz"))
	assert.NotEmpty(t, bg) // gzip-compressed bedgraph, non-empty
}

func TestCovWriterExcludesDuplicates(t *testing.T) {
	hdr := testHeader(t, struct {
		name string
		len  int
	}{"chr1", 20})
	out := filepath.Join(t.TempDir(), "out")
	cw, err := NewCovWriter(context.Background(), hdr, Opts{OutDir: out, ExcludeFlags: -1, IncludeFlags: -1})
	require.NoError(t, err)

	rec := mkRecord(t, hdr, "chr1", 5, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}, sam.Duplicate)
	require.NoError(t, cw.Process(rec))
	require.NoError(t, cw.Close())

	summary := readFile(t, filepath.Join(out, "global.summary.txt"))
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")
	fields := strings.Split(lines[1], "\t")
	assert.Equal(t, "0", fields[4]) // no bases covered: the duplicate read was excluded
}

func TestCovWriterMultiContigFillsSkipped(t *testing.T) {
	hdr := testHeader(t, struct {
		name string
		len  int
	}{"chr1", 10}, struct {
		name string
		len  int
	}{"chr2", 10}, struct {
		name string
		len  int
	}{"chr3", 10})
	out := filepath.Join(t.TempDir(), "out")
	cw, err := NewCovWriter(context.Background(), hdr, Opts{OutDir: out, UseCigar: true, ExcludeFlags: -1, IncludeFlags: -1})
	require.NoError(t, err)

	// chr2 never gets an alignment; its region must still appear with zero
	// coverage once chr3 is flushed (or on Close if chr3 has no reads either).
	rec := mkRecord(t, hdr, "chr1", 0, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}, 0)
	require.NoError(t, cw.Process(rec))
	require.NoError(t, cw.Close())

	summary := readFile(t, filepath.Join(out, "global.summary.txt"))
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")
	// header + chr1 + chr2(skipped) + chr3(skipped) + trailer
	require.Len(t, lines, 5)
	assert.Equal(t, "chr1", strings.Split(lines[1], "\t")[0])
	assert.Equal(t, "chr2", strings.Split(lines[2], "\t")[0])
	assert.Equal(t, "chr3", strings.Split(lines[3], "\t")[0])
	assert.Equal(t, "global", strings.Split(lines[4], "\t")[0])
}

func TestCovWriterCigarSkipsInsertions(t *testing.T) {
	hdr := testHeader(t, struct {
		name string
		len  int
	}{"chr1", 20})
	out := filepath.Join(t.TempDir(), "out")
	cw, err := NewCovWriter(context.Background(), hdr, Opts{OutDir: out, UseCigar: true, ExcludeFlags: -1, IncludeFlags: -1})
	require.NoError(t, err)

	// 3M 2I 3M: 6 bases of reference coverage, not 8.
	cigar := sam.Cigar{
		sam.NewCigarOp(sam.CigarMatch, 3),
		sam.NewCigarOp(sam.CigarInsertion, 2),
		sam.NewCigarOp(sam.CigarMatch, 3),
	}
	rec := mkRecord(t, hdr, "chr1", 0, cigar, 0)
	require.NoError(t, cw.Process(rec))
	require.NoError(t, cw.Close())

	summary := readFile(t, filepath.Join(out, "global.summary.txt"))
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")
	fields := strings.Split(lines[1], "\t")
	assert.Equal(t, "6", fields[4])
}

func TestSegmentStrata(t *testing.T) {
	hdr := testHeader(t, struct {
		name string
		len  int
	}{"chr1", 10})
	out := filepath.Join(t.TempDir(), "out")
	cw, err := NewCovWriter(context.Background(), hdr, Opts{OutDir: out, Segments: []int32{4}, UseCigar: true, ExcludeFlags: -1, IncludeFlags: -1})
	require.NoError(t, err)
	rec := mkRecord(t, hdr, "chr1", 0, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}, 0)
	require.NoError(t, cw.Process(rec))
	require.NoError(t, cw.Close())

	summary := readFile(t, filepath.Join(out, "segments_4", "segments_4.summary.txt"))
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")
	// header + 3 tiles (0-4,4-8,8-10) + trailer
	require.Len(t, lines, 5)
}
