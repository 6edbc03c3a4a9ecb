package interval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeader struct {
	names []string
	lens  []PosType
}

func (h *fakeHeader) NTargets() int            { return len(h.names) }
func (h *fakeHeader) RefName(tid int) string   { return h.names[tid] }
func (h *fakeHeader) RefLen(tid int) PosType   { return h.lens[tid] }

func twoChromHeader() *fakeHeader {
	return &fakeHeader{names: []string{"chr1", "chr2"}, lens: []PosType{10, 10}}
}

func TestSynthesizeWholeChrom(t *testing.T) {
	hdr := twoChromHeader()
	br := Synthesize(hdr, 0)
	require.Len(t, br.Regions, 2)
	assert.Equal(t, Region{Chr: "chr1", Tid: 0, Start: 0, End: 10}, br.Regions[0])
	assert.Equal(t, Region{Chr: "chr2", Tid: 1, Start: 0, End: 10}, br.Regions[1])
}

func TestSynthesizeTiling(t *testing.T) {
	hdr := &fakeHeader{names: []string{"chr1"}, lens: []PosType{10}}
	br := Synthesize(hdr, 4)
	require.Len(t, br.Regions, 3)
	assert.Equal(t, Region{Chr: "chr1", Tid: 0, Start: 0, End: 4}, br.Regions[0])
	assert.Equal(t, Region{Chr: "chr1", Tid: 0, Start: 4, End: 8}, br.Regions[1])
	assert.Equal(t, Region{Chr: "chr1", Tid: 0, Start: 8, End: 10}, br.Regions[2])
}

func TestLoadSkipsAndClips(t *testing.T) {
	hdr := twoChromHeader()
	dir := t.TempDir()
	bed := filepath.Join(dir, "regions.bed")
	content := "chr1\t0\t5\textra\tcolumns\n" +
		"chr1\t3\tnotanumber\n" +
		"chr3\t0\t5\n" +
		"chr2\t8\t20\n" +
		"chr2\t20\t25\n"
	require.NoError(t, os.WriteFile(bed, []byte(content), 0o644))

	br, err := Load(context.Background(), bed, hdr)
	require.NoError(t, err)
	require.Len(t, br.Regions, 2)
	assert.Equal(t, Region{Chr: "chr1", Tid: 0, Start: 0, End: 5}, br.Regions[0])
	assert.Equal(t, Region{Chr: "chr2", Tid: 1, Start: 8, End: 10}, br.Regions[1])
}

func TestLoadSortsByHeaderTidOrder(t *testing.T) {
	hdr := twoChromHeader()
	dir := t.TempDir()
	bed := filepath.Join(dir, "regions.bed")
	content := "chr2\t0\t5\n" + "chr1\t0\t5\n" + "chr1\t2\t8\n"
	require.NoError(t, os.WriteFile(bed, []byte(content), 0o644))

	br, err := Load(context.Background(), bed, hdr)
	require.NoError(t, err)
	require.Len(t, br.Regions, 3)
	assert.Equal(t, 0, br.Regions[0].Tid)
	assert.Equal(t, PosType(0), br.Regions[0].Start)
	assert.Equal(t, 0, br.Regions[1].Tid)
	assert.Equal(t, PosType(2), br.Regions[1].Start)
	assert.Equal(t, 1, br.Regions[2].Tid)
}

func TestToString(t *testing.T) {
	assert.Equal(t, "chr1:5-15", ToString(Region{Chr: "chr1", Start: 5, End: 15}))
}
