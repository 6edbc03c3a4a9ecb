package main

import (
	"os"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVOffsetRoundTrip(t *testing.T) {
	off := bgzf.Offset{File: 123456, Block: 789}
	assert.Equal(t, off, fromVOffset(toVOffset(off)))
}

func TestChunkIndexWriteReadRoundTrip(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "bamindex-*.bci")
	require.NoError(t, err)
	defer f.Close()

	idx := newChunkIndex(2)
	require.NoError(t, idx.writeHeader(f))
	require.NoError(t, idx.appendRecord(f, toVOffset(bgzf.Offset{File: 0, Block: 0}), "read-a"))
	require.NoError(t, idx.appendRecord(f, toVOffset(bgzf.Offset{File: 4096, Block: 12}), "read-b"))
	require.NoError(t, idx.writeHeader(f))

	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	got, err := readChunkIndex(f)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, uint64(2), got.ChunkSize)
	require.Len(t, got.Recs, 2)
	assert.Equal(t, "read-a", got.Recs[0].QName)
	assert.Equal(t, "read-b", got.Recs[1].QName)
	assert.Equal(t, bgzf.Offset{File: 4096, Block: 12}, fromVOffset(got.Recs[1].VOffset))
}

func TestIndexFilename(t *testing.T) {
	assert.Equal(t, "reads.bam.bci", indexFilename("reads.bam", ""))
	assert.Equal(t, "custom.idx", indexFilename("reads.bam", "custom.idx"))
}
