package fastqio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRoundTrip(t *testing.T) {
	in := "@read1 runid=abc barcode=1\nACGT\n+\nIIII\n@read2\nTTTT\n+\nJJJJ\n"
	r := NewReader(strings.NewReader(in), nil)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "read1", rec.Name)
	assert.Equal(t, "runid=abc barcode=1", rec.Comment)
	assert.Equal(t, []byte("ACGT"), rec.Seq)
	assert.Equal(t, []byte("IIII"), rec.Qual)

	rec2, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "read2", rec2.Name)
	assert.Equal(t, "", rec2.Comment)

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestWriteRecordSeparator(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, Record{Name: "r1", Comment: "a b", Seq: []byte("AC"), Qual: []byte("II")}))
	assert.Equal(t, "@r1 a b\nAC\n+\nII\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteRecord(&buf, Record{Name: "r1", Comment: "a\tb", Seq: []byte("AC"), Qual: []byte("II")}))
	assert.Equal(t, "@r1\ta\tb\nAC\n+\nII\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteRecord(&buf, Record{Name: "r1", Seq: []byte("AC"), Qual: []byte("II")}))
	assert.Equal(t, "@r1\nAC\n+\nII\n", buf.String())
}

func TestReadTruncatedRecord(t *testing.T) {
	r := NewReader(strings.NewReader("@r1\nACGT\n"), nil)
	_, err := r.Read()
	require.Error(t, err)
}
