package histogram

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthHistogramGrowsAndCounts(t *testing.T) {
	var h Length
	h.Add(1)
	h.Add(4)
	h.Add(4)
	h.Add(998)

	var buf bytes.Buffer
	require.NoError(t, h.WriteTSV(&buf))
	assert.Contains(t, buf.String(), "1\t2\t1\n")
	assert.Contains(t, buf.String(), "4\t5\t2\n")
	assert.Contains(t, buf.String(), "998\t999\t1\n")
	assert.NotContains(t, buf.String(), "0\t1\t")
}

func TestQualityHistogramClampsAndBuckets(t *testing.T) {
	h := NewQuality(10)
	h.Add(5)
	h.Add(15)
	h.Add(1000) // clamped to 100

	var buf bytes.Buffer
	require.NoError(t, h.WriteTSV(&buf))
	assert.Contains(t, buf.String(), "0.00\t10.00\t1\n")
	assert.Contains(t, buf.String(), "10.00\t20.00\t1\n")
}
