package dust

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskFlagsHomopolymerRun(t *testing.T) {
	seq := bytes.Repeat([]byte("A"), 80)
	intervals := Mask(seq, DefaultThreshold, DefaultWindow)
	assert.NotEmpty(t, intervals)
	frac := MaskedFraction(seq, intervals)
	assert.Greater(t, frac, 0.5)
}

func TestMaskLeavesRandomSequenceAlone(t *testing.T) {
	seq := []byte("GGCTAAAGAAACGGTAAGCGAGTTCCTCCTACATTCACAAAACTCATCCCGGAGCGGCATCGTCCAACGATG")
	intervals := Mask(seq, DefaultThreshold, DefaultWindow)
	frac := MaskedFraction(seq, intervals)
	assert.Less(t, frac, 0.3)
}

func TestMaskMergesOverlappingWindows(t *testing.T) {
	seq := bytes.Repeat([]byte("AT"), 60)
	intervals := Mask(seq, DefaultThreshold, DefaultWindow)
	for i := 1; i < len(intervals); i++ {
		assert.Greater(t, intervals[i].Start, intervals[i-1].End)
	}
}

func TestMaskedFractionEmptySequence(t *testing.T) {
	assert.Equal(t, 0.0, MaskedFraction(nil, nil))
}
