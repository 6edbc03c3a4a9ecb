package samutil

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
)

func TestRefSpan(t *testing.T) {
	cigar := sam.Cigar{
		sam.NewCigarOp(sam.CigarMatch, 10),
		sam.NewCigarOp(sam.CigarInsertion, 3),
		sam.NewCigarOp(sam.CigarDeletion, 2),
		sam.NewCigarOp(sam.CigarSoftClipped, 4),
	}
	assert.Equal(t, int32(12), RefSpan(cigar))
}

func TestWalkCigarSkipsQueryOnlyOps(t *testing.T) {
	cigar := sam.Cigar{
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
		sam.NewCigarOp(sam.CigarMatch, 3),
		sam.NewCigarOp(sam.CigarDeletion, 2),
		sam.NewCigarOp(sam.CigarMatch, 4),
		sam.NewCigarOp(sam.CigarInsertion, 1),
		sam.NewCigarOp(sam.CigarMatch, 1),
	}
	var runs [][2]int32
	WalkCigar(cigar, 100, func(start, length int32) {
		runs = append(runs, [2]int32{start, length})
	})
	assert.Equal(t, [][2]int32{{100, 3}, {105, 4}, {109, 1}}, runs)
}

func TestExcludedAppliesExcludeThenInclude(t *testing.T) {
	assert.True(t, Excluded(sam.Duplicate, DefaultExcludeFlags, 0))
	assert.False(t, Excluded(sam.Flags(0), DefaultExcludeFlags, 0))
	assert.True(t, Excluded(sam.Paired, 0, int(sam.Read1)))
	assert.False(t, Excluded(sam.Paired|sam.Read1, 0, int(sam.Read1)))
}

func TestDefaultExcludeFlagsIs1796(t *testing.T) {
	assert.Equal(t, 1796, DefaultExcludeFlags)
}
