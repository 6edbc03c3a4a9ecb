package fastqstats

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRecord(t *testing.T, cigar sam.Cigar, nm int, flags sam.Flags, qual []byte) *sam.Record {
	t.Helper()
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	qlen := 0
	for _, op := range cigar {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarEqual, sam.CigarMismatch:
			qlen += op.Len()
		}
	}
	aux, err := sam.NewAux(sam.NewTag("NM"), nm)
	require.NoError(t, err)
	return &sam.Record{
		Name:      "r1",
		Ref:       ref,
		Pos:       100,
		Cigar:     cigar,
		Flags:     flags,
		Seq:       sam.Seq{Length: qlen},
		Qual:      qual,
		AuxFields: sam.AuxFields{aux},
	}
}

func TestComputeReadStatNoClipping(t *testing.T) {
	cigar := sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}
	rec := mkRecord(t, cigar, 1, 0, []byte{30, 30, 30, 30, 30, 30, 30, 30, 30, 30})
	rs, err := ComputeReadStat(rec, 1000)
	require.NoError(t, err)
	assert.Equal(t, 10, rs.Match)
	assert.Equal(t, 0, rs.Ins)
	assert.Equal(t, 0, rs.Del)
	assert.Equal(t, 1, rs.Sub)
	assert.Equal(t, 10, rs.Length)
	assert.Equal(t, 0, rs.QStart)
	assert.Equal(t, 10, rs.QEnd)
	assert.Equal(t, 100, rs.RStart)
	assert.Equal(t, 110, rs.REnd)
	assert.Equal(t, byte('+'), rs.Direction)
	assert.InDelta(t, 30.0, rs.MeanQuality, 1e-9)
}

func TestComputeReadStatSoftClips(t *testing.T) {
	cigar := sam.Cigar{
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
		sam.NewCigarOp(sam.CigarMatch, 6),
		sam.NewCigarOp(sam.CigarSoftClipped, 3),
	}
	rec := mkRecord(t, cigar, 0, sam.Reverse, nil)
	rs, err := ComputeReadStat(rec, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, rs.QStart)
	assert.Equal(t, 8, rs.QEnd)
	assert.Equal(t, 11, rs.ReadLength) // 2 + 6 + 3
	assert.Equal(t, byte('-'), rs.Direction)
	assert.Equal(t, 0.0, rs.MeanQuality) // no quality string
}

func TestComputeReadStatInsertDeleteSplitsSub(t *testing.T) {
	cigar := sam.Cigar{
		sam.NewCigarOp(sam.CigarMatch, 5),
		sam.NewCigarOp(sam.CigarInsertion, 2),
		sam.NewCigarOp(sam.CigarDeletion, 1),
		sam.NewCigarOp(sam.CigarMatch, 5),
	}
	rec := mkRecord(t, cigar, 5, 0, nil)
	rs, err := ComputeReadStat(rec, 1000)
	require.NoError(t, err)
	assert.Equal(t, 10, rs.Match)
	assert.Equal(t, 2, rs.Ins)
	assert.Equal(t, 1, rs.Del)
	assert.Equal(t, 2, rs.Sub) // nm(5) - ins(2) - del(1)
	assert.Equal(t, 13, rs.Length)
	assert.Equal(t, 11, rs.AlignedRefLen) // 5 + 1(del) + 5
}

func TestComputeReadStatMissingNMTag(t *testing.T) {
	cigar := sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	rec := &sam.Record{Name: "r1", Ref: ref, Pos: 0, Cigar: cigar, Seq: sam.Seq{Length: 10}}
	_, err = ComputeReadStat(rec, 1000)
	require.Error(t, err)
}

func TestMeanQualityASCIIUniform(t *testing.T) {
	qual := []byte{'I', 'I', 'I', 'I'} // 'I'-33 == 40
	assert.InDelta(t, 40.0, MeanQualityASCII(qual), 1e-9)
}

func TestMeanQualityASCIILowerThanNaiveAverage(t *testing.T) {
	// one very low-quality base should dominate the error-probability
	// average far more than it would a naive arithmetic mean of scores.
	qual := []byte{'I', 'I', 'I', '#'} // scores 40,40,40,2
	naiveMean := (40.0 + 40.0 + 40.0 + 2.0) / 4.0
	assert.Less(t, MeanQualityASCII(qual), naiveMean)
}

func TestFlagStatsAdd(t *testing.T) {
	var fs FlagStats
	fs.Add(0)
	fs.Add(sam.Secondary)
	fs.Add(sam.Supplementary)
	fs.Add(sam.Unmapped)
	fs.Add(sam.QCFail)
	fs.Add(sam.Duplicate)
	assert.Equal(t, int64(6), fs.Total)
	assert.Equal(t, int64(4), fs.Primary) // plain, unmapped, qcfail, duplicate all default to primary
	assert.Equal(t, int64(1), fs.Secondary)
	assert.Equal(t, int64(1), fs.Supplementary)
	assert.Equal(t, int64(1), fs.Unmapped)
	assert.Equal(t, int64(1), fs.QCFail)
	assert.Equal(t, int64(1), fs.Duplicate)
}
