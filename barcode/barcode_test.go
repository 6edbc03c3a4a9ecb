package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommentExtractsTags(t *testing.T) {
	m := ParseComment("runid=abc123 flow_cell_id=FAW1234 barcode=barcode07")
	assert.Equal(t, "abc123", m.RunID)
	assert.Equal(t, "FAW1234", m.FlowCellID)
	assert.Equal(t, "barcode07", m.Barcode)
	assert.Equal(t, 7, m.IBarcode)
}

func TestParseCommentHandlesEqualsWithSpaces(t *testing.T) {
	m := ParseComment("runid = abc barcode = barcode01")
	assert.Equal(t, "abc", m.RunID)
	assert.Equal(t, "barcode01", m.Barcode)
	assert.Equal(t, 1, m.IBarcode)
}

func TestGroupNameUnclassifiedWithoutBarcode(t *testing.T) {
	m := ParseComment("runid=abc")
	assert.Equal(t, "unclassified", m.GroupName())
}

func TestGroupNameUsesBarcode(t *testing.T) {
	m := ParseComment("barcode=barcode12")
	assert.Equal(t, "barcode12", m.GroupName())
}

func TestParseCommentExtractsChannelReadNumberStartTime(t *testing.T) {
	m := ParseComment("runid=abc ch=53 read=69 start_time=2019-05-22T15:35:39Z sampleid=s1")
	assert.Equal(t, 53, m.Channel)
	assert.Equal(t, 69, m.ReadNumber)
	assert.Equal(t, "2019-05-22T15:35:39Z", m.StartTime)
	assert.Equal(t, "s1", m.SampleID)
}

func TestTagsStringUsesKnownCodes(t *testing.T) {
	m := ParseComment("runid=abc barcode=barcode01")
	assert.Equal(t, "RU:Z:abc BC:Z:barcode01", m.TagsString())
}
