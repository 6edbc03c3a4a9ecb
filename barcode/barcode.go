// Package barcode parses the "key=value key=value ..." comment metadata
// MinKNOW/Guppy/Dorado attach to FASTQ headers (run ID, flow cell ID,
// barcode) and derives a demultiplexing key from it.
package barcode

import (
	"strconv"
	"strings"
)

// Meta is the subset of comment tags fastcat's demultiplexer and per-read
// report care about. Channel/ReadNumber/StartTime/SampleID come from the
// same MinKNOW comment grammar as runid/flow_cell_id/barcode (ch=,
// read=, start_time=, sampleid=) and are parsed identically.
type Meta struct {
	RunID      string
	FlowCellID string
	SampleID   string
	Barcode    string // e.g. "barcode01", "" if absent/unclassified
	IBarcode   int    // numeric suffix of Barcode, 0 if absent
	Channel    int
	ReadNumber int
	StartTime  string

	tokens []kv // raw parsed tokens, in order, for TagsString
}

type kv struct{ key, value string }

// ParseComment extracts key=value pairs from a FASTQ comment string,
// tokenizing the same way the original tool's strtok(comment, " =")
// does: split on spaces and '=' alike, so "runid=abc barcode=barcode01"
// and "runid = abc barcode = barcode01" parse identically.
func ParseComment(comment string) Meta {
	var meta Meta
	tokens := strings.FieldsFunc(comment, func(r rune) bool { return r == ' ' || r == '=' })
	for i := 0; i+1 < len(tokens); i += 2 {
		key, value := tokens[i], tokens[i+1]
		meta.tokens = append(meta.tokens, kv{key, value})
		switch key {
		case "runid":
			meta.RunID = value
		case "flow_cell_id":
			meta.FlowCellID = value
		case "sampleid":
			meta.SampleID = value
		case "barcode":
			meta.Barcode = value
			if len(value) > 7 {
				if n, err := strconv.Atoi(value[7:]); err == nil {
					meta.IBarcode = n
				}
			}
		case "ch":
			if n, err := strconv.Atoi(value); err == nil {
				meta.Channel = n
			}
		case "read":
			if n, err := strconv.Atoi(value); err == nil {
				meta.ReadNumber = n
			}
		case "start_time":
			meta.StartTime = value
		}
	}
	return meta
}

// tagCode maps a comment key to the two-letter SAM-aux-style code used by
// TagsString. Keys with no entry fall back to their own first two
// characters, uppercased.
var tagCode = map[string]string{
	"runid":        "RU",
	"flow_cell_id": "FL",
	"sampleid":     "SA",
	"barcode":      "BC",
	"ch":           "CH",
	"read":         "RN",
	"start_time":   "ST",
}

// Tags returns the parsed comment tokens as (code, value) pairs using the
// same tagCode mapping as TagsString, for callers building SAM aux fields
// directly (fastcat's -bam-out) rather than a flat string.
func (m Meta) Tags() [][2]string {
	out := make([][2]string, 0, len(m.tokens))
	for _, t := range m.tokens {
		code, ok := tagCode[t.key]
		if !ok {
			code = strings.ToUpper(t.key)
			if len(code) > 2 {
				code = code[:2]
			}
		}
		out = append(out, [2]string{code, t.value})
	}
	return out
}

// TagsString renders the parsed comment tokens as a space-separated run
// of "XX:Z:value" SAM-aux-style fields, for fastcat's --reheader mode:
// it replaces a FASTQ comment with something a downstream aligner can
// carry through into BAM tags, the same purpose the original's
// tags_str served.
func (m Meta) TagsString() string {
	fields := make([]string, 0, len(m.tokens))
	for _, t := range m.tokens {
		code, ok := tagCode[t.key]
		if !ok {
			code = strings.ToUpper(t.key)
			if len(code) > 2 {
				code = code[:2]
			}
		}
		fields = append(fields, code+":Z:"+t.value)
	}
	return strings.Join(fields, " ")
}

// unclassified is the bucket name for reads with no barcode tag, matching
// the original demultiplexer's directory-naming convention.
const unclassified = "unclassified"

// GroupName is the demultiplexed output bucket for meta: its barcode, or
// "unclassified" if none was present.
func (m Meta) GroupName() string {
	if m.Barcode == "" {
		return unclassified
	}
	return m.Barcode
}
