package samutil

import "github.com/biogo/hts/sam"

// DefaultExcludeFlags is mosdepth's default exclude mask: unmapped (4),
// not primary / secondary (256), QC-fail (512), duplicate (1024).
// Numerically 1796, matching the original C implementation's hardcoded
// default exactly (supplementary is deliberately not folded in here, even
// though it is excludable via -F; see original_source/src/bamcoverage/coverage.c).
const DefaultExcludeFlags = int(sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate)

// Excluded reports whether a record with the given flags should be dropped,
// applying the exclude mask first and then the include mask, matching
// mosdepth's (and this spec's) "exclude THEN include" precedence.
func Excluded(flags sam.Flags, excludeFlags, includeFlags int) bool {
	if int(flags)&excludeFlags != 0 {
		return true
	}
	if includeFlags != 0 && int(flags)&includeFlags == 0 {
		return true
	}
	return false
}
