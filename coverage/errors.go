package coverage

import "github.com/grailbio/base/errors"

// UnsortedInput is returned by NewCovWriter when the input header's sort
// order is not "coordinate". Coverage accumulation is a single forward pass
// over each contig's alignments and cannot tolerate out-of-order input.
func UnsortedInput(sortOrder string) error {
	return errors.E(errors.Precondition, "coverage: BAM sort order is", sortOrder, "must be coordinate")
}

// OutputExists is returned when a stratum's output directory already exists,
// matching the original tool's refusal to overwrite prior runs.
func OutputExists(dir string) error {
	return errors.E(errors.Exists, "coverage: output directory already exists:", dir)
}

// ConfigMismatch is returned when caller-supplied options conflict, e.g. a
// BED stratum name collides with "global" or a segment-length stratum name.
func ConfigMismatch(reason string) error {
	return errors.E(errors.Invalid, "coverage: config mismatch:", reason)
}

// BadRegion is returned for a region that cannot be attributed to any
// reference in the header passed to NewCovWriter.
func BadRegion(reason string) error {
	return errors.E(errors.Invalid, "coverage: bad region:", reason)
}
