package interval

// Synthesize builds a BedRegions directly from a reference header instead of
// a BED file.  With segmentLength == 0, it produces one whole-chromosome
// region per reference.  Otherwise it tiles each reference into consecutive
// half-open segments of segmentLength, clamping the last tile of each
// reference to the reference length.
func Synthesize(hdr Header, segmentLength PosType) *BedRegions {
	out := &BedRegions{}
	for tid := 0; tid < hdr.NTargets(); tid++ {
		length := hdr.RefLen(tid)
		name := hdr.RefName(tid)
		span := segmentLength
		if span == 0 {
			span = length
		}
		for start := PosType(0); start < length; start += span {
			end := start + span
			if end > length {
				end = length
			}
			out.Regions = append(out.Regions, Region{
				Chr:   name,
				Tid:   tid,
				Start: start,
				End:   end,
			})
		}
	}
	return out
}
