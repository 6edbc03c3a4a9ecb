package interval

import "strconv"

// ToString renders r as "chr:start-end".  Used only for per-row region names
// when a RegionWriter isn't in whole-chromosome mode.
func ToString(r Region) string {
	return r.Chr + ":" + strconv.FormatInt(int64(r.Start), 10) + "-" + strconv.FormatInt(int64(r.End), 10)
}
