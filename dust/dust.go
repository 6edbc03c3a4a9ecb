// Package dust implements the symmetric DUST low-complexity masking
// algorithm (Morgulis et al. 2006), the same algorithm fastlint's upstream
// tool exposes via sdust() for flagging reads with excessive homopolymer/
// short-repeat content.
package dust

// Interval is a half-open, zero-based masked region [Start, End).
type Interval struct {
	Start, End int
}

// Defaults match the original tool's -t/-w flags.
const (
	DefaultThreshold = 20
	DefaultWindow    = 64
)

var baseCode = [256]int8{}

func init() {
	for i := range baseCode {
		baseCode[i] = -1
	}
	baseCode['A'], baseCode['a'] = 0, 0
	baseCode['C'], baseCode['c'] = 1, 1
	baseCode['G'], baseCode['g'] = 2, 2
	baseCode['T'], baseCode['t'] = 3, 3
}

// Mask returns the low-complexity intervals in seq, scanning with
// sliding windows of at most `window` bases and flagging any window
// whose triplet-repetition score exceeds threshold (the DUST score is
// 10*sum(c*(c-1)/2) over consecutive overlapping triplet windows,
// divided by one less than the triplet count; this follows the
// published symmetric DUST scoring, though it does not reproduce
// minimap2 sdust.c's perfect-interval trimming byte for byte). Windows
// that trigger are merged where they overlap or abut.
func Mask(seq []byte, threshold, window int) []Interval {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 2 {
		window = DefaultWindow
	}

	codes := make([]int8, len(seq))
	for i, b := range seq {
		codes[i] = baseCode[b]
	}

	var triggered []Interval
	for start := 0; start < len(seq); start++ {
		end := start + window
		if end > len(seq) {
			end = len(seq)
		}
		if end-start < 3 {
			break
		}
		if scoreExceeds(codes[start:end], threshold) {
			triggered = append(triggered, Interval{start, end})
		}
	}
	return merge(triggered)
}

// scoreExceeds reports whether the triplet-repetition DUST score of
// window exceeds threshold. Triplets that span a non-ACGT base are not
// counted, since the triplet code is undefined there; the rest of the
// window is still scored.
func scoreExceeds(window []int8, threshold int) bool {
	var counts [64]int
	triplets := 0
	code := 0
	have := 0
	for _, c := range window {
		if c < 0 {
			code, have = 0, 0
			continue
		}
		code = ((code << 2) | int(c)) & 0x3f
		have++
		if have >= 3 {
			counts[code]++
			triplets++
		}
	}
	if triplets <= 1 {
		return false
	}
	sum := 0
	for _, c := range counts {
		sum += c * (c - 1) / 2
	}
	// 10*sum/(triplets-1) compared against threshold, avoiding floats.
	return 10*sum > threshold*(triplets-1)
}

func merge(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	out := []Interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// MaskedFraction returns the fraction of seq covered by the masked
// intervals, matching fastlint's masked_bases/read_length computation.
func MaskedFraction(seq []byte, intervals []Interval) float64 {
	if len(seq) == 0 {
		return 0
	}
	masked := 0
	for _, iv := range intervals {
		masked += iv.End - iv.Start
	}
	return float64(masked) / float64(len(seq))
}
