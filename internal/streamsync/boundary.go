package streamsync

import (
	"strings"
	"unicode/utf8"
)

// boundaries are the preferred flush cut points for a partial flush, in
// preference order: sentence enders, newline, clause comma, plain space.
var boundaries = []string{". ", "! ", "? ", "\n", ", ", " "}

// splitPoint returns the byte offset at which to cut s for a partial
// flush: the end of the preferred boundary nearest the midpoint of s.
// When no boundary exists anywhere in s, the rune-safe midpoint is used.
// The result is always in (0, len(s)] for non-empty s, so a partial
// flush always makes progress.
func splitPoint(s string) int {
	if len(s) == 0 {
		return 0
	}

	mid := len(s) / 2
	for _, b := range boundaries {
		if idx := nearestIndex(s, b, mid); idx >= 0 {
			return idx + len(b)
		}
	}

	if mid == 0 {
		return len(s)
	}
	// Never split a multi-byte rune.
	cut := mid
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return cut
}

// nearestIndex returns the start offset of the occurrence of sep in s
// whose end is closest to target, or -1 if sep does not occur.
func nearestIndex(s, sep string, target int) int {
	best := -1
	bestDist := len(s) + 1

	from := 0
	for {
		idx := strings.Index(s[from:], sep)
		if idx < 0 {
			break
		}
		idx += from

		dist := idx + len(sep) - target
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best = idx
			bestDist = dist
		}
		from = idx + 1
	}
	return best
}
