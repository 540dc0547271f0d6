package patch

import (
	"strings"
	"unicode"
)

// lineEqualities orders the comparisons seekSequence is willing to use, from
// strict to forgiving. A whole pass over the haystack runs with one equality
// before the next is tried, so an exact match anywhere beats a sloppy match
// anywhere.
var lineEqualities = []func(a, b string) bool{
	func(a, b string) bool { return a == b },
	func(a, b string) bool { return trimEnd(a) == trimEnd(b) },
	func(a, b string) bool { return strings.TrimSpace(a) == strings.TrimSpace(b) },
}

// seekSequence returns the smallest index i >= from at which needle occurs in
// haystack, and whether it occurs at all. When endOfFile is set the only
// candidate is the index that makes the match finish on the last line, and it
// still must not lie before from.
//
// Lines are compared exactly first. If the needle cannot be found, the search
// reruns ignoring trailing whitespace, then ignoring surrounding whitespace,
// which lets patches survive the indentation drift models tend to produce.
func seekSequence(haystack, needle []string, from int, endOfFile bool) (int, bool) {
	if len(needle) == 0 {
		return from, true
	}
	for _, eq := range lineEqualities {
		if i, ok := seekWith(haystack, needle, from, endOfFile, eq); ok {
			return i, true
		}
	}
	return 0, false
}

func seekWith(haystack, needle []string, from int, endOfFile bool, eq func(a, b string) bool) (int, bool) {
	if endOfFile {
		i := len(haystack) - len(needle)
		if i < from || !matchAt(haystack, needle, i, eq) {
			return 0, false
		}
		return i, true
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		if matchAt(haystack, needle, i, eq) {
			return i, true
		}
	}
	return 0, false
}

func matchAt(haystack, needle []string, at int, eq func(a, b string) bool) bool {
	for j, want := range needle {
		if !eq(haystack[at+j], want) {
			return false
		}
	}
	return true
}

func trimEnd(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
