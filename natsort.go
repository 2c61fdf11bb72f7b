package epubtext

import (
	"slices"
	"strings"
)

// naturalLess reports whether a sorts before b in natural order.
//
// Both strings are split into alternating runs of digits and non-digits.
// Digit runs compare numerically, non-digit runs case-insensitively, and the
// run sequences compare lexicographically, so "chapter2" < "chapter10".
// At a position where one run is numeric and the other is not, the numeric
// run sorts first. Strings that compare equal this way fall back to a plain
// byte comparison so the order is total.
func naturalLess(a, b string) bool {
	if c := naturalCompare(a, b); c != 0 {
		return c < 0
	}
	return a < b
}

// naturalCompare returns -1, 0 or +1 comparing a and b run by run.
func naturalCompare(a, b string) int {
	ra, rb := splitRuns(a), splitRuns(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if c := compareRun(ra[i], rb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ra) < len(rb):
		return -1
	case len(ra) > len(rb):
		return 1
	}
	return 0
}

// splitRuns splits s into maximal runs of ASCII digits and non-digits.
func splitRuns(s string) []string {
	var runs []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[start]) {
			runs = append(runs, s[start:i])
			start = i
		}
	}
	return runs
}

func compareRun(x, y string) int {
	dx, dy := isDigit(x[0]), isDigit(y[0])
	switch {
	case dx && dy:
		return compareNumeric(x, y)
	case dx:
		return -1
	case dy:
		return 1
	}
	return strings.Compare(strings.ToLower(x), strings.ToLower(y))
}

// compareNumeric compares two digit runs by value without parsing them,
// so arbitrarily long runs cannot overflow.
func compareNumeric(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// SortNatural sorts paths in place in natural order: digit runs compare
// numerically and text runs case-insensitively, so "ch2" sorts before "ch10".
func SortNatural(paths []string) {
	slices.SortFunc(paths, func(a, b string) int {
		if naturalLess(a, b) {
			return -1
		}
		if naturalLess(b, a) {
			return 1
		}
		return 0
	})
}
