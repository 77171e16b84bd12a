package mptree

import "strings"

// Alphabet is the fixed symbol set for path segments: digits then uppercase
// latin letters, in byte order. Path comparison in the database must be
// byte-lexicographic for range predicates over these symbols to match the
// sibling order.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	// DefaultStepLen is the default number of characters per path segment.
	DefaultStepLen = 3

	// DefaultPathLen is the default capacity of the path column.
	DefaultPathLen = 255
)

// IncPath increments the trailing steplen-character window of path by one,
// treating it as a base-36 number. The carry never leaves the window: if the
// whole window already holds the maximum symbol, ErrPathOverflow is returned
// and the caller decides whether that means a full parent or a full tree.
//
// On success the result has the same length as the input:
//
//	IncPath("3GZU", 4) == "3GZV"
//	IncPath("GWZZZ", 5) == "GX000"
//	IncPath("ABZZ", 2) fails: the 2-character window "ZZ" is maximal.
func IncPath(path string, steplen int) (string, error) {
	cut := len(path) - steplen
	if cut < 0 {
		cut = 0
	}
	parent, seg := path[:cut], path[cut:]
	seg = strings.TrimRight(seg, Alphabet[len(Alphabet)-1:])
	if seg == "" {
		return "", ErrPathOverflow
	}
	zeros := steplen - len(seg)
	next := strings.IndexByte(Alphabet, seg[len(seg)-1]) + 1
	return parent + seg[:len(seg)-1] + string(Alphabet[next]) + strings.Repeat(string(Alphabet[0]), zeros), nil
}

// firstSegment returns the lowest segment value, alphabet[0] repeated
// steplen times. It is the path suffix of a parent's first child.
func firstSegment(steplen int) string {
	return strings.Repeat(string(Alphabet[0]), steplen)
}
