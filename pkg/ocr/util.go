package ocr

import "strings"

// snippet returns a shortened single-line version of text for logging.
func snippet(s string, n int) string {
	s = flatten(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// flatten collapses newlines and tabs into single spaces.
func flatten(t string) string {
	return strings.Join(strings.Fields(t), " ")
}
