// Package utils provides shared text and logging helpers.
package utils

import "strings"

// Truncate returns s cut to maxLen runes with "..." appended when it was longer.
// If maxLen is 0 or negative, s is returned unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Snippet returns a window of at most maxLen runes from text, positioned so the
// first case-insensitive occurrence of term is visible. Cut ends are marked "...".
func Snippet(text, term string, maxLen int) string {
	runes := []rune(text)
	if maxLen <= 0 || len(runes) <= maxLen {
		return text
	}
	start := 0
	if term = strings.TrimSpace(term); term != "" {
		if i := indexFold(runes, []rune(strings.ToLower(term))); i > maxLen/2 {
			start = i - maxLen/4
		}
	}
	if start+maxLen > len(runes) {
		start = len(runes) - maxLen
	}
	out := string(runes[start : start+maxLen])
	if start > 0 {
		out = "..." + out
	}
	if start+maxLen < len(runes) {
		out += "..."
	}
	return out
}

// indexFold returns the rune index of the first occurrence of lowered term in s,
// comparing case-insensitively, or -1.
func indexFold(s, term []rune) int {
	lower := []rune(strings.ToLower(string(s)))
	if len(lower) != len(s) {
		// Lower-casing changed the rune count; fall back to the start.
		return -1
	}
	for i := 0; i+len(term) <= len(lower); i++ {
		if string(lower[i:i+len(term)]) == string(term) {
			return i
		}
	}
	return -1
}
