package utils

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	// Devanagari text must be cut on rune boundaries.
	if got := Truncate("गणित विज्ञान", 4); got != "गणित..." {
		t.Errorf("got %q", got)
	}
}

func TestSnippet(t *testing.T) {
	text := strings.Repeat("a", 40) + " photosynthesis " + strings.Repeat("b", 40)

	got := Snippet(text, "PHOTOSYNTHESIS", 30)
	if !strings.Contains(got, "photosynthesis") {
		t.Errorf("snippet should show the term: %q", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("both ends should be marked: %q", got)
	}

	if got := Snippet("short text", "text", 30); got != "short text" {
		t.Errorf("short text unchanged, got %q", got)
	}
	if got := Snippet(text, "", 10); got != strings.Repeat("a", 10)+"..." {
		t.Errorf("no term should start at the beginning, got %q", got)
	}
}
