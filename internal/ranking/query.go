// Package ranking scores content items against a text query and decides whether
// an item passes the active search filters.
package ranking

import (
	"strings"

	"github.com/nepaledu/edusearch/internal/models"
)

// Query is a normalized search query.
type Query struct {
	// Original is the query as entered.
	Original string
	// Text is the trimmed, lower-cased query.
	Text string
	// Tokens are the whitespace-separated words of Text. Repeats are kept.
	Tokens []string
}

// ParseQuery normalizes a raw query string.
func ParseQuery(raw string) Query {
	text := strings.ToLower(strings.TrimSpace(raw))
	return Query{
		Original: raw,
		Text:     text,
		Tokens:   strings.Fields(text),
	}
}

// IsEmpty reports whether the query has no text after trimming.
func (q Query) IsEmpty() bool {
	return q.Text == ""
}

// SearchableText joins the text-bearing fields of an item and lower-cases the result.
// Absent fields contribute empty strings, so the separator count is fixed.
func SearchableText(it models.Item) string {
	return strings.ToLower(strings.Join([]string{
		it.Name,
		it.Title,
		it.Question,
		it.Description,
		it.Content,
		it.Subject,
	}, " "))
}
