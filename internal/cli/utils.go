// Package cli formats edusearch output for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per item, for scripts.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

const snippetLen = 160

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			it := r.Entity.Item()
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.Kind, r.Relevance, it.ID, it.PrimaryText())
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for i, r := range response.Results {
		it := r.Entity.Item()
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. [%s] %s  (relevance %d)\n", i+1, r.Kind.Label(), it.PrimaryText(), r.Relevance)
		fmt.Fprintf(w, "ID: %s\n", it.ID)
		if meta := metaLine(it); meta != "" {
			fmt.Fprintln(w, meta)
		}
		if body := firstNonEmpty(it.Description, it.Content); body != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Snippet(body, response.Query, snippetLen))
		}
		fmt.Fprintln(w)
	}
}

func metaLine(it models.Item) string {
	var parts []string
	if it.Subject != "" {
		parts = append(parts, "Subject: "+it.Subject)
	}
	if it.Difficulty != "" {
		parts = append(parts, "Difficulty: "+it.Difficulty)
	}
	if len(it.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(it.Tags, ", "))
	}
	return strings.Join(parts, " | ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// WriteSuggestions writes autocomplete entries.
func WriteSuggestions(w io.Writer, suggestions []models.Suggestion, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, suggestions)
	}
	for _, s := range suggestions {
		if format == OutputCompact {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Kind, s.ID, s.Text)
			continue
		}
		fmt.Fprintf(w, "%-9s %s\n", s.Type, s.Text)
	}
	return nil
}

// WriteHistory writes recent searches, most recent first.
func WriteHistory(w io.Writer, entries []models.HistoryEntry, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 && format == OutputText {
		fmt.Fprintln(w, "No recent searches.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Query)
	}
	return nil
}

// WriteSavedSearches writes saved searches in save order.
func WriteSavedSearches(w io.Writer, saved []models.SavedSearch, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, saved)
	}
	if len(saved) == 0 && format == OutputText {
		fmt.Fprintln(w, "No saved searches.")
		return nil
	}
	for _, s := range saved {
		if format == OutputCompact {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Query)
			continue
		}
		fmt.Fprintf(w, "%s  %s\n    query: %q", s.ID, s.Name, s.Query)
		if f := describeFilters(s.Filters); f != "" {
			fmt.Fprintf(w, "  filters: %s", f)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func describeFilters(f models.Filters) string {
	var parts []string
	add := func(name, v string) {
		if v != "" {
			parts = append(parts, name+"="+v)
		}
	}
	add("contentType", f.ContentType)
	add("subject", f.Subject)
	add("difficulty", f.Difficulty)
	add("tags", f.Tags)
	add("dateFrom", f.DateFrom)
	add("dateTo", f.DateTo)
	return strings.Join(parts, " ")
}
