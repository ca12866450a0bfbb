package models

import (
	"strings"
)

// Filters is the set of optional search criteria, keyed as the search form names them.
// Values are kept as entered; ranking compiles them before use.
type Filters struct {
	ContentType string `json:"contentType,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Tags        string `json:"tags,omitempty"`
	DateFrom    string `json:"dateFrom,omitempty"`
	DateTo      string `json:"dateTo,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.ContentType == "" && f.Subject == "" && f.Difficulty == "" &&
		f.Tags == "" && f.DateFrom == "" && f.DateTo == ""
}

// FiltersFromMap builds Filters from a name/value mapping. Unknown names are ignored.
func FiltersFromMap(m map[string]string) Filters {
	return Filters{
		ContentType: m["contentType"],
		Subject:     m["subject"],
		Difficulty:  m["difficulty"],
		Tags:        m["tags"],
		DateFrom:    m["dateFrom"],
		DateTo:      m["dateTo"],
	}
}

// SearchRequest is a query plus filters as submitted by a caller.
type SearchRequest struct {
	Query   string  `json:"query"`
	Filters Filters `json:"filters"`
}

// Validate rejects a request with neither query text nor filters.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" && r.Filters.IsEmpty() {
		return ErrEmptySearch
	}
	return nil
}
