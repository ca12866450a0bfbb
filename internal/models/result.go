package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result is a matching entity tagged with its kind and relevance score.
type Result struct {
	Kind      EntityKind
	Entity    Entity
	Relevance int
}

// MarshalJSON writes the entity's own fields plus "type" and "relevance".
func (r *Result) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(r.Entity)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, err := json.Marshal(r.Kind)
	if err != nil {
		return nil, err
	}
	fields["type"] = kind
	fields["relevance"] = json.RawMessage(fmt.Sprintf("%d", r.Relevance))
	return json.Marshal(fields)
}

// UnmarshalJSON restores a result written by MarshalJSON.
func (r *Result) UnmarshalJSON(b []byte) error {
	var head struct {
		Type      EntityKind `json:"type"`
		Relevance int        `json:"relevance"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	entity, err := NewEntity(head.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, entity); err != nil {
		return err
	}
	r.Kind = head.Type
	r.Entity = entity
	r.Relevance = head.Relevance
	return nil
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*Result `json:"results"`
	Total     int       `json:"total"`
	Query     string    `json:"query"`
	Filters   Filters   `json:"filters"`
	QueryTime int64     `json:"query_time_ms"`
}

// Suggestion is an autocomplete entry.
type Suggestion struct {
	Text string     `json:"text"`
	Type string     `json:"type"`
	Kind EntityKind `json:"kind"`
	ID   ID         `json:"id"`
}

// HistoryEntry is one recorded search.
type HistoryEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// SavedSearch is a named query and filter set kept until deleted.
type SavedSearch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	Filters   Filters   `json:"filters"`
	Timestamp time.Time `json:"timestamp"`
}
