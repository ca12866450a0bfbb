// Package models defines the learning-content entities, search queries, and search results.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EntityKind identifies one of the stored entity collections.
type EntityKind int

const (
	KindSubject EntityKind = iota
	KindChapter
	KindQuestion
	KindVideo
)

// AllKinds lists every kind in scan order. Result order for equal scores depends on it.
var AllKinds = []EntityKind{KindSubject, KindChapter, KindQuestion, KindVideo}

// String returns the storage key for the kind.
func (k EntityKind) String() string {
	switch k {
	case KindSubject:
		return "subjects"
	case KindChapter:
		return "chapters"
	case KindQuestion:
		return "questions"
	case KindVideo:
		return "videos"
	default:
		return "unknown"
	}
}

// Label returns the singular display name (e.g. "Chapter").
func (k EntityKind) Label() string {
	switch k {
	case KindSubject:
		return "Subject"
	case KindChapter:
		return "Chapter"
	case KindQuestion:
		return "Question"
	case KindVideo:
		return "Video"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is one of the known kinds.
func (k EntityKind) Valid() bool {
	return k >= KindSubject && k <= KindVideo
}

// ParseKind accepts the storage key or the singular label, case-insensitively.
func ParseKind(s string) (EntityKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds {
		if norm == k.String() || norm == strings.ToLower(k.Label()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText encodes the kind as its storage key.
func (k EntityKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a storage key or label.
func (k *EntityKind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// looseString decodes a JSON string or number into its string form. null yields "".
func looseString(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", string(b))
	}
	return n.String(), nil
}

// ID is an entity identifier. Stored data mixes numeric and string ids,
// so both decode into the same value and compare loosely.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(b []byte) error {
	s, err := looseString(b)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

// MarshalJSON writes integer-looking ids back as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// Equal compares ids the way the stored data expects: 1 equals "1" and "1.0".
func (id ID) Equal(other ID) bool {
	if id == other {
		return true
	}
	a, errA := strconv.ParseFloat(string(id), 64)
	b, errB := strconv.ParseFloat(string(other), 64)
	return errA == nil && errB == nil && a == b
}

// Ref is a loosely typed value: a reference to another entity by name or numeric id,
// or a scalar such as a timestamp that may be stored as a string or a number.
type Ref string

// UnmarshalJSON accepts a JSON string or number.
func (r *Ref) UnmarshalJSON(b []byte) error {
	s, err := looseString(b)
	if err != nil {
		return err
	}
	*r = Ref(s)
	return nil
}

// Tags is a tag list. Stored data uses either an array or a comma-separated string.
type Tags []string

// UnmarshalJSON accepts ["a","b"], "a, b" or null.
func (t *Tags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = nil
		return nil
	}
	if b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tags: expected array or string: %w", err)
	}
	*t = SplitTags(s)
	return nil
}

// SplitTags splits a comma-separated tag string, trimming blanks.
func SplitTags(s string) Tags {
	var out Tags
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Entity is a stored learning-content record of one kind.
type Entity interface {
	Kind() EntityKind
	Key() ID
	// Item projects the record onto the fields search and filtering look at.
	Item() Item
}

// Item is the kind-independent searchable view of an entity. Absent fields are empty.
type Item struct {
	Kind        EntityKind
	ID          ID
	Name        string
	Title       string
	Question    string
	Description string
	Content     string
	Subject     string
	Difficulty  string
	Tags        Tags
	CreatedAt   string
}

// PrimaryText returns the field used for labels and suggestions.
func (it Item) PrimaryText() string {
	switch it.Kind {
	case KindQuestion:
		return it.Question
	case KindVideo:
		return it.Title
	default:
		return it.Name
	}
}

// Common holds the optional fields every kind may carry.
type Common struct {
	ID          ID     `json:"id" validate:"required"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	Subject     Ref    `json:"subject,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Tags        Tags   `json:"tags,omitempty"`
	CreatedAt   Ref    `json:"createdAt,omitempty"`
}

func (c *Common) item(kind EntityKind) Item {
	return Item{
		Kind:        kind,
		ID:          c.ID,
		Description: c.Description,
		Content:     c.Content,
		Subject:     string(c.Subject),
		Difficulty:  c.Difficulty,
		Tags:        c.Tags,
		CreatedAt:   string(c.CreatedAt),
	}
}

// Subject is a course subject such as "Mathematics".
type Subject struct {
	Common
	Name string `json:"name" validate:"required"`
}

func (s *Subject) Kind() EntityKind { return KindSubject }
func (s *Subject) Key() ID          { return s.ID }

func (s *Subject) Item() Item {
	it := s.item(KindSubject)
	it.Name = s.Name
	return it
}

// Chapter belongs to a subject, referenced by name and optionally by id.
type Chapter struct {
	Common
	Name      string `json:"name" validate:"required"`
	SubjectID ID     `json:"subjectId,omitempty"`
}

func (c *Chapter) Kind() EntityKind { return KindChapter }
func (c *Chapter) Key() ID          { return c.ID }

func (c *Chapter) Item() Item {
	it := c.item(KindChapter)
	it.Name = c.Name
	return it
}

// Question is a quiz question attached to a chapter.
type Question struct {
	Common
	Question string          `json:"question" validate:"required"`
	Chapter  Ref             `json:"chapter,omitempty"`
	Type     string          `json:"type,omitempty"`
	Options  []string        `json:"options,omitempty"`
	Answer   json.RawMessage `json:"answer,omitempty"`
}

func (q *Question) Kind() EntityKind { return KindQuestion }
func (q *Question) Key() ID          { return q.ID }

func (q *Question) Item() Item {
	it := q.item(KindQuestion)
	it.Question = q.Question
	return it
}

// Video is a lesson video.
type Video struct {
	Common
	Title    string `json:"title" validate:"required"`
	Chapter  Ref    `json:"chapter,omitempty"`
	Duration Ref    `json:"duration,omitempty"`
}

func (v *Video) Kind() EntityKind { return KindVideo }
func (v *Video) Key() ID          { return v.ID }

func (v *Video) Item() Item {
	it := v.item(KindVideo)
	it.Title = v.Title
	return it
}
