package ranking

import (
	"strings"
	"time"

	"github.com/nepaledu/edusearch/internal/models"
)

// Criteria is the compiled form of models.Filters.
type Criteria struct {
	// Kinds are the collections to scan, in scan order.
	Kinds      []models.EntityKind
	Subject    string
	Difficulty string
	// Tags are lower-cased, trimmed, non-empty filter tokens.
	Tags []string
	From time.Time
	To   time.Time
}

// Compile validates filters and turns them into Criteria.
// An unknown content type or an unparseable date is a *models.ValidationError.
func Compile(f models.Filters) (*Criteria, error) {
	c := &Criteria{
		Kinds:      models.AllKinds,
		Subject:    f.Subject,
		Difficulty: f.Difficulty,
	}

	if f.ContentType != "" {
		kind, err := models.ParseKind(f.ContentType)
		if err != nil {
			return nil, models.NewValidationError("contentType", "unknown content type "+f.ContentType)
		}
		c.Kinds = []models.EntityKind{kind}
	}

	if f.Tags != "" {
		for _, tok := range strings.Split(f.Tags, ",") {
			if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
				c.Tags = append(c.Tags, tok)
			}
		}
	}

	if f.DateFrom != "" {
		t, _, ok := ParseDate(f.DateFrom)
		if !ok {
			return nil, models.NewValidationError("dateFrom", "invalid date "+f.DateFrom)
		}
		c.From = t
	}
	if f.DateTo != "" {
		t, dateOnly, ok := ParseDate(f.DateTo)
		if !ok {
			return nil, models.NewValidationError("dateTo", "invalid date "+f.DateTo)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		c.To = t
	}
	return c, nil
}

// Matches reports whether an item passes the query and every active filter.
// Subject and difficulty apply only to items that carry the field; tag filters
// exclude untagged items; date filters let undated items through.
func Matches(it models.Item, q Query, c *Criteria) bool {
	if !q.IsEmpty() && !strings.Contains(SearchableText(it), q.Text) {
		return false
	}
	if c == nil {
		return true
	}
	if c.Subject != "" && it.Subject != "" && !strings.EqualFold(it.Subject, c.Subject) {
		return false
	}
	if c.Difficulty != "" && it.Difficulty != "" && it.Difficulty != c.Difficulty {
		return false
	}
	if len(c.Tags) > 0 && !tagsMatch(it.Tags, c.Tags) {
		return false
	}
	if !c.From.IsZero() || !c.To.IsZero() {
		created, _, ok := ParseDate(it.CreatedAt)
		if !ok {
			return true
		}
		if !c.From.IsZero() && created.Before(c.From) {
			return false
		}
		if !c.To.IsZero() && created.After(c.To) {
			return false
		}
	}
	return true
}

func tagsMatch(itemTags models.Tags, tokens []string) bool {
	for _, tag := range itemTags {
		tag = strings.ToLower(tag)
		for _, tok := range tokens {
			if strings.Contains(tag, tok) {
				return true
			}
		}
	}
	return false
}
