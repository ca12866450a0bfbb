package ranking

import (
	"strings"

	"github.com/nepaledu/edusearch/internal/models"
)

// Score weights.
const (
	EmptyQueryScore = 1
	FullMatchScore  = 10
	TokenScore      = 5
	NameMatchScore  = 3
	TitleMatchScore = 3
)

// Score computes the relevance of an item for a raw query string.
func Score(it models.Item, query string) int {
	return ScoreQuery(it, ParseQuery(query))
}

// ScoreQuery computes the relevance of an item for a parsed query.
// An empty query scores EmptyQueryScore so every item is kept with equal weight.
func ScoreQuery(it models.Item, q Query) int {
	if q.IsEmpty() {
		return EmptyQueryScore
	}
	text := SearchableText(it)

	score := 0
	if strings.Contains(text, q.Text) {
		score += FullMatchScore
	}
	for _, tok := range q.Tokens {
		if strings.Contains(text, tok) {
			score += TokenScore
		}
	}
	if it.Name != "" && strings.Contains(strings.ToLower(it.Name), q.Text) {
		score += NameMatchScore
	}
	if it.Title != "" && strings.Contains(strings.ToLower(it.Title), q.Text) {
		score += TitleMatchScore
	}
	return score
}
