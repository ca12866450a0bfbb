package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/metrics"
	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/pkg/utils"
)

// suggestKinds are scanned for suggestions, in order. Videos are not suggested.
var suggestKinds = []models.EntityKind{models.KindSubject, models.KindChapter, models.KindQuestion}

// Suggest returns autocomplete entries whose primary text contains partial,
// case-insensitively. Entries come in scan order, not by relevance, and stop at
// the configured limit. Input shorter than the minimum length yields nothing.
func (e *Engine) Suggest(ctx context.Context, partial string) ([]models.Suggestion, error) {
	suggestions := []models.Suggestion{}
	if utf8.RuneCountInString(partial) < e.config.SuggestMinLength {
		return suggestions, nil
	}
	needle := strings.ToLower(partial)
	limit := e.config.SuggestLimit

	for _, kind := range suggestKinds {
		entities, err := e.repo.List(ctx, kind)
		if err != nil {
			e.metrics.ObserveSuggest(metrics.StatusError)
			e.logger.Warn("suggest failed", zap.String("partial", partial), zap.Error(err))
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		for _, ent := range entities {
			it := ent.Item()
			text := it.PrimaryText()
			if !strings.Contains(strings.ToLower(text), needle) {
				continue
			}
			suggestions = append(suggestions, models.Suggestion{
				Text: utils.Truncate(text, e.config.SuggestLabelMax),
				Type: kind.Label(),
				Kind: kind,
				ID:   it.ID,
			})
			if limit > 0 && len(suggestions) >= limit {
				e.metrics.ObserveSuggest(metrics.StatusOK)
				return suggestions, nil
			}
		}
	}
	e.metrics.ObserveSuggest(metrics.StatusOK)
	return suggestions, nil
}
