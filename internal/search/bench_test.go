package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/ranking"
	"github.com/nepaledu/edusearch/internal/storage"
)

func benchEngine(b *testing.B, n int) *Engine {
	b.Helper()
	store := storage.NewEntityStore(storage.NewMemoryKV())
	questions := make([]models.Entity, n)
	for i := 0; i < n; i++ {
		questions[i] = &models.Question{
			Common:   models.Common{ID: models.ID(fmt.Sprint(i)), Subject: "Mathematics", Difficulty: "easy"},
			Question: fmt.Sprintf("Solve linear equation number %d for x", i),
		}
	}
	if err := store.ReplaceAll(context.Background(), models.KindQuestion, questions); err != nil {
		b.Fatal(err)
	}
	return NewEngine(store, nil)
}

func BenchmarkScore(b *testing.B) {
	it := models.Item{Kind: models.KindQuestion, Question: "Solve the linear equation for x", Subject: "Mathematics"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ranking.Score(it, "linear equation")
	}
}

func BenchmarkEngineSearch(b *testing.B) {
	e := benchEngine(b, 1000)
	ctx := context.Background()
	filters := models.Filters{Difficulty: "easy"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Search(ctx, "linear equation", filters)
	}
}

func BenchmarkEngineSuggest(b *testing.B) {
	e := benchEngine(b, 1000)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Suggest(ctx, "equation")
	}
}
