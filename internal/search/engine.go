// Package search scans stored learning content, ranks what matches a query and
// filter set, and produces autocomplete suggestions.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/config"
	"github.com/nepaledu/edusearch/internal/metrics"
	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/ranking"
	"github.com/nepaledu/edusearch/internal/storage"
	"github.com/nepaledu/edusearch/pkg/utils"
)

// Engine runs searches and suggestion lookups against a repository.
// It holds no entity state; every call reads the repository afresh.
type Engine struct {
	repo    storage.Repository
	config  *config.SearchConfig
	logger  *zap.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = utils.NopIfNil(l) }
}

// WithMetrics sets where search observations are recorded.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.metrics = r
		}
	}
}

// NewEngine creates a search engine over repo. A nil cfg uses the defaults.
func NewEngine(repo storage.Repository, cfg *config.SearchConfig, opts ...Option) *Engine {
	if cfg == nil {
		defaults := config.Default().Search
		cfg = &defaults
	}
	e := &Engine{
		repo:    repo,
		config:  cfg,
		logger:  zap.NewNop(),
		metrics: metrics.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns every stored item that passes the query and filters, ranked by
// relevance. Equal scores keep scan order: kinds in fixed order, items in stored order.
// An empty query with no filters is not rejected here; callers validate first.
func (e *Engine) Search(ctx context.Context, query string, filters models.Filters) ([]*models.Result, error) {
	start := e.now()
	results, err := e.search(ctx, query, filters)
	elapsed := e.now().Sub(start)
	if err != nil {
		status := metrics.StatusError
		if IsValidation(err) {
			status = metrics.StatusInvalid
		}
		e.metrics.ObserveSearch(status, elapsed, 0)
		e.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	e.metrics.ObserveSearch(metrics.StatusOK, elapsed, len(results))
	e.logger.Debug("search",
		zap.String("query", query),
		zap.Any("filters", filters),
		zap.Int("results", len(results)),
		zap.Duration("took", elapsed),
	)
	return results, nil
}

func (e *Engine) search(ctx context.Context, query string, filters models.Filters) ([]*models.Result, error) {
	criteria, err := ranking.Compile(filters)
	if err != nil {
		return nil, err
	}
	q := ranking.ParseQuery(query)

	results := []*models.Result{}
	for _, kind := range criteria.Kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entities, err := e.repo.List(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		for _, ent := range entities {
			it := ent.Item()
			if !ranking.Matches(it, q, criteria) {
				continue
			}
			results = append(results, &models.Result{
				Kind:      kind,
				Entity:    ent,
				Relevance: ranking.ScoreQuery(it, q),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results, nil
}

// Run validates a request, searches, and wraps the results with timing.
// A request with neither query nor filters returns models.ErrEmptySearch.
func (e *Engine) Run(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		e.metrics.ObserveSearch(metrics.StatusInvalid, 0, 0)
		return nil, err
	}
	start := e.now()
	results, err := e.Search(ctx, req.Query, req.Filters)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Query:     strings.TrimSpace(req.Query),
		Filters:   req.Filters,
		QueryTime: e.now().Sub(start).Milliseconds(),
	}, nil
}
