// Package history keeps the recent-search list and the user's saved searches.
package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/storage"
	"github.com/nepaledu/edusearch/pkg/utils"
)

// DefaultLimit is the number of history entries kept when none is configured.
const DefaultLimit = 10

// Store persists search history and saved searches in a KV.
// Each mutation is a read-modify-write of one key, serialized by mu.
type Store struct {
	kv     storage.KV
	limit  int
	logger *zap.Logger
	now    func() time.Time
	newID  func() (uuid.UUID, error)
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLimit caps the history length. Non-positive values keep the default.
func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = utils.NopIfNil(l) }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over kv.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		limit:  DefaultLimit,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewV7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record puts query at the head of the history. A blank query is ignored.
// An identical earlier entry is removed first, and the list is cut to the limit.
func (s *Store) Record(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.history(ctx)
	if err != nil {
		return err
	}
	next := make([]models.HistoryEntry, 0, len(entries)+1)
	next = append(next, models.HistoryEntry{Query: query, Timestamp: s.now()})
	for _, e := range entries {
		if e.Query != query {
			next = append(next, e)
		}
	}
	if len(next) > s.limit {
		next = next[:s.limit]
	}
	if err := storage.PutJSON(ctx, s.kv, storage.KeySearchHistory, next); err != nil {
		return err
	}
	s.logger.Debug("history recorded", zap.String("query", query), zap.Int("entries", len(next)))
	return nil
}

// History returns recorded queries, most recent first.
func (s *Store) History(ctx context.Context) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history(ctx)
}

func (s *Store) history(ctx context.Context) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	if _, err := storage.GetJSON(ctx, s.kv, storage.KeySearchHistory, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// ClearHistory removes every history entry.
func (s *Store) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(ctx, storage.KeySearchHistory)
}

// Save appends a named search. Saved searches are neither deduplicated nor capped.
func (s *Store) Save(ctx context.Context, name, query string, filters models.Filters) (*models.SavedSearch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "is required")
	}
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate saved search id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.saved(ctx)
	if err != nil {
		return nil, err
	}
	rec := models.SavedSearch{
		ID:        id.String(),
		Name:      name,
		Query:     query,
		Filters:   filters,
		Timestamp: s.now(),
	}
	saved = append(saved, rec)
	if err := storage.PutJSON(ctx, s.kv, storage.KeySavedSearches, saved); err != nil {
		return nil, err
	}
	s.logger.Debug("search saved", zap.String("id", rec.ID), zap.String("name", name))
	return &rec, nil
}

// List returns saved searches in the order they were saved.
func (s *Store) List(ctx context.Context) ([]models.SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved(ctx)
}

func (s *Store) saved(ctx context.Context) ([]models.SavedSearch, error) {
	saved := []models.SavedSearch{}
	if _, err := storage.GetJSON(ctx, s.kv, storage.KeySavedSearches, &saved); err != nil {
		return nil, err
	}
	if saved == nil {
		saved = []models.SavedSearch{}
	}
	return saved, nil
}

// Get looks up a saved search by id. It returns models.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (*models.SavedSearch, error) {
	saved, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range saved {
		if saved[i].ID == id {
			return &saved[i], nil
		}
	}
	return nil, fmt.Errorf("saved search %q: %w", id, models.ErrNotFound)
}

// Delete removes the saved search with id. It returns models.ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.saved(ctx)
	if err != nil {
		return err
	}
	kept := saved[:0]
	for _, rec := range saved {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(saved) {
		return fmt.Errorf("saved search %q: %w", id, models.ErrNotFound)
	}
	return storage.PutJSON(ctx, s.kv, storage.KeySavedSearches, kept)
}
