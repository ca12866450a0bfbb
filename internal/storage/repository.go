package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/models"
)

// EntityStore implements Repository over a KV, one JSON array per kind.
// Every List decodes a fresh copy; nothing is cached.
type EntityStore struct {
	kv     KV
	logger *zap.Logger
}

// EntityStoreOption configures an EntityStore.
type EntityStoreOption func(*EntityStore)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EntityStoreOption {
	return func(s *EntityStore) { s.logger = l }
}

// NewEntityStore creates a repository backed by kv.
func NewEntityStore(kv KV, opts ...EntityStoreOption) *EntityStore {
	s := &EntityStore{kv: kv, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all entities of kind. A missing key yields an empty slice.
func (s *EntityStore) List(ctx context.Context, kind models.EntityKind) ([]models.Entity, error) {
	data, err := s.kv.Get(ctx, kind.String())
	if err != nil {
		return nil, err
	}
	entities, err := models.DecodeEntities(kind, data)
	if err != nil {
		s.logger.Warn("stored entities could not be decoded", zap.Stringer("kind", kind), zap.Error(err))
		return nil, err
	}
	return entities, nil
}

// ReplaceAll validates entities and stores them as the whole collection for kind.
func (s *EntityStore) ReplaceAll(ctx context.Context, kind models.EntityKind, entities []models.Entity) error {
	data, err := models.EncodeEntities(kind, entities)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, kind.String(), data); err != nil {
		return err
	}
	s.logger.Debug("entities replaced", zap.Stringer("kind", kind), zap.Int("count", len(entities)))
	return nil
}

// Counts returns the number of stored entities per kind.
func (s *EntityStore) Counts(ctx context.Context) (map[models.EntityKind]int, error) {
	counts := make(map[models.EntityKind]int, len(models.AllKinds))
	for _, kind := range models.AllKinds {
		list, err := s.List(ctx, kind)
		if err != nil {
			return nil, err
		}
		counts[kind] = len(list)
	}
	return counts, nil
}
