// Package storage provides the key/value store behind entities, search history and saved
// searches, and the entity repository built on it.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nepaledu/edusearch/internal/config"
	"github.com/nepaledu/edusearch/internal/models"
)

// Keys not owned by an entity kind. Entity kinds use their own String() as key.
const (
	KeySearchHistory = "searchHistory"
	KeySavedSearches = "savedSearches"
)

// KV is a string-keyed store of raw values. Get on a missing key returns nil, nil.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Repository reads and replaces whole entity collections, one per kind.
type Repository interface {
	List(ctx context.Context, kind models.EntityKind) ([]models.Entity, error)
	ReplaceAll(ctx context.Context, kind models.EntityKind, entities []models.Entity) error
}

// Open creates the KV backend selected in cfg.
func Open(cfg *config.StorageConfig) (KV, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return NewSQLiteKV(cfg.DatabasePath)
	case config.BackendBadger:
		return NewBadgerKV(cfg.BadgerPath)
	case config.BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// GetJSON decodes the value under key into v. It reports false when the key is absent.
func GetJSON(ctx context.Context, kv KV, key string, v any) (bool, error) {
	data, err := kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Put(ctx, key, data)
}
