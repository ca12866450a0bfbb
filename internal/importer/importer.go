// Package importer loads learning content from files into the entity repository.
// A JSON file named after a kind (subjects.json, chapters.json, ...) holds that kind's
// array; an .xlsx workbook holds one sheet per kind with a header row of field names.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/storage"
	"github.com/nepaledu/edusearch/pkg/utils"
)

// ErrUnsupported is returned for files the importer does not handle.
var ErrUnsupported = errors.New("unsupported import file")

// Summary counts imported entities per kind.
type Summary map[models.EntityKind]int

// Total returns the number of imported entities.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// String lists counts in scan order, e.g. "subjects=2 chapters=5".
func (s Summary) String() string {
	var parts []string
	for _, k := range models.AllKinds {
		if c, ok := s[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", k, c))
		}
	}
	if len(parts) == 0 {
		return "nothing imported"
	}
	return strings.Join(parts, " ")
}

// Importer writes decoded files into a Repository, replacing each imported kind.
type Importer struct {
	repo   storage.Repository
	logger *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Importer) { i.logger = utils.NopIfNil(l) }
}

// New creates an Importer over repo.
func New(repo storage.Repository, opts ...Option) *Importer {
	i := &Importer{repo: repo, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".xlsx":
		return true
	}
	return false
}

// ImportFile imports one file. Nothing is written unless the whole file decodes and validates.
func (i *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return i.ImportBytes(ctx, filepath.Base(path), data)
}

// ImportBytes imports file content; name selects the format and, for JSON, the kind.
func (i *Importer) ImportBytes(ctx context.Context, name string, data []byte) (Summary, error) {
	var (
		batches map[models.EntityKind][]models.Entity
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		batches, err = decodeJSONFile(name, data)
	case ".xlsx":
		batches, err = decodeWorkbook(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}

	summary := Summary{}
	kinds := make([]models.EntityKind, 0, len(batches))
	for k := range batches {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(a, b int) bool { return kinds[a] < kinds[b] })
	for _, kind := range kinds {
		if err := i.repo.ReplaceAll(ctx, kind, batches[kind]); err != nil {
			return summary, fmt.Errorf("import %s: store %s: %w", name, kind, err)
		}
		summary[kind] = len(batches[kind])
	}
	i.logger.Info("imported", zap.String("file", name), zap.Stringer("summary", summary))
	return summary, nil
}

// ImportDir imports every supported file under dir. Files that fail are logged and
// skipped; the first error is returned after the walk.
func (i *Importer) ImportDir(ctx context.Context, dir string) (Summary, error) {
	total := Summary{}
	var firstErr error
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		s, err := i.ImportFile(ctx, path)
		if err != nil {
			i.logger.Warn("import failed", zap.String("path", path), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		for k, n := range s {
			total[k] = n
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, firstErr
}

func decodeJSONFile(name string, data []byte) (map[models.EntityKind][]models.Entity, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	kind, err := models.ParseKind(stem)
	if err != nil {
		return nil, fmt.Errorf("%w: file name must be a content type", err)
	}
	entities, err := models.DecodeEntities(kind, data)
	if err != nil {
		return nil, err
	}
	return map[models.EntityKind][]models.Entity{kind: entities}, nil
}
