// Package watcher re-imports content files when they change in the configured data directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/debounce"
	"github.com/nepaledu/edusearch/internal/importer"
	"github.com/nepaledu/edusearch/pkg/utils"
)

const defaultDelay = 400 * time.Millisecond

// FileImporter imports one file into the store.
type FileImporter interface {
	ImportFile(ctx context.Context, path string) (importer.Summary, error)
}

// ImportFunc is told about every import the watcher attempts.
type ImportFunc func(path string, summary importer.Summary, err error)

// Watcher watches data directories and imports files after they settle.
// Removed files are only logged: imported content stays until replaced.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	imp        FileImporter
	onImport   ImportFunc
	delay      time.Duration
	pending    *debounce.Group
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	ctx      context.Context
	done     chan struct{}
	started  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for watch events and import results.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = utils.NopIfNil(l) }
}

// WithDelay sets how long a file must be quiet before it is imported.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithOnImport registers a callback run after each import attempt.
func WithOnImport(fn ImportFunc) Option {
	return func(w *Watcher) { w.onImport = fn }
}

// New creates a watcher over roots. extensions filters file names (empty = all).
func New(roots, extensions []string, recursive bool, imp FileImporter, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      append([]string(nil), roots...),
		extensions: extensions,
		recursive:  recursive,
		imp:        imp,
		delay:      defaultDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.pending = debounce.NewGroup(w.delay)
	return w
}

// Start begins watching. Missing roots are created. It runs until ctx is
// cancelled or Stop is called; a stopped watcher may be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := addRoot(fsw, root, w.recursive); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.ctx = ctx
	w.done = make(chan struct{})
	w.started = true
	w.logger.Debug("watcher started",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive),
	)
	go w.run(ctx, fsw, w.done)
	return nil
}

func addRoot(fsw *fsnotify.Watcher, root string, recursive bool) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.stop(done)
			return
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watch event", zap.Stringer("op", ev.Op), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(fsw, path)
			return
		}
		if matchExtension(path, w.extensions) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.pending.Cancel(path)
		if matchExtension(path, w.extensions) {
			w.logger.Info("content file removed; imported data kept", zap.String("path", path))
		}
	}
}

// handleNewDirectory watches a directory that appeared under a root and imports its files.
func (w *Watcher) handleNewDirectory(fsw *fsnotify.Watcher, dir string) {
	if w.recursive {
		if err := addRoot(fsw, dir, true); err != nil {
			w.logger.Warn("failed to watch new directory", zap.String("path", dir), zap.Error(err))
		}
	}
	w.syncDirectory(dir, w.schedule)
}

func (w *Watcher) schedule(path string) {
	w.pending.Trigger(path, func() { w.importFile(path) })
}

func (w *Watcher) importFile(path string) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	summary, err := w.imp.ImportFile(ctx, path)
	if err != nil {
		w.logger.Warn("import failed", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Info("imported changed file", zap.String("path", path), zap.Stringer("summary", summary))
	}
	if w.onImport != nil {
		w.onImport(path, summary, err)
	}
}

func (w *Watcher) underRoot(path string) bool {
	clean := filepath.Clean(path)
	for _, root := range w.roots {
		if inDir(filepath.Clean(root), clean) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) syncDirectory(root string, visit func(path string)) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			visit(path)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("failed to scan directory", zap.String("root", root), zap.Error(err))
	}
}

// SyncExisting imports every matching file already present in the roots, immediately.
func (w *Watcher) SyncExisting() {
	for _, root := range w.roots {
		w.syncDirectory(root, w.importFile)
	}
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.roots...)
}

// Stop stops watching and drops pending imports.
func (w *Watcher) Stop() {
	w.stop(nil)
}

// stop ends the running session. A non-nil done only stops the session it belongs to,
// so a cancelled context from an earlier Start cannot stop a later one.
func (w *Watcher) stop(done chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || (done != nil && done != w.done) {
		return
	}
	w.pending.CancelAll()
	_ = w.fsw.Close()
	w.started = false
	close(w.done)
}
