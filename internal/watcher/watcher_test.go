package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nepaledu/edusearch/internal/importer"
	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/storage"
)

type fakeImporter struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeImporter) ImportFile(ctx context.Context, path string) (importer.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return importer.Summary{models.KindSubject: 1}, nil
}

func (f *fakeImporter) imported() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_ImportsChangedFileOnce(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	w := New([]string{dir}, []string{".json"}, true, imp, WithDelay(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "subjects.json")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`[{"id":1,"name":"Maths"}]`), 0600); err != nil {
			t.Fatal(err)
		}
	}
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600)

	waitFor(t, func() bool { return len(imp.imported()) >= 1 })
	time.Sleep(150 * time.Millisecond)
	got := imp.imported()
	if len(got) != 1 || !strings.HasSuffix(got[0], "subjects.json") {
		t.Errorf("expected a single debounced import of subjects.json, got %v", got)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	w := New([]string{dir}, []string{".json", ".xlsx"}, true, imp, WithDelay(30*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "grade10", "science")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "chapters.json"), []byte(`[]`), 0600); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		for _, p := range imp.imported() {
			if strings.HasSuffix(p, "chapters.json") {
				return true
			}
		}
		return false
	})
}

func TestWatcher_OnImportReportsErrors(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{err: errors.New("bad file")}
	results := make(chan error, 4)
	w := New([]string{dir}, nil, false, imp,
		WithDelay(20*time.Millisecond),
		WithOnImport(func(path string, _ importer.Summary, err error) { results <- err }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	_ = os.WriteFile(filepath.Join(dir, "videos.json"), []byte(`{`), 0600)
	select {
	case err := <-results:
		if err == nil || err.Error() != "bad file" {
			t.Errorf("unexpected import error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("import callback never ran")
	}
}

func TestWatcher_SyncExistingImportsIntoStore(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	_ = os.MkdirAll(sub, 0755)
	_ = os.WriteFile(filepath.Join(dir, "subjects.json"), []byte(`[{"id":1,"name":"Mathematics"}]`), 0600)
	_ = os.WriteFile(filepath.Join(sub, "videos.json"), []byte(`[{"id":1,"title":"Algebra intro"}]`), 0600)
	_ = os.WriteFile(filepath.Join(dir, "ignore.md"), []byte("x"), 0600)

	store := storage.NewEntityStore(storage.NewMemoryKV())
	w := New([]string{dir}, []string{".json"}, false, importer.New(store))
	w.SyncExisting()

	ctx := context.Background()
	subjects, _ := store.List(ctx, models.KindSubject)
	videos, _ := store.List(ctx, models.KindVideo)
	if len(subjects) != 1 {
		t.Errorf("expected top-level file imported, got %d subjects", len(subjects))
	}
	if len(videos) != 0 {
		t.Errorf("non-recursive sync should skip nested dirs, got %d videos", len(videos))
	}
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data", "content")
	w := New([]string{root}, nil, true, &fakeImporter{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root should exist after Start: %v", err)
	}
	if got := w.Directories(); len(got) != 1 || got[0] != root {
		t.Errorf("Directories() = %v", got)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/data/subjects.json", []string{".json"}, true},
		{"/data/Content.XLSX", []string{"xlsx"}, true},
		{"/data/readme.md", []string{".json", ".xlsx"}, false},
		{"/data/anything", nil, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.json", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_RestartAfterStop(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	w := New([]string{dir}, []string{".json"}, false, imp, WithDelay(30*time.Millisecond))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	if err := w.Start(firstCtx); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	// The first session's context must not stop the second.
	cancelFirst()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "chapters.json"), []byte(`[]`), 0600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(imp.imported()) == 1 })
}
