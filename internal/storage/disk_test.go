package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "store.db")
	if err := os.WriteFile(dbFile, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	badgerDir := filepath.Join(dir, "badger")
	if err := os.MkdirAll(filepath.Join(badgerDir, "vlog"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badgerDir, "000001.sst"), []byte("ab"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badgerDir, "vlog", "000001.vlog"), []byte("c"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"database file", []string{dbFile}, 5},
		{"badger directory is summed recursively", []string{badgerDir}, 3},
		{"both backends", []string{dbFile, badgerDir}, 8},
		{"missing path is skipped", []string{dbFile, filepath.Join(dir, "nonexistent"), badgerDir}, 8},
		{"empty path is skipped", []string{"", dbFile}, 5},
		{"nothing configured", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DiskUsageBytes(%v) = %d, want %d", tt.paths, got, tt.want)
			}
		})
	}
}

func TestDiskUsageBytes_SQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Put(context.Background(), KeySearchHistory, []byte(`[{"query":"algebra"}]`)); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}
	got, err := DiskUsageBytes(path)
	if err != nil {
		t.Fatal(err)
	}
	if got == 0 {
		t.Error("expected a non-empty database file")
	}
}
