package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClearCacheDir(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{
		"http/aa11.json",
		"forest/bb22.json",
		"artifact/cc33.json",
		"artifact/dd44.json",
	} {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := clearCacheDir(dir)
	if err != nil {
		t.Fatalf("clearCacheDir() error = %v", err)
	}
	if count != 4 {
		t.Errorf("cleared %d entries, want 4", count)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache dir should survive a clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir still has %d entries after clear", len(entries))
	}
}

func TestClearCacheDirEmpty(t *testing.T) {
	count, err := clearCacheDir(t.TempDir())
	if err != nil {
		t.Fatalf("clearCacheDir() error = %v", err)
	}
	if count != 0 {
		t.Errorf("cleared %d entries from an empty dir, want 0", count)
	}
}
