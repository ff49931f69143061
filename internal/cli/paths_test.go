package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir == "" {
		t.Error("cacheDir() returned empty string")
	}

	base, _ := os.UserCacheDir()
	if !strings.HasPrefix(dir, base) {
		t.Errorf("cacheDir() = %q, should be under %q", dir, base)
	}
	if !strings.HasSuffix(dir, appName) {
		t.Errorf("cacheDir() = %q, should end with %q", dir, appName)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := filepath.Join(t.TempDir(), "custom-cache")
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestCountFiles(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"ab/one.json", "ab/two.json", "cd/three.json"} {
		path := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	n, err := countFiles(dir)
	if err != nil {
		t.Fatalf("countFiles: %v", err)
	}
	if n != 3 {
		t.Errorf("countFiles = %d, want 3", n)
	}
}
