// Package testutil holds shared fixtures and filesystem helpers for
// service-level tests.
package testutil

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"faro/builder/cache"
)

// OpenCache returns a cache manager rooted in a temp directory. It is
// closed automatically when the test ends.
func OpenCache(t *testing.T) *cache.Manager {
	t.Helper()
	m, err := cache.Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// SeedFS returns in-memory source and destination filesystems, the
// source pre-populated with files. MemMapFs registers parent
// directories on write, so nested paths walk correctly.
func SeedFS(t *testing.T, files map[string]string) (src, dest afero.Fs) {
	t.Helper()
	src, dest = afero.NewMemMapFs(), afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(src, path, []byte(content), 0644); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}
	return src, dest
}

// AssertFileExists fails the test when path is missing from fs.
func AssertFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if ok, err := afero.Exists(fs, path); err != nil {
		t.Fatalf("stat %s: %v", path, err)
	} else if !ok {
		t.Errorf("%s should exist", path)
	}
}

// AssertFileNotExists fails the test when path is present in fs.
func AssertFileNotExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if ok, err := afero.Exists(fs, path); err != nil {
		t.Fatalf("stat %s: %v", path, err)
	} else if ok {
		t.Errorf("%s should not exist", path)
	}
}

// AssertFileContains fails the test when the file does not contain want.
func AssertFileContains(t *testing.T, fs afero.Fs, path, want string) {
	t.Helper()
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !strings.Contains(string(content), want) {
		t.Errorf("%s is missing %q in:\n%s", path, want, content)
	}
}
