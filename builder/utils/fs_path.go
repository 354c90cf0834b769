package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// NormalizePath canonicalizes a content-relative path for cache keys:
// forward slashes, lower case. Backslashes are converted regardless of
// platform so keys written on Windows match keys read elsewhere.
func NormalizePath(p string) string {
	if strings.ContainsRune(p, '\\') {
		p = strings.ReplaceAll(p, "\\", "/")
	}
	return strings.ToLower(p)
}

// SafeRel relativizes target against root, rejecting results that climb
// out of root. The result always uses forward slashes.
func SafeRel(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s escapes %s", target, root)
	}
	return filepath.ToSlash(rel), nil
}

// BuildURL joins a site base URL and an output-relative path.
func BuildURL(baseURL, relPath string) string {
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "/")
	if baseURL == "" {
		return "/" + relPath
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + relPath
}

// WriteFileVFS writes data into the virtual filesystem, creating parent
// directories as needed.
func WriteFileVFS(dst afero.Fs, path string, data []byte) error {
	if err := dst.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(dst, path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// HydrateVFS populates a VFS from a directory on disk. A missing
// directory is not an error: the first build starts from nothing.
func HydrateVFS(mem afero.Fs, dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return mem.MkdirAll(path, 0755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return afero.WriteFile(mem, path, data, 0644)
	})
}
