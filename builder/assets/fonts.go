// Package assets resolves theme-bundled resources and bundles the
// theme's scripts and styles.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	fontMu  sync.RWMutex
	fontDir string
	fonts   = make(map[string][]byte)
)

// SetFontDir points font lookups at a theme's fonts directory and drops
// bytes cached from a previously selected theme.
func SetFontDir(dir string) {
	fontMu.Lock()
	fontDir = dir
	fonts = make(map[string][]byte)
	fontMu.Unlock()
}

// Font returns the bytes for a font file in the configured theme
// fonts directory, caching reads.
func Font(name string) ([]byte, error) {
	fontMu.RLock()
	data, ok := fonts[name]
	dir := fontDir
	fontMu.RUnlock()
	if ok {
		return data, nil
	}
	if dir == "" {
		return nil, fmt.Errorf("font directory not configured")
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", name, err)
	}

	fontMu.Lock()
	fonts[name] = data
	fontMu.Unlock()
	return data, nil
}
