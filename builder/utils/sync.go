package utils

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
)

// alwaysSynced are build-global outputs regenerated on every run; a
// differential sync writes them unconditionally.
var alwaysSynced = map[string]bool{
	".nojekyll":   true,
	"sitemap.xml": true,
	"rss.xml":     true,
	"index.html":  true,
}

// SyncVFS flushes targetDir from the VFS to disk and reports how many
// files were written and how many were skipped as byte-identical. With
// a non-nil dirty set only those paths, static assets and the
// always-synced globals are considered.
func SyncVFS(ctx context.Context, srcFs afero.Fs, targetDir string, dirty map[string]bool) (written, skipped int, err error) {
	root := filepath.Clean(targetDir)
	s := &diskSync{src: srcFs, dirs: make(map[string]bool)}

	pool := NewJobPool(ctx, 0, s.flush)

	walkErr := afero.Walk(srcFs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			// Empty directories are mirrored too.
			return os.MkdirAll(path, 0755)
		}
		if dirty != nil && !wantsSync(root, path, dirty) {
			return nil
		}
		pool.Send(path)
		return nil
	})
	pool.Wait()

	if walkErr != nil {
		return 0, 0, fmt.Errorf("scan output tree: %w", walkErr)
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if err := s.err(); err != nil {
		return 0, 0, err
	}
	return int(s.written.Load()), int(s.skipped.Load()), nil
}

// wantsSync decides whether a file participates in a differential
// sync: dirty paths, static assets and the global outputs do.
func wantsSync(root, path string, dirty map[string]bool) bool {
	normalized := filepath.ToSlash(path)
	if dirty[normalized] {
		return true
	}
	rel := strings.TrimPrefix(normalized, filepath.ToSlash(root)+"/")
	return alwaysSynced[rel] || strings.HasPrefix(rel, "static/")
}

// diskSync mirrors VFS files onto disk, skipping writes whose target
// already holds identical bytes so unchanged output never dirties
// mtimes.
type diskSync struct {
	src     afero.Fs
	written atomic.Int64
	skipped atomic.Int64

	errMu sync.Mutex
	first error

	dirMu sync.Mutex
	dirs  map[string]bool
}

func (s *diskSync) flush(path string) {
	want, err := afero.ReadFile(s.src, path)
	if err != nil {
		s.fail(err)
		return
	}
	if have, err := os.ReadFile(path); err == nil && bytes.Equal(want, have) {
		s.skipped.Add(1)
		return
	}

	if err := s.ensureDir(filepath.Dir(path)); err != nil {
		s.fail(err)
		return
	}
	if err := os.WriteFile(path, want, 0644); err != nil {
		s.fail(err)
		return
	}
	s.written.Add(1)
}

// ensureDir runs MkdirAll at most once per directory per sync.
func (s *diskSync) ensureDir(dir string) error {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	if s.dirs[dir] {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *diskSync) fail(err error) {
	s.errMu.Lock()
	if s.first == nil {
		s.first = err
	}
	s.errMu.Unlock()
}

func (s *diskSync) err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.first
}
