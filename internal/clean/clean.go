// Package clean clears build outputs without making the user wait for
// the filesystem.
package clean

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"faro/builder/config"
)

// Run clears the output directory, and the build cache with -cache.
// Each target is renamed aside first so its name frees instantly; the
// actual deletion runs in the background.
func Run(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	cache := fs.Bool("cache", false, "Also drop the build cache")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := config.Load(fs.Args())

	start := time.Now()
	if err := removeAsync(cfg.OutputDir); err != nil {
		return err
	}
	if *cache {
		if err := removeAsync(cfg.CacheDir); err != nil {
			return err
		}
	}

	fmt.Printf("🧹 Clean started in %v, deletion continues in the background\n", time.Since(start))
	return nil
}

// removeAsync frees a directory name immediately and deletes the tree
// in the background. Trees left by interrupted runs are retried.
func removeAsync(dir string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	// An empty configured path resolves to the working directory.
	if dir == "" || dir == cwd || dir == filepath.Dir(dir) {
		return fmt.Errorf("refusing to remove %q", dir)
	}

	parent := filepath.Dir(dir)
	base := filepath.Base(dir)
	if stale, err := filepath.Glob(filepath.Join(parent, base+"_deleting_*")); err == nil {
		for _, path := range stale {
			deleteInBackground(path)
		}
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	tempPath := filepath.Join(parent, fmt.Sprintf("%s_deleting_%d", base, time.Now().UnixNano()))
	if err := os.Rename(dir, tempPath); err != nil {
		// Locked or cross-device: delete in place instead.
		return os.RemoveAll(dir)
	}
	deleteInBackground(tempPath)
	return nil
}

var pending sync.WaitGroup

func deleteInBackground(path string) {
	pending.Add(1)
	go func() {
		defer pending.Done()
		_ = os.RemoveAll(path)
	}()
}

// Wait blocks until background deletions finish. The CLI exits without
// calling it; the renames have already freed the names.
func Wait() {
	pending.Wait()
}
