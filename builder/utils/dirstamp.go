package utils

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// DirStamp fingerprints a directory tree from file names, sizes and
// mtimes without reading contents. Good enough to notice a swapped font
// or theme asset between builds; a missing directory stamps as empty.
func DirStamp(dir string) (string, error) {
	h := blake3.New()
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", path, info.Size(), info.ModTime().UnixNano())
		return nil
	}
	if err := filepath.WalkDir(dir, walk); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("stamp %s: %w", dir, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
