package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// blobExts are the two encodings a blob may be stored under. Every
// lookup, delete and sweep walks this list so the pair never drifts.
var blobExts = []string{".raw", ".zst"}

// Store holds rendered bodies on disk, content-addressed and sharded two
// levels deep (ab/cd/abcd...) so no directory collects thousands of
// entries. The shared encoder runs at the fast level; the rare large
// blob gets its own default-level encoder in Put.
type Store struct {
	root string
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

func NewStore(root string) (*Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Store{root: root, enc: enc, dec: dec}, nil
}

func (s *Store) Close() error {
	_ = s.enc.Close()
	s.dec.Close()
	return nil
}

// blobPath shards by the first two hash byte pairs. Hashes too short to
// shard (tests use these) land flat in the category dir.
func (s *Store) blobPath(cat, hash, ext string) string {
	if len(hash) >= 4 {
		return filepath.Join(s.root, cat, hash[:2], hash[2:4], hash+ext)
	}
	return filepath.Join(s.root, cat, hash+ext)
}

// ext maps a compression tier to the on-disk file extension. Both zstd
// tiers decode the same way, so they share one.
func (c CompressionType) ext() string {
	if c == CompressionNone {
		return ".raw"
	}
	return ".zst"
}

// compressionFor picks a tier by size: tiny bodies stay raw, the
// common case gets fast zstd, big ones spend more CPU on ratio.
func compressionFor(size int) CompressionType {
	switch {
	case size < RawThreshold:
		return CompressionNone
	case size < FastZstdMax:
		return CompressionZstdFast
	}
	return CompressionZstdLevel3
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// trimBlobExt strips the store extension from a file name, reporting
// false for names that are not blobs (tmp files mid-write, strays).
func trimBlobExt(name string) (string, bool) {
	for _, ext := range blobExts {
		if hash, ok := strings.CutSuffix(name, ext); ok {
			return hash, true
		}
	}
	return "", false
}

// Put writes content under its own hash and reports how it was stored.
// A blob already present is never rewritten: equal hash, equal bytes.
func (s *Store) Put(cat string, content []byte) (string, CompressionType, error) {
	hash := HashBytes(content)
	mode := compressionFor(len(content))
	path := s.blobPath(cat, hash, mode.ext())

	if fileExists(path) {
		return hash, mode, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", 0, fmt.Errorf("create shard dir: %w", err)
	}

	data, err := s.compress(content, mode)
	if err != nil {
		return "", 0, err
	}
	if err := writeAtomic(path, data); err != nil {
		return "", 0, err
	}
	return hash, mode, nil
}

func (s *Store) compress(content []byte, mode CompressionType) ([]byte, error) {
	switch mode {
	case CompressionZstdFast:
		return s.enc.EncodeAll(content, nil), nil
	case CompressionZstdLevel3:
		deep, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer deep.Close()
		return deep.EncodeAll(content, nil), nil
	default:
		return content, nil
	}
}

// writeAtomic lands data via tmp file, fsync and rename, so a crashed
// build never leaves half-written bytes under a valid hash name.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}

	_, werr := f.Write(data)
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write blob: %w", werr)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

// Get loads a blob. The compressed hint picks which extension to try
// first; records written under an older config may disagree with it, so
// the other extension is the fallback.
func (s *Store) Get(cat, hash string, compressed bool) ([]byte, error) {
	order := [2]string{".zst", ".raw"}
	if !compressed {
		order[0], order[1] = order[1], order[0]
	}
	for _, ext := range order {
		data, err := os.ReadFile(s.blobPath(cat, hash, ext))
		if err != nil {
			continue
		}
		if ext == ".zst" {
			return s.dec.DecodeAll(data, nil)
		}
		return data, nil
	}
	return nil, fmt.Errorf("blob %s not in store", hash)
}

// Exists reports whether the blob is present in either encoding.
func (s *Store) Exists(cat, hash string) bool {
	for _, ext := range blobExts {
		if fileExists(s.blobPath(cat, hash, ext)) {
			return true
		}
	}
	return false
}

// Delete drops both encodings of a blob. Missing files are not errors.
func (s *Store) Delete(cat, hash string) error {
	for _, ext := range blobExts {
		_ = os.Remove(s.blobPath(cat, hash, ext))
	}
	return nil
}

// Hashes returns every hash stored under a category.
func (s *Store) Hashes(cat string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(filepath.Join(s.root, cat), func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if hash, ok := trimBlobExt(d.Name()); ok {
			out = append(out, hash)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return out, err
}

// Size sums the bytes a category occupies on disk.
func (s *Store) Size(cat string) (int64, error) {
	var sum int64
	err := filepath.WalkDir(filepath.Join(s.root, cat), func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sum += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return sum, err
}
