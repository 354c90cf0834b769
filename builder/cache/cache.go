package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Manager owns the cache: bbolt for per-post metadata, a content store
// for rendered bodies too big to inline.
type Manager struct {
	db    *bolt.DB
	store *Store
	root  string
}

// Open creates or reopens the cache rooted at dir.
func Open(dir string, isDev bool) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	opts := bolt.Options{
		// A stale lock from a crashed build must not wedge the next one.
		Timeout:      10 * time.Second,
		FreelistType: bolt.FreelistArrayType,
		// 16K pages and a 10MB initial map keep remaps rare at typical
		// site sizes.
		PageSize:        16 * 1024,
		InitialMmapSize: 10 << 20,
		// Dev rebuilds are frequent and disposable; skip grow syncs there.
		NoGrowSync: isDev,
	}
	db, err := bolt.Open(filepath.Join(dir, "meta.db"), 0644, &opts)
	if err != nil {
		return nil, fmt.Errorf("open meta.db: %w", err)
	}

	blobs, err := NewStore(filepath.Join(dir, "store"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	m := &Manager{db: db, store: blobs, root: dir}
	if err := m.ensureSchema(); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return m, nil
}

func (m *Manager) Close() error {
	var errs []error
	if m.store != nil {
		errs = append(errs, m.store.Close())
	}
	if m.db != nil {
		errs = append(errs, m.db.Close())
	}
	return errors.Join(errs...)
}

// ensureSchema makes sure every bucket exists and stamps the schema
// version on first open.
func (m *Manager) ensureSchema() error {
	return m.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range AllBuckets() {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("bucket %s: %w", bucket, err)
			}
		}

		mb := tx.Bucket([]byte(BucketMeta))
		if mb.Get([]byte(KeySchemaVersion)) != nil {
			return nil
		}
		v := binary.BigEndian.AppendUint32(nil, SchemaVersion)
		return mb.Put([]byte(KeySchemaVersion), v)
	})
}

// metaGet reads one key from the meta bucket, copying the value out of
// the transaction's mmap.
func (m *Manager) metaGet(key string) ([]byte, error) {
	var out []byte
	err := m.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(BucketMeta)).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (m *Manager) metaPut(key string, value []byte) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketMeta)).Put([]byte(key), value)
	})
}

// VerifyCacheID compares the stored cache ID against the expected one
// (a hash of config, templates and binary version). A mismatch means
// every cached record is stale and the caller must rebuild from scratch.
func (m *Manager) VerifyCacheID(want string) (bool, error) {
	stored, err := m.metaGet(KeyCacheID)
	if err != nil {
		return false, err
	}
	return stored == nil || string(stored) != want, nil
}

// SetCacheID records the current build fingerprint.
func (m *Manager) SetCacheID(id string) error {
	return m.metaPut(KeyCacheID, []byte(id))
}

// Reset drops every post record while keeping the database file. Used
// when the cache ID no longer matches.
func (m *Manager) Reset() error {
	return m.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketPosts, BucketPaths, BucketSocialCard} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SocialCardDir returns the flat directory holding rendered card
// images. Cards are webp, already compressed, so they bypass the store.
func (m *Manager) SocialCardDir() string {
	return filepath.Join(m.root, "social-cards")
}

// SocialCardPath returns where the card drawn from the given
// frontmatter hash lives on disk.
func (m *Manager) SocialCardPath(hash string) string {
	return filepath.Join(m.SocialCardDir(), hash+".webp")
}

// Store exposes the blob store for tooling and tests.
func (m *Manager) Store() *Store {
	return m.store
}
