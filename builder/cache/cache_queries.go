package cache

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"faro/builder/utils"
)

// getString reads one value out of a bucket; a missing key reads as "".
func (m *Manager) getString(bucket, key string) (string, error) {
	var out string
	err := m.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket([]byte(bucket)).Get([]byte(key)); raw != nil {
			out = string(raw)
		}
		return nil
	})
	return out, err
}

func (m *Manager) putString(bucket, key, value string) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), []byte(value))
	})
}

// ListAllPosts returns every post ID in the metadata bucket.
func (m *Manager) ListAllPosts() ([]string, error) {
	var out []string
	err := m.db.View(func(tx *bolt.Tx) error {
		pb := tx.Bucket([]byte(BucketPosts))
		out = make([]string, 0, pb.Stats().KeyN)
		return pb.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

// Stats summarizes what the cache holds: record counts split by body
// placement, build counters, and the on-disk footprint.
func (m *Manager) Stats() (*CacheStats, error) {
	s := &CacheStats{SchemaVersion: SchemaVersion}

	err := m.db.View(func(tx *bolt.Tx) error {
		counters := tx.Bucket([]byte(BucketStats))
		if raw := counters.Get([]byte(KeyBuildCount)); raw != nil {
			s.BuildCount = int(binary.BigEndian.Uint32(raw))
		}
		if raw := counters.Get([]byte(KeyLastGC)); raw != nil {
			s.LastGC = int64(binary.BigEndian.Uint64(raw))
		}

		pb := tx.Bucket([]byte(BucketPosts))
		s.TotalPosts = pb.Stats().KeyN
		return pb.ForEach(func(_, v []byte) error {
			var rec PostMeta
			if Decode(v, &rec) != nil {
				return nil // unreadable record; the GC sweep reports those
			}
			switch {
			case len(rec.InlineHTML) > 0:
				s.InlinePosts++
			case rec.HTMLHash != "":
				s.HashedPosts++
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	htmlSize, _ := m.store.Size(CategoryHTML)
	s.StoreBytes = htmlSize + dirSize(m.SocialCardDir())
	return s, nil
}

// SocialCardHash retrieves the front matter hash a card was last
// drawn from; empty means the card was never generated.
func (m *Manager) SocialCardHash(path string) (string, error) {
	return m.getString(BucketSocialCard, utils.NormalizePath(path))
}

// SetSocialCardHash records which front matter the card for path was
// drawn from.
func (m *Manager) SetSocialCardHash(path, hash string) error {
	return m.putString(BucketSocialCard, utils.NormalizePath(path), hash)
}
