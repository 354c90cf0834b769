package cache

import (
	bolt "go.etcd.io/bbolt"

	"faro/builder/utils"
)

// decodeInto reads key from bucket and unmarshals it into dst. An absent
// bucket or key leaves dst untouched and reports false.
func decodeInto[T any](tx *bolt.Tx, bucket string, key []byte, dst *T) (bool, error) {
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return false, nil
	}
	data := b.Get(key)
	if data == nil {
		return false, nil
	}
	if err := Decode(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// PostByPath resolves source path -> post ID -> record in one read
// transaction. A nil result with nil error is a cache miss.
func (m *Manager) PostByPath(path string) (*PostMeta, error) {
	key := []byte(utils.NormalizePath(path))

	var meta *PostMeta
	err := m.db.View(func(tx *bolt.Tx) error {
		byPath := tx.Bucket([]byte(BucketPaths))
		if byPath == nil {
			return nil
		}
		id := byPath.Get(key)
		if id == nil {
			return nil
		}

		var pm PostMeta
		found, err := decodeInto(tx, BucketPosts, id, &pm)
		if found {
			meta = &pm
		}
		return err
	})
	return meta, err
}

// PostByID fetches one record by its stable post ID.
func (m *Manager) PostByID(postID string) (*PostMeta, error) {
	var meta *PostMeta
	err := m.db.View(func(tx *bolt.Tx) error {
		var pm PostMeta
		found, err := decodeInto(tx, BucketPosts, []byte(postID), &pm)
		if found {
			meta = &pm
		}
		return err
	})
	return meta, err
}

// HTMLContent returns the rendered body for a cached post, from the
// inline copy or the content store.
func (m *Manager) HTMLContent(rec *PostMeta) ([]byte, error) {
	switch {
	case len(rec.InlineHTML) > 0:
		return rec.InlineHTML, nil
	case rec.HTMLHash != "":
		return m.store.Get(CategoryHTML, rec.HTMLHash, true)
	default:
		return nil, nil
	}
}
