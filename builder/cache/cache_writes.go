package cache

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

// BatchCommit writes a build's changed records and bumps the build
// counters in one transaction. Encoding happens before the transaction
// opens to keep the write lock short.
func (m *Manager) BatchCommit(posts []*PostMeta) error {
	ids := make([][]byte, len(posts))
	blobs := make([][]byte, len(posts))
	paths := make([][]byte, len(posts))
	for i, post := range posts {
		blob, err := Encode(post)
		if err != nil {
			return err
		}
		ids[i], blobs[i], paths[i] = []byte(post.PostID), blob, []byte(post.Path)
	}

	return m.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket([]byte(BucketPosts))
		index := tx.Bucket([]byte(BucketPaths))
		for i := range ids {
			if err := records.Put(ids[i], blobs[i]); err != nil {
				return err
			}
			if err := index.Put(paths[i], ids[i]); err != nil {
				return err
			}
		}

		sb := tx.Bucket([]byte(BucketStats))
		if err := bumpCounter(sb, KeyBuildCount); err != nil {
			return err
		}
		return bumpCounter(sb, KeyBuildsSinceGC)
	})
}

func bumpCounter(b *bolt.Bucket, key string) error {
	var n uint32
	if raw := b.Get([]byte(key)); raw != nil {
		n = binary.BigEndian.Uint32(raw)
	}
	return b.Put([]byte(key), binary.BigEndian.AppendUint32(nil, n+1))
}

// StoreHTML attaches the rendered body to the record: small
// bodies ride inline in bolt, large ones go content-addressed into
// the store.
func (m *Manager) StoreHTML(rec *PostMeta, content []byte) error {
	rec.InlineHTML, rec.HTMLHash = nil, ""
	if len(content) < InlineHTMLThreshold {
		rec.InlineHTML = content
		return nil
	}
	hash, _, err := m.store.Put(CategoryHTML, content)
	if err != nil {
		return err
	}
	rec.HTMLHash = hash
	return nil
}

// DeletePost removes a post record with its path and card mappings.
// Store blobs stay behind for the next GC sweep; dropping the card
// mapping is what lets that sweep reclaim the card image.
func (m *Manager) DeletePost(id string) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket([]byte(BucketPosts))
		key := []byte(id)

		if raw := records.Get(key); raw != nil {
			var rec PostMeta
			if Decode(raw, &rec) == nil {
				_ = tx.Bucket([]byte(BucketPaths)).Delete([]byte(rec.Path))
				_ = tx.Bucket([]byte(BucketSocialCard)).Delete([]byte(rec.Path))
			}
		}
		return records.Delete(key)
	})
}
