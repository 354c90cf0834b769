package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"slices"
)

// fieldHasher feeds delimited fields into a digest so adjacent values
// can never collide by concatenation.
type fieldHasher struct{ h hash.Hash }

func (f fieldHasher) str(s string) {
	_, _ = io.WriteString(f.h, s)
	f.h.Write([]byte{0})
}

// list writes values in sorted order and closes the group, so an empty
// list still contributes to the digest.
func (f fieldHasher) list(values []string) {
	for _, v := range slices.Sorted(slices.Values(values)) {
		f.str(v)
	}
	f.h.Write([]byte{1})
}

func (f fieldHasher) flag(b bool) {
	if b {
		f.h.Write([]byte{1})
	} else {
		f.h.Write([]byte{0})
	}
}

// FrontmatterHash digests the front-matter fields that feed the
// social card and the cached metadata record. Field order is fixed so
// the hash is stable across builds.
func FrontmatterHash(meta map[string]any) (string, error) {
	f := fieldHasher{h: sha256.New()}
	for _, key := range []string{"title", "description", "date", "author", "image"} {
		f.str(MetaString(meta, key))
	}
	f.list(MetaSlice(meta, "tags"))
	f.list(MetaSlice(meta, "categories"))
	pinned, _ := meta["pinned"].(bool)
	f.flag(pinned)
	return hex.EncodeToString(f.h.Sum(nil)), nil
}
