// Package cache provides a BoltDB + content-addressed filesystem cache
// so unchanged posts skip parsing and rendering across builds.
package cache

import (
	"encoding/hex"
	"html/template"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"faro/builder/models"
	"faro/builder/utils"
)

// PostMeta is the cached record for one parsed post. It carries every
// field needed to reconstruct a models.Post without reparsing, plus the
// hashes that decide whether the cached copy is still valid.
type PostMeta struct {
	PostID      string `msgpack:"post_id"`
	Path        string `msgpack:"path"` // normalized content-relative path
	ModTime     int64  `msgpack:"mod_time"`
	ContentHash string `msgpack:"content_hash"`
	HTMLHash    string `msgpack:"html_hash,omitempty"`   // large posts, content-addressed
	InlineHTML  []byte `msgpack:"inline_html,omitempty"` // < 32KB posts stored inline

	Slug        string            `msgpack:"slug"`
	RelPath     string            `msgpack:"rel_path"`
	Link        string            `msgpack:"link"`
	Title       string            `msgpack:"title"`
	Description string            `msgpack:"description"`
	Excerpt     string            `msgpack:"excerpt"`
	Image       string            `msgpack:"image"`
	AuthorKey   string            `msgpack:"author_key"`
	Categories  []string          `msgpack:"categories"`
	Tags        []string          `msgpack:"tags"`
	Keywords    []string          `msgpack:"keywords"`
	Date        time.Time         `msgpack:"date"`
	LastMod     *time.Time        `msgpack:"last_mod,omitempty"`
	ReadingTime int               `msgpack:"reading_time"`
	WordCount   int               `msgpack:"word_count"`
	Draft       bool              `msgpack:"draft"`
	Pinned      bool              `msgpack:"pinned"`
	HasMath     bool              `msgpack:"has_math"`
	Plain       string            `msgpack:"plain"`
	TOC         []models.TOCEntry `msgpack:"toc"`
	Meta        map[string]any    `msgpack:"meta"`
	Version     string            `msgpack:"version"`
}

// FromPost captures the cacheable fields of a parsed post. The rendered
// body is stored separately via StoreHTML.
func FromPost(p *models.Post) *PostMeta {
	return &PostMeta{
		PostID:      PostIDFor(p.SourcePath),
		Path:        utils.NormalizePath(p.SourcePath),
		Slug:        p.Slug,
		RelPath:     p.RelPath,
		Link:        p.Link,
		Title:       p.Title,
		Description: p.Description,
		Excerpt:     p.Excerpt,
		Image:       p.Image,
		AuthorKey:   p.AuthorKey,
		Categories:  p.Categories,
		Tags:        p.Tags,
		Keywords:    p.Keywords,
		Date:        p.Date,
		LastMod:     p.LastMod,
		ReadingTime: p.ReadingTime,
		WordCount:   p.WordCount,
		Draft:       p.Draft,
		Pinned:      p.Pinned,
		HasMath:     p.HasMath,
		Plain:       p.Plain,
		TOC:         p.TOC,
		Meta:        p.Meta,
	}
}

// ToPost reconstructs a post from its cached record and rendered body.
// Future is recomputed rather than cached: it depends on the build
// time, and a record written before the publish date must not pin the
// post in the future forever.
func (pm *PostMeta) ToPost(body []byte) *models.Post {
	return &models.Post{
		Slug:        pm.Slug,
		SourcePath:  pm.Path,
		RelPath:     pm.RelPath,
		Link:        pm.Link,
		Title:       pm.Title,
		Description: pm.Description,
		Excerpt:     pm.Excerpt,
		Image:       pm.Image,
		AuthorKey:   pm.AuthorKey,
		Categories:  pm.Categories,
		Tags:        pm.Tags,
		Keywords:    pm.Keywords,
		Date:        pm.Date,
		LastMod:     pm.LastMod,
		ReadingTime: pm.ReadingTime,
		WordCount:   pm.WordCount,
		Draft:       pm.Draft,
		Pinned:      pm.Pinned,
		Future:      pm.Date.After(time.Now()),
		HasMath:     pm.HasMath,
		Body:        template.HTML(body),
		Plain:       pm.Plain,
		TOC:         pm.TOC,
		Meta:        pm.Meta,
	}
}

// CacheStats is the snapshot Stats assembles for the build summary. It
// lives only in memory; nothing persists it.
type CacheStats struct {
	TotalPosts    int
	InlinePosts   int
	HashedPosts   int
	StoreBytes    int64
	LastGC        int64
	BuildCount    int
	SchemaVersion int
}

// CompressionType says how a blob sits on disk.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionZstdFast
	CompressionZstdLevel3
)

const (
	// InlineHTMLThreshold: posts smaller than this are stored inline
	// in BoltDB instead of the content store.
	InlineHTMLThreshold = 32 * 1024

	// Blobs below RawThreshold skip compression outright; between the
	// two bounds the fast encoder wins, above FastZstdMax level 3 pays
	// for itself.
	RawThreshold = 8 * 1024
	FastZstdMax  = 128 * 1024

	SchemaVersion = 1
)

// HashBytes returns the hex form of the BLAKE3 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func HashString(s string) string {
	return HashBytes([]byte(s))
}

// PostIDFor derives the stable bucket key for a source path. Paths are
// normalized first so the same file maps to one record on any platform.
func PostIDFor(sourcePath string) string {
	return HashString(utils.NormalizePath(sourcePath))
}

// Encode and Decode fix msgpack as the record codec. Everything that
// lands in a bucket value goes through this pair.
func Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
