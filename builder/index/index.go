// Package index derives the ordered site-wide post index.
package index

import (
	"fmt"
	"maps"
	"slices"

	"faro/builder/models"
	"faro/builder/utils"
)

// Index is the ordered view of every visible post plus the term groupings
// the archive and related-content stages consume. Treat it as read-only
// once built.
type Index struct {
	Posts      []*models.Post // date descending, ties by slug ascending
	Pinned     []*models.Post
	ByCategory map[string][]*models.Post
	ByTag      map[string][]*models.Post
}

// Options control which posts become visible in the built index.
type Options struct {
	IncludeDrafts bool
	IncludeFuture bool
}

// Build validates and orders posts. A post that is part of the build but
// lacks a required front matter key aborts the whole run with a diagnostic
// naming the file and the key — a partial index must never reach publish.
// Excluded drafts are skipped before validation; they are not part of the
// build. Future-dated posts are validated and dropped unless requested.
func Build(posts []*models.Post, opts Options) (*Index, error) {
	idx := &Index{
		ByCategory: make(map[string][]*models.Post),
		ByTag:      make(map[string][]*models.Post),
	}

	for _, p := range posts {
		if p.Draft && !opts.IncludeDrafts {
			continue
		}
		if p.Title == "" {
			return nil, fmt.Errorf("%s: missing required front matter key %q", p.SourcePath, "title")
		}
		if p.Date.IsZero() {
			return nil, fmt.Errorf("%s: missing required front matter key %q", p.SourcePath, "date")
		}
		if p.Future && !opts.IncludeFuture {
			continue
		}
		idx.Posts = append(idx.Posts, p)
	}

	utils.SortPosts(idx.Posts)

	// Group in global order so every per-term list inherits it.
	for _, p := range idx.Posts {
		if p.Pinned {
			idx.Pinned = append(idx.Pinned, p)
		}
		for _, c := range p.Categories {
			idx.ByCategory[c] = append(idx.ByCategory[c], p)
		}
		for _, t := range p.Tags {
			idx.ByTag[t] = append(idx.ByTag[t], p)
		}
	}

	return idx, nil
}

// Categories returns the distinct category names in alphabetical order.
func (idx *Index) Categories() []string {
	return sortedKeys(idx.ByCategory)
}

// Tags returns the distinct tag names in alphabetical order.
func (idx *Index) Tags() []string {
	return sortedKeys(idx.ByTag)
}

func sortedKeys(m map[string][]*models.Post) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}
