package utils

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"faro/builder/models"
)

// SortPosts orders posts newest first. Posts sharing a date fall back to
// slug order so the result is stable across builds.
func SortPosts(posts []*models.Post) {
	slices.SortFunc(posts, func(a, b *models.Post) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}

// SortedUnique returns a sorted copy of values with duplicates removed.
func SortedUnique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// NormalizeTerm canonicalizes a tag or category name for indexing.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TermSlug converts a term into its URL path segment.
func TermSlug(s string) string {
	return strings.ReplaceAll(NormalizeTerm(s), " ", "-")
}

// TitleCase renders a normalized term for display. Casers are not safe
// for concurrent use, so build a fresh one per call.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func MetaString(meta map[string]any, key string) string {
	// A key with no value parses as nil; treat it the same as absent.
	if v, ok := meta[key]; ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// MetaSlice reads a front-matter list value. A bare scalar is treated as a
// single-element list so `categories: go` works as well as a YAML sequence.
func MetaSlice(meta map[string]any, key string) []string {
	var out []string
	if v, ok := meta[key]; ok {
		switch val := v.(type) {
		case []any:
			for _, item := range val {
				out = append(out, fmt.Sprintf("%v", item))
			}
		case string:
			if val != "" {
				out = append(out, val)
			}
		}
	}
	return out
}

func MetaBool(meta map[string]any, key string) bool {
	b, _ := meta[key].(bool)
	return b
}
