// Package seo derives per-post head metadata: meta description, keywords
// and schema.org JSON-LD. Every derivation is deterministic — the same
// post and config always produce byte-identical output.
package seo

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"faro/builder/config"
	"faro/builder/models"
)

// maxDescription caps the meta description length in runes.
const maxDescription = 155

// Build derives the complete head metadata for one post. An unknown author
// reference is a configuration error and aborts the build.
func Build(post *models.Post, cfg *config.Config) (*models.SEOData, error) {
	ld, err := StructuredData(post, cfg)
	if err != nil {
		return nil, err
	}
	return &models.SEOData{
		Description: Describe(post),
		Keywords:    strings.Join(Keywords(post, cfg), ", "),
		JSONLD:      template.JS(ld),
	}, nil
}

// Describe returns the meta description: the explicit front matter value,
// else the excerpt, else the body text, the latter two truncated at a word
// boundary with an ellipsis.
func Describe(post *models.Post) string {
	if post.Description != "" {
		return post.Description
	}
	if post.Excerpt != "" {
		return truncate(post.Excerpt, maxDescription)
	}
	return truncate(strings.Join(strings.Fields(post.Plain), " "), maxDescription)
}

// Keywords returns the keyword list: the explicit front matter value, else
// tags + categories + the configured defaults. Duplicates are removed
// case-insensitively, first-seen order and casing win.
func Keywords(post *models.Post, cfg *config.Config) []string {
	if len(post.Keywords) > 0 {
		return dedup(post.Keywords)
	}
	merged := make([]string, 0, len(post.Tags)+len(post.Categories)+len(cfg.SEO.DefaultKeywords))
	merged = append(merged, post.Tags...)
	merged = append(merged, post.Categories...)
	merged = append(merged, cfg.SEO.DefaultKeywords...)
	return dedup(merged)
}

type ldAuthor struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Field order here is the output order; structs keep json.Marshal
// deterministic where a map would not be.
type ldBlogPosting struct {
	Context       string   `json:"@context"`
	Type          string   `json:"@type"`
	Headline      string   `json:"headline"`
	DatePublished string   `json:"datePublished"`
	DateModified  string   `json:"dateModified"`
	Author        ldAuthor `json:"author"`
	MainEntity    string   `json:"mainEntityOfPage,omitempty"`
	Image         string   `json:"image,omitempty"`
	WordCount     int      `json:"wordCount"`
	Keywords      string   `json:"keywords,omitempty"`
}

// StructuredData returns the schema.org BlogPosting JSON-LD document for
// the post.
func StructuredData(post *models.Post, cfg *config.Config) (string, error) {
	author := ldAuthor{Type: "Person", Name: cfg.Author.Name, URL: cfg.Author.URL}
	if post.AuthorKey != "" {
		a, ok := cfg.AuthorByKey(post.AuthorKey)
		if !ok {
			return "", fmt.Errorf("%s: unknown author %q", post.SourcePath, post.AuthorKey)
		}
		author = ldAuthor{Type: "Person", Name: a.Name, URL: a.URL}
	}

	modified := post.Date
	if post.LastMod != nil {
		modified = *post.LastMod
	}

	image := post.Image
	if strings.HasPrefix(image, "/") && cfg.BaseURL != "" {
		image = cfg.BaseURL + image
	}

	doc := ldBlogPosting{
		Context:       "https://schema.org",
		Type:          "BlogPosting",
		Headline:      post.Title,
		DatePublished: post.Date.UTC().Format(time.RFC3339),
		DateModified:  modified.UTC().Format(time.RFC3339),
		Author:        author,
		MainEntity:    post.Link,
		Image:         image,
		WordCount:     post.WordCount,
		Keywords:      strings.Join(Keywords(post, cfg), ", "),
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling JSON-LD for %s: %w", post.SourcePath, err)
	}
	return string(b), nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := string([]rune(s)[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
