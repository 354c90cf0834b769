// Package testutil provides shared fixtures and helpers for tests.
package testutil

import (
	"html/template"
	"time"

	"faro/builder/cache"
	"faro/builder/config"
	"faro/builder/models"
)

// SamplePostMeta returns a valid cache record the way a build would
// have written it for posts/test-post.md.
func SamplePostMeta() *cache.PostMeta {
	path := "posts/test-post.md"
	return &cache.PostMeta{
		PostID:      cache.PostIDFor(path),
		Path:        path,
		ModTime:     time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC).Unix(),
		ContentHash: cache.HashBytes([]byte("sample source")),
		Slug:        "test-post",
		RelPath:     "posts/test-post.html",
		Link:        "https://example.com/posts/test-post.html",
		Title:       "Signals in the Fog",
		Description: "Reading harbor weather from shore signals",
		Date:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"signals", "harbor", "notes"},
		Categories:  []string{"field-notes"},
		ReadingTime: 2,
		WordCount:   420,
		Plain:       "sample body text",
		Meta:        map[string]any{"title": "Signals in the Fog"},
	}
}

// SamplePost returns a parsed post equivalent to the sample record.
func SamplePost() *models.Post {
	return &models.Post{
		Slug:        "test-post",
		SourcePath:  "posts/test-post.md",
		RelPath:     "posts/test-post.html",
		Link:        "https://example.com/posts/test-post.html",
		Title:       "Signals in the Fog",
		Description: "Reading harbor weather from shore signals",
		Date:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"signals", "harbor", "notes"},
		Categories:  []string{"field-notes"},
		ReadingTime: 2,
		WordCount:   420,
		Body:        template.HTML("<p>sample body text</p>"),
		Plain:       "sample body text",
		Meta:        map[string]any{"title": "Signals in the Fog"},
	}
}

// SamplePageData returns valid template context for renderer tests.
func SamplePageData() models.PageData {
	return models.PageData{
		Title:       "Harbor Notes",
		Description: "Notes from the harbor office",
		BaseURL:     "https://example.com",
		Content:     template.HTML("<p>The lamp turns twice a minute.</p>"),
		Meta: map[string]any{
			"title":       "Harbor Notes",
			"description": "Notes from the harbor office",
		},
	}
}

// SampleConfig returns a config with in-memory friendly absolute paths.
// Tests that touch the real disk override CacheDir.
func SampleConfig() *config.Config {
	return &config.Config{
		Title:            "Harbor Notes",
		Description:      "Notes from the harbor office",
		BaseURL:          "https://example.com",
		Language:         "en",
		PostsPerPage:     10,
		RelatedMax:       4,
		RelatedMinShared: 1,
		Theme:            "default",
		Author:           config.AuthorConfig{Name: "Maya Lee", URL: "https://maya.example.net"},
		ContentDir:       "/content",
		OutputDir:        "/public",
		CacheDir:         "/cache",
		ThemeDir:         "/themes",
		TemplateDir:      "/themes/default/templates",
		StaticDir:        "/themes/default/static",
		Features: config.FeaturesConfig{
			Generators: config.GeneratorsConfig{
				Sitemap: true,
				RSS:     true,
			},
		},
	}
}
