package run

import (
	"fmt"
	"path/filepath"

	"faro/builder/generators"
	"faro/builder/index"
	"faro/builder/models"
)

// render404 writes the not-found page, preferring the site's own
// content/404.md body over the bare theme default.
func (b *Builder) render404(has404 bool) error {
	data := b.sitePageData()
	data.Title = "Page Not Found"
	data.TabTitle = "404 | " + b.cfg.Title

	if has404 {
		post, err := b.store.Parse(filepath.Join(b.cfg.ContentDir, "404.md"))
		if err != nil {
			return fmt.Errorf("404 page: %w", err)
		}
		data.Content = post.Body
		data.Meta = post.Meta
		if post.Title != "" {
			data.Title = post.Title
			data.TabTitle = post.Title + " | " + b.cfg.Title
		}
	}

	b.rnd.Render404(filepath.Join(b.cfg.OutputDir, "404.html"), data)
	return nil
}

// generateFeeds writes the RSS feed and the sitemap when the config
// enables them. Both land in alwaysSync paths, so they reach disk even
// on differential syncs.
func (b *Builder) generateFeeds(idx *index.Index, allTags, allCategories []models.Term) error {
	gen := b.cfg.Features.Generators
	if gen.RSS {
		if err := generators.GenerateRSS(b.DestFs, b.cfg, idx.Posts, filepath.Join(b.cfg.OutputDir, "rss.xml")); err != nil {
			return fmt.Errorf("rss: %w", err)
		}
	}
	if gen.Sitemap {
		if err := generators.GenerateSitemap(b.DestFs, b.cfg, idx.Posts, allTags, allCategories, filepath.Join(b.cfg.OutputDir, "sitemap.xml")); err != nil {
			return fmt.Errorf("sitemap: %w", err)
		}
	}
	return nil
}
