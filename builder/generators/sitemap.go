package generators

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"faro/builder/config"
	"faro/builder/models"
)

// GenerateSitemap writes sitemap.xml covering the home page, every post
// and every tag and category archive. Posts carry their publish date
// (last modification when set) as lastmod.
func GenerateSitemap(destFs afero.Fs, cfg *config.Config, posts []*models.Post, tags, categories []models.Term, path string) error {
	urls := make([]models.SitemapURL, 0, len(posts)+len(tags)+len(categories)+1)

	urls = append(urls, models.SitemapURL{
		Loc:     cfg.BaseURL + "/",
		LastMod: time.Now().Format("2006-01-02"),
	})

	for _, p := range posts {
		mod := p.Date
		if p.LastMod != nil {
			mod = *p.LastMod
		}
		urls = append(urls, models.SitemapURL{Loc: p.Link, LastMod: mod.Format("2006-01-02")})
	}

	for _, t := range tags {
		urls = append(urls, models.SitemapURL{Loc: t.Link})
	}
	for _, c := range categories {
		urls = append(urls, models.SitemapURL{Loc: c.Link})
	}

	output, err := xml.MarshalIndent(models.URLSet{URLs: urls}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sitemap: %w", err)
	}
	return afero.WriteFile(destFs, path, []byte(xml.Header+string(output)), 0644)
}
