// Feed, sitemap and social card generation for the built site.
package generators

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"faro/builder/config"
	"faro/builder/models"
	"faro/builder/seo"
)

// feedLimit caps the number of items in the RSS feed.
const feedLimit = 20

// GenerateRSS writes the RSS 2.0 feed for the newest posts. Item
// descriptions reuse the SEO description so feed readers and meta tags
// show the same text.
func GenerateRSS(destFs afero.Fs, cfg *config.Config, posts []*models.Post, path string) error {
	if len(posts) > feedLimit {
		posts = posts[:feedLimit]
	}

	items := make([]models.RSSItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, models.RSSItem{
			Title:       p.Title,
			Link:        p.Link,
			Description: seo.Describe(p),
			Categories:  p.Tags,
			PubDate:     p.Date.Format(time.RFC1123),
			GUID:        p.Link,
		})
	}

	rss := models.RSS{
		Version: "2.0",
		Channel: models.RSSChannel{
			Title:         cfg.Title,
			Link:          cfg.BaseURL,
			Description:   cfg.Description,
			LastBuildDate: time.Now().Format(time.RFC1123),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rss: %w", err)
	}
	return afero.WriteFile(destFs, path, []byte(xml.Header+string(output)), 0644)
}
