package run

import (
	"fmt"
	"path/filepath"
	"strings"

	"faro/builder/index"
	"faro/builder/models"
	"faro/builder/paginate"
)

// listPageSet paginates the home listing. The anchor drops readers at
// the post list rather than the page top when they move between pages.
func (b *Builder) listPageSet(posts []*models.Post) *paginate.PageSet {
	return paginate.NewPageSet(b.cfg.BaseURL, "", "#latest", posts, b.cfg.PostsPerPage)
}

// renderListPages writes the home page and the chronological listing
// pages behind it. Pinned posts appear on the first page only; later
// pages go through the list template.
func (b *Builder) renderListPages(idx *index.Index) {
	cfg := b.cfg
	set := b.listPageSet(idx.Posts)

	for _, page := range set.Pages {
		data := b.sitePageData()
		data.Title = cfg.Title
		data.TabTitle = cfg.Title
		data.Description = cfg.Description
		data.Posts = page.Posts
		data.Paginator = set.Paginator(page.Number)
		data.Permalink = set.URL(page.Number)

		dest := filepath.Join(cfg.OutputDir, set.DestPath(page.Number))
		if page.Number == 1 {
			data.PinnedPosts = idx.Pinned
			b.rnd.RenderIndex(dest, data)
			continue
		}
		data.TabTitle = fmt.Sprintf("Page %d | %s", page.Number, cfg.Title)
		b.rnd.RenderList(dest, data)
	}
}

// sitePageData returns the fields shared by every page that is not a
// post: list pages, archives and the 404 page.
func (b *Builder) sitePageData() models.PageData {
	return models.PageData{
		BaseURL:      b.cfg.BaseURL,
		BuildVersion: b.cfg.BuildVersion,
		Config:       b.cfg,
		Image:        b.siteImage(),
	}
}

// siteImage is the social preview for non-post pages: the configured
// logo, or nothing.
func (b *Builder) siteImage() string {
	if b.cfg.Logo == "" {
		return ""
	}
	return b.cfg.BaseURL + "/" + strings.TrimPrefix(b.cfg.Logo, "/")
}
