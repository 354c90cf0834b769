package run

import (
	"path/filepath"

	"faro/builder/models"
	"faro/builder/paginate"
	"faro/builder/utils"
)

// renderTermIndex writes the page listing every term of one kind, at
// tags/index.html or categories/index.html. The archive template tells
// it apart from a term's own listing by the empty Term field.
func (b *Builder) renderTermIndex(kind, title string, allTags, allCategories []models.Term) {
	data := b.sitePageData()
	data.Title = title
	data.TabTitle = title + " | " + b.cfg.Title
	data.Permalink = b.cfg.BaseURL + "/" + kind + "/"
	data.AllTags = allTags
	data.AllCategories = allCategories
	b.rnd.RenderArchive(filepath.Join(b.cfg.OutputDir, kind, "index.html"), data)
}

// renderArchivePages writes every page of every term archive in the
// set. Each page carries the full term lists so templates can show the
// term cloud alongside the posts.
func (b *Builder) renderArchivePages(archives []paginate.Archive, allTags, allCategories []models.Term) {
	for _, a := range archives {
		for _, page := range a.Set.Pages {
			data := b.sitePageData()
			data.Title = a.Term.Name
			data.Term = a.Term.Name
			data.TabTitle = utils.TitleCase(a.Term.Name) + " | " + b.cfg.Title
			data.Posts = page.Posts
			data.Paginator = a.Set.Paginator(page.Number)
			data.Permalink = a.Set.URL(page.Number)
			data.AllTags = allTags
			data.AllCategories = allCategories
			b.rnd.RenderArchive(filepath.Join(b.cfg.OutputDir, a.Set.DestPath(page.Number)), data)
		}
	}
}
