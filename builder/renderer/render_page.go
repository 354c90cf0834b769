package renderer

import (
	"html/template"
	"io"
	"path/filepath"

	"faro/builder/models"
	"faro/builder/utils"
)

// RenderPost writes a single post page.
func (r *Renderer) RenderPost(path string, data models.PageData) {
	data.Kind = "post"
	r.write(path, r.post, data)
}

// RenderList writes one page of the chronological post listing.
func (r *Renderer) RenderList(path string, data models.PageData) {
	data.Kind = "list"
	r.write(path, r.list, data)
}

// RenderArchive writes one page of a tag or category archive.
func (r *Renderer) RenderArchive(path string, data models.PageData) {
	data.Kind = "archive"
	r.write(path, r.archive, data)
}

// RenderIndex writes the home page.
func (r *Renderer) RenderIndex(path string, data models.PageData) {
	data.Kind = "index"
	data.IsIndex = true
	r.write(path, r.index, data)
}

// Render404 writes the not-found page.
func (r *Renderer) Render404(path string, data models.PageData) {
	data.Kind = "404"
	r.write(path, r.notFound, data)
}

// write renders data through tmpl, falling back to the layout when the
// kind has no dedicated template. Output flows bufio, minifier, file.
func (r *Renderer) write(path string, tmpl *template.Template, data models.PageData) {
	if tmpl == nil {
		tmpl = r.layout
	}
	data.Assets = r.Assets()

	if err := r.Out.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.log.Error("Page dir create failed", "path", path, "error", err)
		return
	}

	file, err := r.Out.Create(path)
	if err != nil {
		r.log.Error("Page create failed", "path", path, "error", err)
		return
	}
	defer func() { _ = file.Close() }()

	buf := utils.GetWriter(file)
	defer func() {
		_ = buf.Flush()
		utils.PutWriter(buf)
	}()

	var sink io.Writer = buf

	if r.Minify {
		minw := utils.MinifyWriter("text/html", buf)
		defer func() { _ = minw.Close() }()
		sink = minw
	}

	if err := tmpl.Execute(sink, data); err != nil {
		r.log.Error("Template execute failed", "path", path, "kind", data.Kind, "error", err)
		return
	}
	r.RegisterFile(path)
}
