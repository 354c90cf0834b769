// Handles theme template loading and page writes.
package renderer

import (
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"faro/builder/utils"
)

// Renderer executes theme templates into the destination filesystem.
// layout.html is the only required template; kinds without a dedicated
// template fall back to it.
type Renderer struct {
	layout   *template.Template
	post     *template.Template
	list     *template.Template
	archive  *template.Template
	index    *template.Template
	notFound *template.Template

	Minify bool
	Out    afero.Fs

	log *slog.Logger

	mu       sync.RWMutex
	assets   map[string]string
	rendered map[string]bool
}

func newFuncMap() template.FuncMap {
	return template.FuncMap{
		"lower":      strings.ToLower,
		"title":      utils.TitleCase,
		"termSlug":   utils.TermSlug,
		"hasPrefix":  strings.HasPrefix,
		"now":        time.Now,
		"dateFormat": time.Time.Format,
	}
}

// New loads the theme's templates from templateDir. A missing or broken
// layout.html is an error; the per-kind templates are optional.
func New(minify bool, out afero.Fs, templateDir string, logger *slog.Logger) (*Renderer, error) {
	funcs := newFuncMap()
	cache := cacheFor(templateDir)

	layout, err := cache.load("layout.html", funcs)
	if err != nil {
		return nil, fmt.Errorf("load layout.html: %w", err)
	}

	optional := func(name string) *template.Template {
		tmpl, err := cache.load(name, funcs)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Template failed to parse, falling back to layout", "template", name, "error", err)
			}
			return nil
		}
		return tmpl
	}

	return &Renderer{
		layout:   layout,
		post:     optional("post.html"),
		list:     optional("list.html"),
		archive:  optional("archive.html"),
		index:    optional("index.html"),
		notFound: optional("404.html"),
		Minify:   minify,
		Out:      out,
		log:      logger,
		rendered: make(map[string]bool),
	}, nil
}

// SetAssets installs the fingerprinted asset map templates resolve
// stylesheet and script URLs through.
func (r *Renderer) SetAssets(m map[string]string) {
	r.mu.Lock()
	r.assets = m
	r.mu.Unlock()
}

func (r *Renderer) Assets() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assets
}

// RegisterFile records an output path written during this build. The
// sync step uses the set to drop files no longer produced.
func (r *Renderer) RegisterFile(path string) {
	r.mu.Lock()
	r.rendered[filepath.ToSlash(path)] = true
	r.mu.Unlock()
}

// RenderedFiles returns a copy of the paths written so far.
func (r *Renderer) RenderedFiles() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.rendered)
}

// ClearRenderedFiles resets the registry before a rebuild.
func (r *Renderer) ClearRenderedFiles() {
	r.mu.Lock()
	r.rendered = make(map[string]bool)
	r.mu.Unlock()
}
