package renderer

import (
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// templateCache keeps parsed templates across rebuilds so the dev server
// does not reparse the theme on every change event.
type templateCache struct {
	dir string

	mu        sync.RWMutex
	parsed    map[string]*template.Template
	stamps    map[string]time.Time
	lastCheck time.Time
	checkTTL  time.Duration // How often to re-stat template files
}

var (
	cachesMu sync.Mutex
	caches   = make(map[string]*templateCache)
)

// SetTemplateTTL adjusts how often the cache re-stats template files
// for a theme directory. Wired from the templateCheckTTL knob in
// faro.build.yaml.
func SetTemplateTTL(templateDir string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c := cacheFor(templateDir)
	c.mu.Lock()
	c.checkTTL = ttl
	c.mu.Unlock()
}

// InvalidateTemplates drops the freshness window for a theme directory
// so the next load re-stats every template file. The dev server calls
// it when a theme file changes; without it an edit inside the check TTL
// could serve a stale parse.
func InvalidateTemplates(templateDir string) {
	cachesMu.Lock()
	c, ok := caches[templateDir]
	cachesMu.Unlock()
	if !ok {
		return
	}
	c.mu.Lock()
	c.lastCheck = time.Time{}
	c.mu.Unlock()
}

// cacheFor returns the shared cache for a theme directory, creating it
// on first use. Caches are keyed by directory so themes can coexist.
func cacheFor(templateDir string) *templateCache {
	cachesMu.Lock()
	defer cachesMu.Unlock()
	c, ok := caches[templateDir]
	if !ok {
		c = &templateCache{
			dir:      templateDir,
			parsed:   make(map[string]*template.Template),
			stamps:   make(map[string]time.Time),
			checkTTL: 2 * time.Second,
		}
		caches[templateDir] = c
	}
	return c
}

// load returns the parsed template for name, reparsing when the file on
// disk is newer than the cached copy.
func (c *templateCache) load(name string, funcs template.FuncMap) (*template.Template, error) {
	c.mu.RLock()
	tmpl, ok := c.parsed[name]
	fresh := time.Since(c.lastCheck) < c.checkTTL
	c.mu.RUnlock()
	if ok && fresh {
		return tmpl, nil
	}

	path := filepath.Join(c.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCheck = time.Now()

	if tmpl, ok := c.parsed[name]; ok && !info.ModTime().After(c.stamps[name]) {
		return tmpl, nil
	}

	tmpl, err = template.New(name).Funcs(funcs).ParseFiles(path)
	if err != nil {
		return nil, err
	}
	c.parsed[name] = tmpl
	c.stamps[name] = info.ModTime()
	return tmpl, nil
}
