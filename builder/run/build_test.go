package run

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"faro/builder/config"
	"faro/builder/testutil"
)

const siteLayout = `<!DOCTYPE html>
<html>
<head><title>{{.TabTitle}}</title></head>
<body>
{{if .IsIndex}}{{range .PinnedPosts}}<b>{{.Title}}</b>{{end}}{{end}}
{{range .Posts}}<article><a href="{{.Link}}">{{.Title}}</a></article>{{end}}
<main>{{.Content}}</main>
{{if .Paginator}}<nav>page {{.Paginator.CurrentPage}} of {{.Paginator.TotalPages}}</nav>{{end}}
{{range .AllTags}}<span>{{.Name}} ({{.Count}})</span>{{end}}
</body>
</html>`

const alphaSource = `---
title: Alpha
date: 2026-01-01
tags: [go]
---
Alpha body text.
`

const betaSource = `---
title: Beta
date: 2026-01-02
tags: [go]
---
Beta body text.
`

func writeSiteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// setupSite lays out a minimal site in a temp directory: a theme with
// one layout and one stylesheet, plus the given content files keyed by
// path relative to the content dir.
func setupSite(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := testutil.SampleConfig()
	cfg.ContentDir = filepath.Join(root, "content")
	cfg.OutputDir = filepath.Join(root, "public")
	cfg.CacheDir = filepath.Join(root, ".faro-cache")
	cfg.ThemeDir = filepath.Join(root, "themes")
	cfg.TemplateDir = filepath.Join(root, "themes", "default", "templates")
	cfg.StaticDir = filepath.Join(root, "themes", "default", "static")
	cfg.ArchiveThreshold = cfg.PostsPerPage
	cfg.ImageWorkers = 4

	writeSiteFile(t, filepath.Join(cfg.TemplateDir, "layout.html"), siteLayout)
	writeSiteFile(t, filepath.Join(cfg.StaticDir, "css", "main.css"), "body{margin:0}")
	for rel, content := range files {
		writeSiteFile(t, filepath.Join(cfg.ContentDir, rel), content)
	}
	return cfg
}

func newTestBuilder(t *testing.T, cfg *config.Config) *Builder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func readOutput(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func outputExists(cfg *config.Config, rel string) bool {
	_, err := os.Stat(filepath.Join(cfg.OutputDir, rel))
	return err == nil
}

func TestBuild_WritesSite(t *testing.T) {
	cfg := setupSite(t, map[string]string{
		"posts/alpha.md": alphaSource,
		"posts/beta.md":  betaSource,
	})
	b := newTestBuilder(t, cfg)

	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	home := readOutput(t, cfg, "index.html")
	for _, title := range []string{"Alpha", "Beta"} {
		if !strings.Contains(home, title) {
			t.Errorf("home page missing post %q", title)
		}
	}

	alpha := readOutput(t, cfg, filepath.Join("posts", "alpha.html"))
	if !strings.Contains(alpha, "Alpha body text.") {
		t.Errorf("post page missing body: %q", alpha)
	}

	for _, rel := range []string{
		filepath.Join("tags", "index.html"),
		filepath.Join("tags", "go", "index.html"),
		filepath.Join("categories", "index.html"),
		"404.html",
		"rss.xml",
		"sitemap.xml",
		".nojekyll",
	} {
		if !outputExists(cfg, rel) {
			t.Errorf("expected output file %s", rel)
		}
	}

	m := b.Metrics()
	if got := m.PostsProcessed.Load(); got != 2 {
		t.Errorf("PostsProcessed = %d, want 2", got)
	}
	if m.PagesRendered.Load() == 0 {
		t.Error("PagesRendered = 0, want > 0")
	}
	if m.FilesWritten.Load() == 0 {
		t.Error("FilesWritten = 0, want > 0")
	}
}

func TestBuild_SecondBuilderReusesCache(t *testing.T) {
	cfg := setupSite(t, map[string]string{
		"posts/alpha.md": alphaSource,
		"posts/beta.md":  betaSource,
	})

	first := newTestBuilder(t, cfg)
	if err := first.Build(context.Background()); err != nil {
		t.Fatalf("first Build() error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	second := newTestBuilder(t, cfg)
	if err := second.Build(context.Background()); err != nil {
		t.Fatalf("second Build() error: %v", err)
	}

	m := second.Metrics()
	if got := m.CacheHits.Load(); got != 2 {
		t.Errorf("CacheHits = %d, want 2", got)
	}
	if got := m.CacheMisses.Load(); got != 0 {
		t.Errorf("CacheMisses = %d, want 0", got)
	}
	// Page bytes did not change, so the sync skips them.
	if m.FilesSkipped.Load() == 0 {
		t.Error("FilesSkipped = 0, want > 0")
	}
}

func TestBuild_FingerprintChangeForcesRebuild(t *testing.T) {
	cfg := setupSite(t, map[string]string{"posts/alpha.md": alphaSource})

	first := newTestBuilder(t, cfg)
	if err := first.Build(context.Background()); err != nil {
		t.Fatalf("first Build() error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	cfg.BaseURL = "https://moved.example.org"
	second := newTestBuilder(t, cfg)
	if err := second.Build(context.Background()); err != nil {
		t.Fatalf("second Build() error: %v", err)
	}

	m := second.Metrics()
	if got := m.CacheMisses.Load(); got != 1 {
		t.Errorf("CacheMisses = %d, want 1 after fingerprint change", got)
	}
	if got := m.CacheHits.Load(); got != 0 {
		t.Errorf("CacheHits = %d, want 0 after fingerprint change", got)
	}

	home := readOutput(t, cfg, "index.html")
	if !strings.Contains(home, "https://moved.example.org") {
		t.Error("home page links not rebuilt against the new base URL")
	}
}

func TestBuild_MissingTitleAborts(t *testing.T) {
	cfg := setupSite(t, map[string]string{
		"posts/untitled.md": "---\ndate: 2026-01-01\n---\nNo title here.\n",
	})
	b := newTestBuilder(t, cfg)

	err := b.Build(context.Background())
	if err == nil {
		t.Fatal("Build() succeeded, want missing-title error")
	}
	if !strings.Contains(err.Error(), "missing required front matter key") {
		t.Errorf("error = %v, want missing front matter key", err)
	}
	if outputExists(cfg, "index.html") {
		t.Error("home page written despite aborted build")
	}
}

func TestBuild_Custom404(t *testing.T) {
	cfg := setupSite(t, map[string]string{
		"posts/alpha.md": alphaSource,
		"404.md":         "---\ntitle: Lost\n---\nNothing here, sorry.\n",
	})
	b := newTestBuilder(t, cfg)

	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	page := readOutput(t, cfg, "404.html")
	if !strings.Contains(page, "Nothing here, sorry.") {
		t.Errorf("404 page missing custom body: %q", page)
	}
	if !strings.Contains(page, "Lost") {
		t.Errorf("404 page missing custom title: %q", page)
	}
	home := readOutput(t, cfg, "index.html")
	if strings.Contains(home, "Lost") {
		t.Error("404.md leaked into the post listing")
	}
}

func TestBuild_FeedsDisabled(t *testing.T) {
	cfg := setupSite(t, map[string]string{"posts/alpha.md": alphaSource})
	cfg.Features.Generators.RSS = false
	cfg.Features.Generators.Sitemap = false
	b := newTestBuilder(t, cfg)

	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if outputExists(cfg, "rss.xml") {
		t.Error("rss.xml written with RSS disabled")
	}
	if outputExists(cfg, "sitemap.xml") {
		t.Error("sitemap.xml written with sitemap disabled")
	}
}

func TestBuild_PaginatesListsAndArchives(t *testing.T) {
	files := map[string]string{
		"posts/alpha.md": alphaSource,
		"posts/beta.md":  betaSource,
		"posts/gamma.md": "---\ntitle: Gamma\ndate: 2026-01-03\ntags: [go]\n---\nGamma body.\n",
	}
	cfg := setupSite(t, files)
	cfg.PostsPerPage = 2
	cfg.ArchiveThreshold = 2
	b := newTestBuilder(t, cfg)

	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	for _, rel := range []string{
		"index.html",
		filepath.Join("page", "2", "index.html"),
		filepath.Join("tags", "go", "index.html"),
		filepath.Join("tags", "go", "page", "2", "index.html"),
	} {
		if !outputExists(cfg, rel) {
			t.Errorf("expected paginated output %s", rel)
		}
	}

	second := readOutput(t, cfg, filepath.Join("page", "2", "index.html"))
	if !strings.Contains(second, "page 2 of 2") {
		t.Errorf("second list page missing paginator: %q", second)
	}
	// Three posts, two per page: the oldest lands on page two.
	if !strings.Contains(second, "Alpha") {
		t.Errorf("second list page missing oldest post: %q", second)
	}
}

func TestBuild_PinnedOnFirstPageOnly(t *testing.T) {
	files := map[string]string{
		"posts/alpha.md":  alphaSource,
		"posts/beta.md":   betaSource,
		"posts/pinned.md": "---\ntitle: Evergreen\ndate: 2025-06-01\ntags: [go]\npinned: true\n---\nAlways first.\n",
	}
	cfg := setupSite(t, files)
	cfg.PostsPerPage = 1
	b := newTestBuilder(t, cfg)

	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	home := readOutput(t, cfg, "index.html")
	if !strings.Contains(home, "<b>Evergreen</b>") {
		t.Errorf("home page missing pinned post: %q", home)
	}
	second := readOutput(t, cfg, filepath.Join("page", "2", "index.html"))
	if strings.Contains(second, "<b>Evergreen</b>") {
		t.Error("pinned post repeated past the first page")
	}
}

func TestCacheFingerprint_TracksRenderInputs(t *testing.T) {
	cfg := setupSite(t, nil)
	base := cacheFingerprint(cfg)

	changed := *cfg
	changed.BaseURL = "https://elsewhere.example.com"
	if cacheFingerprint(&changed) == base {
		t.Error("fingerprint unchanged after BaseURL change")
	}

	changed = *cfg
	changed.CompressImages = !cfg.CompressImages
	if cacheFingerprint(&changed) == base {
		t.Error("fingerprint unchanged after CompressImages change")
	}

	if cacheFingerprint(cfg) != base {
		t.Error("fingerprint not stable for identical config")
	}
}
