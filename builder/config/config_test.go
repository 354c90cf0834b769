package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"faro/builder/models"
)

// inSiteDir runs the test from an empty temp directory so Load never
// picks up a real faro.yaml.
func inSiteDir(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func writeSiteYAML(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	inSiteDir(t)

	cfg := Load(nil)

	for _, tc := range []struct {
		field string
		got   any
		want  any
	}{
		{"Title", cfg.Title, "Faro Blog"},
		{"Theme", cfg.Theme, "default"},
		{"PostsPerPage", cfg.PostsPerPage, 10},
		{"ArchiveThreshold", cfg.ArchiveThreshold, 10},
		{"RelatedMax", cfg.RelatedMax, 4},
		{"RelatedMinShared", cfg.RelatedMinShared, 1},
		{"ImageWorkers", cfg.ImageWorkers, 24},
	} {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.field, tc.got, tc.want)
		}
	}

	for name, dir := range map[string]string{
		"ContentDir": cfg.ContentDir,
		"OutputDir":  cfg.OutputDir,
		"CacheDir":   cfg.CacheDir,
	} {
		if dir == "" {
			t.Errorf("%s should have a default", name)
		}
	}

	gen := cfg.Features.Generators
	if !gen.Sitemap || !gen.RSS || !gen.SocialCards {
		t.Errorf("generators should default on: sitemap=%v rss=%v socialCards=%v",
			gen.Sitemap, gen.RSS, gen.SocialCards)
	}
}

func TestLoadFromYAML(t *testing.T) {
	inSiteDir(t)
	writeSiteYAML(t, "faro.yaml", `
title: "Harbor Notes"
description: "Short posts about boats"
baseURL: "https://notes.example.net"
postsPerPage: 12
theme: "slate"
author:
  name: "Maya Lee"
seo:
  defaultKeywords: ["boats", "harbors"]
features:
  generators:
    sitemap: false
    rss: false
`)

	cfg := Load(nil)

	if cfg.Title != "Harbor Notes" || cfg.Description != "Short posts about boats" {
		t.Errorf("metadata not loaded: title=%q description=%q", cfg.Title, cfg.Description)
	}
	if cfg.BaseURL != "https://notes.example.net" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.PostsPerPage != 12 {
		t.Errorf("PostsPerPage = %d, want 12", cfg.PostsPerPage)
	}
	if cfg.Theme != "slate" {
		t.Errorf("Theme = %q, want slate", cfg.Theme)
	}
	if cfg.Author.Name != "Maya Lee" {
		t.Errorf("Author.Name = %q", cfg.Author.Name)
	}
	if got := len(cfg.SEO.DefaultKeywords); got != 2 {
		t.Errorf("SEO.DefaultKeywords length = %d, want 2", got)
	}
	if cfg.Features.Generators.Sitemap || cfg.Features.Generators.RSS {
		t.Error("generators disabled in yaml should stay off")
	}
}

func TestLoadFileResolution(t *testing.T) {
	t.Run("config.yaml fallback", func(t *testing.T) {
		inSiteDir(t)
		writeSiteYAML(t, "config.yaml", `title: "Fallback Site"`)

		if got := Load(nil).Title; got != "Fallback Site" {
			t.Errorf("Title = %q, want Fallback Site", got)
		}
	})

	t.Run("faro.yaml wins over config.yaml", func(t *testing.T) {
		inSiteDir(t)
		writeSiteYAML(t, "config.yaml", `title: "Fallback Site"`)
		writeSiteYAML(t, "faro.yaml", `title: "Primary Site"`)

		if got := Load(nil).Title; got != "Primary Site" {
			t.Errorf("Title = %q, want Primary Site", got)
		}
	})

	t.Run("unparseable yaml keeps defaults", func(t *testing.T) {
		inSiteDir(t)
		writeSiteYAML(t, "faro.yaml", "invalid: yaml: content: [")

		if got := Load(nil).Title; got != "Faro Blog" {
			t.Errorf("Title = %q, want the default", got)
		}
	})
}

func TestLoadCLIOverrides(t *testing.T) {
	inSiteDir(t)
	writeSiteYAML(t, "faro.yaml", `baseURL: "https://notes.example.net"`)

	cfg := Load([]string{"-baseurl", "https://preview.example.net", "-drafts", "-future"})

	if cfg.BaseURL != "https://preview.example.net" {
		t.Errorf("BaseURL = %q, want the flag value", cfg.BaseURL)
	}
	if !cfg.IncludeDrafts || !cfg.IncludeFuture {
		t.Errorf("flags not applied: drafts=%v future=%v", cfg.IncludeDrafts, cfg.IncludeFuture)
	}
}

func TestLoadThemeOverride(t *testing.T) {
	inSiteDir(t)
	writeSiteYAML(t, "faro.yaml", `theme: "default"`)

	cfg := Load([]string{"-theme", "slate"})

	if cfg.Theme != "slate" {
		t.Fatalf("Theme = %q, want slate", cfg.Theme)
	}
	want := filepath.Join(cfg.ThemeDir, "slate", "templates")
	if cfg.TemplateDir != want {
		t.Errorf("TemplateDir = %q, want %q", cfg.TemplateDir, want)
	}
}

func TestLoadAbsolutePaths(t *testing.T) {
	inSiteDir(t)

	cfg := Load(nil)

	for name, p := range map[string]string{
		"ContentDir":  cfg.ContentDir,
		"OutputDir":   cfg.OutputDir,
		"CacheDir":    cfg.CacheDir,
		"ThemeDir":    cfg.ThemeDir,
		"TemplateDir": cfg.TemplateDir,
		"StaticDir":   cfg.StaticDir,
	} {
		if !filepath.IsAbs(p) {
			t.Errorf("%s = %q, want an absolute path", name, p)
		}
	}
}

func TestLoadImageWorkers(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"defaults when omitted", "", 24},
		{"negative falls back", "imageWorkers: -1", 24},
		{"in range", "imageWorkers: 16", 16},
		{"capped at 32", "imageWorkers: 50", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inSiteDir(t)
			if tt.yaml != "" {
				writeSiteYAML(t, "faro.yaml", tt.yaml)
			}

			if got := Load(nil).ImageWorkers; got != tt.want {
				t.Errorf("ImageWorkers = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetDevMode(t *testing.T) {
	cfg := &Config{}
	SetDevMode(cfg, true)
	if !cfg.IsDev || !cfg.IncludeDrafts || !cfg.IncludeFuture {
		t.Errorf("dev mode: IsDev=%v drafts=%v future=%v, want all true",
			cfg.IsDev, cfg.IncludeDrafts, cfg.IncludeFuture)
	}

	cfg = &Config{}
	SetDevMode(cfg, false)
	if cfg.IsDev {
		t.Error("IsDev should stay false outside dev mode")
	}
}

func TestAuthorByKey(t *testing.T) {
	cfg := &Config{
		Author:  AuthorConfig{Name: "Site Author", URL: "https://example.com"},
		Authors: []models.Author{{Key: "jane", Name: "Jane Doe"}},
	}

	tests := []struct {
		name     string
		key      string
		wantName string
		wantOK   bool
	}{
		{"empty key resolves site author", "", "Site Author", true},
		{"known key", "jane", "Jane Doe", true},
		{"unknown key", "ghost", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := cfg.AuthorByKey(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("AuthorByKey(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if a.Name != tt.wantName {
				t.Errorf("AuthorByKey(%q).Name = %q, want %q", tt.key, a.Name, tt.wantName)
			}
		})
	}
}

func TestSocialCardDefaults(t *testing.T) {
	inSiteDir(t)

	sc := Load(nil).SocialCards

	if sc.Background != "#faf8f5" || sc.TextColor != "#1a1a1a" {
		t.Errorf("colors = %q/%q, want #faf8f5/#1a1a1a", sc.Background, sc.TextColor)
	}
	if len(sc.Gradient) != 2 {
		t.Errorf("Gradient has %d stops, want 2", len(sc.Gradient))
	}
	if sc.Angle != 135 {
		t.Errorf("Angle = %d, want 135", sc.Angle)
	}
}

func TestPublishDefaults(t *testing.T) {
	inSiteDir(t)
	writeSiteYAML(t, "faro.yaml", `
publish:
  appID: "app-123"
  repo: "acme/blog"
`)

	pub := Load(nil).Publish

	if pub.AppID != "app-123" || pub.Repo != "acme/blog" {
		t.Errorf("publish block not loaded: %+v", pub)
	}
	if pub.PreviewBranch != "previews" {
		t.Errorf("PreviewBranch = %q, want previews", pub.PreviewBranch)
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	inSiteDir(t)

	bc := LoadBuildConfig()

	if bc.Workers != 12 {
		t.Errorf("Workers = %d, want 12", bc.Workers)
	}
	if bc.Debounce != 300*time.Millisecond {
		t.Errorf("Debounce = %v, want 300ms", bc.Debounce)
	}
	if bc.GitTimeout != time.Minute {
		t.Errorf("GitTimeout = %v, want 1m", bc.GitTimeout)
	}
}

func TestBuildConfigClamping(t *testing.T) {
	inSiteDir(t)
	writeSiteYAML(t, "faro.build.yaml", `
workers: 500
debounce: 1ns
deployTimeout: 1h
`)

	bc := LoadBuildConfig()

	if bc.Workers != 32 {
		t.Errorf("Workers = %d, want the 32 cap", bc.Workers)
	}
	if bc.Debounce != 10*time.Millisecond {
		t.Errorf("Debounce = %v, want the 10ms floor", bc.Debounce)
	}
	if bc.DeployTimeout != 5*time.Minute {
		t.Errorf("DeployTimeout = %v, want the 5m ceiling", bc.DeployTimeout)
	}
	if bc.GitTimeout != time.Minute {
		t.Errorf("GitTimeout = %v, knobs the file omits keep defaults", bc.GitTimeout)
	}
}

func TestBuildConfigUnparseable(t *testing.T) {
	inSiteDir(t)
	writeSiteYAML(t, "faro.build.yaml", "workers: [not a number")

	bc := LoadBuildConfig()

	if want := DefaultBuildConfig().Workers; bc.Workers != want {
		t.Errorf("Workers = %d, want the default %d after a parse failure", bc.Workers, want)
	}
}

func TestTuningFallsBackToDefaults(t *testing.T) {
	cfg := &Config{}

	got := cfg.Tuning()
	if got == nil {
		t.Fatal("Tuning() returned nil")
	}
	if want := DefaultBuildConfig().Workers; got.Workers != want {
		t.Errorf("Workers = %d, want %d", got.Workers, want)
	}
}

func TestLoadWiresTuning(t *testing.T) {
	inSiteDir(t)
	writeSiteYAML(t, "faro.build.yaml", "workers: 4")

	cfg := Load(nil)

	if got := cfg.Tuning().Workers; got != 4 {
		t.Errorf("Tuning().Workers = %d, want 4", got)
	}
}
