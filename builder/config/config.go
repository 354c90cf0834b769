// handles site configuration: faro.yaml merged with command-line flags
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"faro/builder/models"
)

type AuthorConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type GeneratorsConfig struct {
	Sitemap     bool `yaml:"sitemap"`
	RSS         bool `yaml:"rss"`
	SocialCards bool `yaml:"socialCards"`
}

type FeaturesConfig struct {
	Generators  GeneratorsConfig `yaml:"generators"`
	Newsletter  bool             `yaml:"newsletter"`
	RawMarkdown bool             `yaml:"rawMarkdown"`
}

type SEOConfig struct {
	DefaultKeywords []string `yaml:"defaultKeywords"`
}

type SocialCardsConfig struct {
	Background string   `yaml:"background"`
	Gradient   []string `yaml:"gradient"`
	Angle      int      `yaml:"angle"`
	TextColor  string   `yaml:"textColor"`
	Font       string   `yaml:"font"`
}

// PublishConfig holds everything the publish pipeline needs to reach the
// hosting platform and the preview branch. Tokens come from the
// environment, never from this file.
type PublishConfig struct {
	AppID          string `yaml:"appID"`
	APIBase        string `yaml:"apiBase"`
	Repo           string `yaml:"repo"` // owner/name on the hosting forge
	PreviewBranch  string `yaml:"previewBranch"`
	PreviewRemote  string `yaml:"previewRemote"`
	PreviewBaseURL string `yaml:"previewBaseURL"`
}

type Config struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	BaseURL      string `yaml:"baseURL"`
	Language     string `yaml:"language"`
	PostsPerPage int    `yaml:"postsPerPage"`

	// Archive pages stay unpaginated until a term's post count exceeds
	// this threshold; 0 means "use postsPerPage".
	ArchiveThreshold int `yaml:"archiveThreshold"`

	RelatedMax       int `yaml:"relatedMax"`
	RelatedMinShared int `yaml:"relatedMinShared"`

	Theme string `yaml:"theme"`
	Logo  string `yaml:"logo"`

	Author  AuthorConfig    `yaml:"author"`
	Authors []models.Author `yaml:"authors"`

	SEO         SEOConfig         `yaml:"seo"`
	Features    FeaturesConfig    `yaml:"features"`
	SocialCards SocialCardsConfig `yaml:"socialCards"`
	Publish     PublishConfig     `yaml:"publish"`

	Sanitize       bool `yaml:"sanitize"`
	CompressImages bool `yaml:"compressImages"`
	ImageWorkers   int  `yaml:"imageWorkers"`

	ContentDir string `yaml:"contentDir"`
	OutputDir  string `yaml:"outputDir"`
	CacheDir   string `yaml:"cacheDir"`
	ThemeDir   string `yaml:"themeDir"`

	// Derived from ThemeDir + Theme.
	TemplateDir string `yaml:"-"`
	StaticDir   string `yaml:"-"`

	// Runtime state, never read from YAML.
	IncludeDrafts bool  `yaml:"-"`
	IncludeFuture bool  `yaml:"-"`
	ForceRebuild  bool  `yaml:"-"`
	IsDev         bool  `yaml:"-"`
	BuildVersion  int64 `yaml:"-"`

	// Performance knobs, loaded separately from faro.build.yaml.
	Build *BuildConfig `yaml:"-"`
}

// Tuning returns the performance knobs, falling back to defaults when
// the Config was built by hand rather than through Load.
func (c *Config) Tuning() *BuildConfig {
	if c.Build == nil {
		return DefaultBuildConfig()
	}
	return c.Build
}

func defaults() *Config {
	return &Config{
		Title:            "Faro Blog",
		Description:      "",
		BaseURL:          "",
		Language:         "en",
		PostsPerPage:     10,
		RelatedMax:       4,
		RelatedMinShared: 1,
		Theme:            "default",
		ContentDir:       "content",
		OutputDir:        "public",
		CacheDir:         ".faro-cache",
		ThemeDir:         "themes",
		ImageWorkers:     24,
		Features: FeaturesConfig{
			Generators: GeneratorsConfig{
				Sitemap:     true,
				RSS:         true,
				SocialCards: true,
			},
		},
		SocialCards: SocialCardsConfig{
			Background: "#faf8f5",
			Gradient:   []string{"#fdf0e4", "#e4ecfd"},
			Angle:      135,
			TextColor:  "#1a1a1a",
		},
		Publish: PublishConfig{
			PreviewBranch: "previews",
		},
	}
}

// Load builds the effective configuration: faro.yaml (config.yaml as a
// fallback), then flag overrides on top.
func Load(args []string) *Config {
	cfg := defaults()

	data, err := os.ReadFile("faro.yaml")
	if err != nil {
		data, err = os.ReadFile("config.yaml")
	}
	if err == nil {
		fileCfg := defaults()
		if uerr := yaml.Unmarshal(data, fileCfg); uerr != nil {
			fmt.Printf("⚠️  Failed to parse site config, using defaults: %v\n", uerr)
		} else {
			cfg = fileCfg
		}
	}

	fs := flag.NewFlagSet("faro", flag.ContinueOnError)
	baseURL := fs.String("baseurl", "", "Override the site base URL")
	drafts := fs.Bool("drafts", false, "Include draft posts")
	future := fs.Bool("future", false, "Include future-dated posts")
	theme := fs.String("theme", "", "Override the theme name")
	force := fs.Bool("force", false, "Ignore the build cache")
	// Flags owned by serve and publish ride along on the same argv.
	_ = fs.String("host", "", "Interface to bind (handled by serve)")
	_ = fs.String("port", "", "Port to listen on (handled by serve)")
	_ = fs.String("target", "", "Deploy target (handled by publish)")
	_ = fs.String("branch", "", "Branch name (handled by publish)")
	_ = fs.String("actor", "", "Actor login (handled by publish)")
	_ = fs.Bool("dry-run", false, "Dry run (handled by publish)")
	_ = fs.Parse(args)

	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *drafts {
		cfg.IncludeDrafts = true
	}
	if *future {
		cfg.IncludeFuture = true
	}
	if *theme != "" {
		cfg.Theme = *theme
	}
	if *force {
		cfg.ForceRebuild = true
	}

	cfg.Build = LoadBuildConfig()
	cfg.normalize()
	return cfg
}

// SetDevMode marks the configuration as running under the dev server.
// Dev builds include drafts and future posts so authors can preview them.
func SetDevMode(cfg *Config, dev bool) {
	cfg.IsDev = dev
	if dev {
		cfg.IncludeDrafts = true
		cfg.IncludeFuture = true
	}
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.PostsPerPage < 1 {
		c.PostsPerPage = 10
	}
	if c.ArchiveThreshold <= 0 {
		c.ArchiveThreshold = c.PostsPerPage
	}
	if c.RelatedMax < 1 {
		c.RelatedMax = 4
	}
	if c.RelatedMinShared < 1 {
		c.RelatedMinShared = 1
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = 24
	}
	if c.ImageWorkers > 32 {
		c.ImageWorkers = 32
	}
	if c.Theme == "" {
		c.Theme = "default"
	}
	if c.Publish.PreviewBranch == "" {
		c.Publish.PreviewBranch = "previews"
	}
	if len(c.SocialCards.Gradient) != 2 {
		c.SocialCards.Gradient = []string{"#fdf0e4", "#e4ecfd"}
	}

	c.ContentDir = absPath(c.ContentDir)
	c.OutputDir = absPath(c.OutputDir)
	c.CacheDir = absPath(c.CacheDir)
	c.ThemeDir = absPath(c.ThemeDir)
	c.TemplateDir = filepath.Join(c.ThemeDir, c.Theme, "templates")
	c.StaticDir = filepath.Join(c.ThemeDir, c.Theme, "static")

	c.BuildVersion = time.Now().Unix()
}

// AuthorByKey resolves an author reference from a post's front matter.
// The empty key maps to the site author; unknown keys report false so the
// caller can fail the build instead of emitting a broken byline.
func (c *Config) AuthorByKey(key string) (models.Author, bool) {
	if key == "" {
		return models.Author{Name: c.Author.Name, URL: c.Author.URL}, true
	}
	for _, a := range c.Authors {
		if a.Key == key {
			return a, true
		}
	}
	return models.Author{}, false
}

func absPath(p string) string {
	if p == "" {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
