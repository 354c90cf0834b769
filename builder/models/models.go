// Package models defines the data structures shared by the indexer,
// renderer and generators.
package models

import (
	"encoding/xml"
	"html/template"
	"time"
)

// TOCEntry is one heading in a document outline.
type TOCEntry struct {
	ID    string
	Text  string
	Level int
}

// Post is a single content document after parsing: front matter plus
// derived fields. Immutable once the index is built.
type Post struct {
	Slug       string
	SourcePath string // path relative to the content dir
	RelPath    string // output-relative path, e.g. posts/hello.html
	Link       string // absolute permalink

	Title       string
	Description string
	Excerpt     string
	Image       string
	AuthorKey   string

	Categories []string
	Tags       []string
	Keywords   []string

	Date    time.Time
	LastMod *time.Time

	ReadingTime int
	WordCount   int

	Draft  bool
	Pinned bool
	Future bool

	HasMath bool
	Body    template.HTML
	Plain   string
	TOC     []TOCEntry
	Meta    map[string]any
}

// Author as declared in the site configuration. Posts reference authors
// by key; many posts share one author.
type Author struct {
	Key    string       `yaml:"key"`
	Name   string       `yaml:"name"`
	URL    string       `yaml:"url"`
	Avatar string       `yaml:"avatar"`
	Bio    string       `yaml:"bio"`
	Links  []AuthorLink `yaml:"links"`
}

type AuthorLink struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Term represents a tag or category with its frequency.
type Term struct {
	Name  string
	Link  string
	Count int
}

// Paginator describes one page of a multi-page listing and how to reach
// its neighbors.
type Paginator struct {
	CurrentPage int
	TotalPages  int

	PrevURL  string
	NextURL  string
	FirstURL string
	LastURL  string

	HasPrev bool
	HasNext bool

	PageURLs []string // permalink per page, 0-indexed
}

// SEOData carries the derived head metadata for one page.
type SEOData struct {
	Description string
	Keywords    string
	JSONLD      template.JS
}

// PageData is the single context value handed to every template render.
type PageData struct {
	Title         string
	TabTitle      string
	Description   string
	BaseURL       string
	Permalink     string
	Image         string
	Content       template.HTML
	Kind          string
	IsIndex       bool
	Posts         []*Post
	PinnedPosts   []*Post
	Related       []*Post
	PrevPost      *Post
	NextPost      *Post
	Author        *Author
	AllTags       []Term
	AllCategories []Term
	Term          string
	HasMath       bool
	TOC           []TOCEntry
	Paginator     *Paginator
	SEO           *SEOData
	Assets        map[string]string
	Meta          map[string]any
	BuildVersion  int64

	// Config exposes the full site configuration to templates
	// (author block, feature flags, socials).
	Config any
}

// URLSet and SitemapURL marshal straight to sitemap.xml.
type URLSet struct {
	XMLName xml.Name     `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []SitemapURL `xml:"url"`
}

type SitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// RSS is the root element of the 2.0 feed.
type RSS struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel RSSChannel `xml:"channel"`
}

type RSSChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []RSSItem `xml:"item"`
}

type RSSItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category,omitempty"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
}
