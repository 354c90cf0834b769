// Package paginate splits post lists into fixed-size pages and derives the
// archive page sets for categories and tags.
package paginate

import (
	"fmt"
	"path"
	"sort"
	"strconv"

	"faro/builder/models"
	"faro/builder/utils"
)

// Page is one slice of a listing, 1-indexed.
type Page struct {
	Number int
	Posts  []*models.Post
}

// Paginate splits posts into ceil(len/size) pages of at most size posts
// each. The pages concatenated reproduce the input exactly. The config
// layer clamps the page size; a zero here would loop forever, so it is
// floored at 1.
func Paginate(posts []*models.Post, size int) []Page {
	if size < 1 {
		size = 1
	}
	var pages []Page
	for start := 0; start < len(posts); start += size {
		end := start + size
		if end > len(posts) {
			end = len(posts)
		}
		pages = append(pages, Page{Number: len(pages) + 1, Posts: posts[start:end]})
	}
	return pages
}

// PageSet binds the pages of one listing to their permalinks and output
// paths. BasePath is the listing root relative to the site root ("" for
// the home listing, "categories/go" for an archive); Anchor is an optional
// fragment carried on every page link.
type PageSet struct {
	BaseURL  string
	BasePath string
	Anchor   string
	Pages    []Page
}

// NewPageSet paginates posts under the given listing root. An empty post
// list still yields one empty page: every listing renders at least its
// root index.
func NewPageSet(baseURL, basePath, anchor string, posts []*models.Post, size int) *PageSet {
	pages := Paginate(posts, size)
	if len(pages) == 0 {
		pages = []Page{{Number: 1}}
	}
	return &PageSet{BaseURL: baseURL, BasePath: basePath, Anchor: anchor, Pages: pages}
}

// URL returns the permalink for page n.
func (s *PageSet) URL(n int) string {
	root := s.BaseURL + "/"
	if s.BasePath != "" {
		root += s.BasePath + "/"
	}
	if n <= 1 {
		return root + s.Anchor
	}
	return fmt.Sprintf("%spage/%d/%s", root, n, s.Anchor)
}

// DestPath returns the output-relative file path for page n.
func (s *PageSet) DestPath(n int) string {
	if n <= 1 {
		return path.Join(s.BasePath, "index.html")
	}
	return path.Join(s.BasePath, "page", strconv.Itoa(n), "index.html")
}

// Paginator builds the navigation model for page n.
func (s *PageSet) Paginator(n int) *models.Paginator {
	total := len(s.Pages)
	p := &models.Paginator{
		CurrentPage: n,
		TotalPages:  total,
		HasPrev:     n > 1,
		HasNext:     n < total,
		FirstURL:    s.URL(1),
		LastURL:     s.URL(total),
	}
	if p.HasPrev {
		p.PrevURL = s.URL(n - 1)
	}
	if p.HasNext {
		p.NextURL = s.URL(n + 1)
	}
	p.PageURLs = make([]string, total)
	for i := range p.PageURLs {
		p.PageURLs[i] = s.URL(i + 1)
	}
	return p
}

// Archive is one term's listing: the term with its count and link, plus
// the page set that renders it.
type Archive struct {
	Term models.Term
	Set  *PageSet
}

// Archives derives the archive page sets for every term in groups, in
// alphabetical term order. A term's listing stays on a single page until
// its post count exceeds threshold; past that the standard pagination rule
// applies with pageSize.
func Archives(kind string, groups map[string][]*models.Post, baseURL string, threshold, pageSize int) []Archive {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	archives := make([]Archive, 0, len(names))
	for _, name := range names {
		posts := groups[name]
		size := pageSize
		if len(posts) <= threshold {
			size = len(posts)
		}
		basePath := path.Join(kind, utils.TermSlug(name))
		set := NewPageSet(baseURL, basePath, "", posts, size)
		archives = append(archives, Archive{
			Term: models.Term{Name: name, Link: set.URL(1), Count: len(posts)},
			Set:  set,
		})
	}
	return archives
}

// Terms returns just the term models of a derived archive set, for listing
// pages that link every term.
func Terms(archives []Archive) []models.Term {
	terms := make([]models.Term, len(archives))
	for i, a := range archives {
		terms[i] = a.Term
	}
	return terms
}
