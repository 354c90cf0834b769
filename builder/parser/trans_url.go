package parser

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// URLRewriter rewrites destinations while the AST is still walkable:
// .md cross-links become their published .html paths, raster images point
// at the .webp the asset copy will produce, and root-relative paths get
// the site base URL stitched on. External links open in a new tab.
type URLRewriter struct {
	BaseURL string
}

func (r *URLRewriter) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			if href := string(v.Destination); isExternal(href) {
				v.SetAttribute([]byte("target"), []byte("_blank"))
				v.SetAttribute([]byte("rel"), []byte("noopener noreferrer"))
			} else {
				v.Destination = []byte(r.rewrite(href))
			}
		case *ast.Image:
			v.Destination = []byte(r.rewrite(string(v.Destination)))
			v.SetAttribute([]byte("loading"), []byte("lazy"))
		}
		return ast.WalkContinue, nil
	})
}

func isExternal(href string) bool {
	return strings.HasPrefix(href, "http")
}

// rewrite maps an authored destination to its published form. External
// URLs pass through untouched.
func (r *URLRewriter) rewrite(href string) string {
	if isExternal(href) {
		return href
	}

	ext := strings.ToLower(filepath.Ext(href))
	stem := href[:len(href)-len(ext)]
	switch ext {
	case ".jpg", ".jpeg", ".png":
		// The asset copy converts local raster images to webp.
		href = stem + ".webp"
	case ".md":
		// Source files publish lowercased, so the link has to follow.
		href = strings.TrimPrefix(strings.ToLower(stem), "./") + ".html"
	}

	if strings.HasPrefix(href, "/") && r.BaseURL != "" {
		return r.BaseURL + href
	}
	return href
}
