package parser

import "github.com/microcosm-cc/bluemonday"

var ugcPolicy = newUGCPolicy()

// newUGCPolicy builds bluemonday's UGC policy widened just enough to keep
// the pipeline's own markup alive: chroma classes, the code wrapper,
// heading anchors, lazy images and new-tab links.
func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("span", "div", "code", "pre", "table")
	p.AllowAttrs("data-lang").OnElements("div")
	p.AllowAttrs("id").OnElements("h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("loading").OnElements("img")
	p.AllowAttrs("target", "rel").OnElements("a")
	return p
}

// Sanitize runs rendered HTML through the UGC policy. Used when the site
// config enables sanitization for bodies that include third-party content.
func Sanitize(html string) string {
	return ugcPolicy.Sanitize(html)
}
