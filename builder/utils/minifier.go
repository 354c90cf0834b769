package utils

import (
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// minifier is built on first use; the tdewolff handlers are stateless,
// so one instance serves every render worker. CSS and JS never pass
// through here, esbuild minifies those during bundling.
var minifier = sync.OnceValue(func() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	return m
})

// MinifyWriter wraps w so that everything written is minified as
// mediatype. Close the returned writer before touching w again.
func MinifyWriter(mediatype string, w io.Writer) io.WriteCloser {
	return minifier().Writer(mediatype, w)
}

// imgTag captures a local <img> source split into stem and raster
// extension. Group 1 is the stem, group 2 the extension.
var imgTag = regexp.MustCompile(`(?i)<img\s[^>]*src=["']([^"']+?)(\.jpe?g|\.png)["']`)

// RewriteRasterSrcs points local <img> sources at the .webp variant
// the asset pipeline emits next to the original. Absolute and
// protocol-relative URLs pass through untouched.
func RewriteRasterSrcs(doc string) string {
	matches := imgTag.FindAllStringSubmatchIndex(doc, -1)
	if matches == nil {
		return doc
	}

	var b strings.Builder
	b.Grow(len(doc) + len(matches)*len(".webp"))
	last := 0
	for _, m := range matches {
		stem := doc[m[2]:m[3]]
		if strings.HasPrefix(stem, "http") || strings.HasPrefix(stem, "//") {
			continue
		}
		// m[4]:m[5] spans the extension; swap it for .webp.
		b.WriteString(doc[last:m[4]])
		b.WriteString(".webp")
		last = m[5]
	}
	b.WriteString(doc[last:])
	return b.String()
}
