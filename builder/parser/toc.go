package parser

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"faro/builder/models"
)

var outlineKey = parser.NewContextKey()

// TOC retrieves the table of contents collected while parsing.
func TOC(pc parser.Context) []models.TOCEntry {
	toc, _ := pc.Get(outlineKey).([]models.TOCEntry)
	return toc
}

// tocTransformer collects H2-H6 headings into the parser context. H1 is
// left out: the page title owns it.
type tocTransformer struct{}

func (tocTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	var entries []models.TOCEntry

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		if heading.Level >= 2 && heading.Level <= 6 {
			// WithAutoHeadingID runs before transformers, so every
			// heading has an id attribute by now.
			if id, found := heading.AttributeString("id"); found {
				entries = append(entries, models.TOCEntry{
					ID:    string(id.([]byte)),
					Text:  headingText(heading, reader.Source()),
					Level: heading.Level,
				})
			}
		}
		return ast.WalkSkipChildren, nil
	})

	pc.Set(outlineKey, entries)
}

// headingText flattens the heading's inline children to plain text, so
// `code` or *emphasis* markers never leak into the sidebar.
func headingText(heading *ast.Heading, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
