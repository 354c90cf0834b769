// Package parser configures the goldmark pipeline shared by every build.
package parser

import (
	"strings"

	chroma_html "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/gohugoio/hugo-goldmark-extensions/passthrough"
	admonitions "github.com/stefanfritsch/goldmark-admonitions"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// wrapCodeBlock frames every highlighted block in a div carrying the
// language, which the theme turns into a label and a copy-button target.
func wrapCodeBlock(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if !entering {
		_, _ = w.WriteString("</div>")
		return
	}
	lang, _ := c.Language()
	if len(lang) == 0 {
		lang = []byte("text")
	}
	_, _ = w.WriteString(`<div class="code-wrapper" data-lang="`)
	_, _ = w.Write(lang)
	_, _ = w.WriteString(`">`)
}

// mathDelims keeps $..$ / $$..$$ (and the escaped-paren forms) out of
// markdown processing so KaTeX can typeset them in the browser.
var mathDelims = passthrough.Config{
	InlineDelimiters: []passthrough.Delimiters{
		{Open: "$", Close: "$"},
		{Open: `\(`, Close: `\)`},
	},
	BlockDelimiters: []passthrough.Delimiters{
		{Open: "$$", Close: "$$"},
		{Open: `\[`, Close: `\]`},
	},
}

// New creates the goldmark instance used for every post and page body.
// Code blocks are highlighted into CSS classes so the theme owns the
// palette.
func New(baseURL string) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			meta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithStyle("nord"),
				highlighting.WithFormatOptions(chroma_html.WithClasses(true)),
				highlighting.WithWrapperRenderer(wrapCodeBlock),
			),
			&admonitions.Extender{},
			passthrough.New(mathDelims),
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&URLRewriter{BaseURL: baseURL}, 100),
				util.Prioritized(tocTransformer{}, 200),
			),
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// PlainText flattens a document to the text a reader would see: prose,
// headings and code, no markup.
func PlainText(node ast.Node, source []byte) string {
	var out strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			out.WriteByte('\n')
		case *ast.Text:
			out.Write(v.Segment.Value(source))
			out.WriteByte(' ')
		case *ast.CodeBlock:
			writeSegments(&out, v.Lines(), source)
		case *ast.FencedCodeBlock:
			writeSegments(&out, v.Lines(), source)
		}
		return ast.WalkContinue, nil
	})
	return out.String()
}

func writeSegments(out *strings.Builder, lines *text.Segments, source []byte) {
	for i := range lines.Len() {
		seg := lines.At(i)
		out.Write(seg.Value(source))
	}
	out.WriteByte(' ')
}
