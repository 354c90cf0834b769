// Package content loads the markdown tree and parses documents into posts.
package content

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"faro/builder/config"
	"faro/builder/models"
	mdparser "faro/builder/parser"
	"faro/builder/utils"
)

// Reading time assumes a slow technical-reading pace.
const readingWPM = 120.0

// Store reads markdown documents from the configured content directory.
type Store struct {
	fs  afero.Fs
	cfg *config.Config
	md  goldmark.Markdown
}

func NewStore(fs afero.Fs, cfg *config.Config, md goldmark.Markdown) *Store {
	return &Store{fs: fs, cfg: cfg, md: md}
}

// Scan walks the content tree and returns every post source path in walk
// order. _index.md files are structural and 404.md feeds the error page;
// neither is a post.
func (s *Store) Scan() (files []string, has404 bool, err error) {
	err = afero.Walk(s.fs, s.cfg.ContentDir, func(path string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		switch filepath.Base(path) {
		case "_index.md":
			return nil
		case "404.md":
			has404 = true
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("scanning %s: %w", s.cfg.ContentDir, err)
	}
	return files, has404, nil
}

// Parse reads one document and derives the full post model: rendered body,
// normalized terms, reading time, excerpt and the math flag. Required-field
// validation is the indexer's job; Parse only rejects what it cannot
// represent (unreadable files, malformed dates).
func (s *Store) Parse(path string) (*models.Post, error) {
	source, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.ParseSource(path, source)
}

// ParseSource parses an already-read document. Callers that hash the
// source for cache checks use this to avoid a second read.
func (s *Store) ParseSource(path string, source []byte) (*models.Post, error) {
	pc := gparser.NewContext()
	doc := s.md.Parser().Parse(text.NewReader(source), gparser.WithContext(pc))

	buf := utils.GetBuffer()
	defer utils.PutBuffer(buf)
	if err := s.md.Renderer().Render(buf, source, doc); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", path, err)
	}
	body := buf.String()

	if s.cfg.Sanitize {
		body = mdparser.Sanitize(body)
	}
	if s.cfg.CompressImages {
		body = utils.RewriteRasterSrcs(body)
	}

	metaData := meta.Get(pc)

	relPath, err := utils.SafeRel(s.cfg.ContentDir, path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	htmlRelPath := strings.ToLower(strings.TrimSuffix(relPath, ".md")) + ".html"

	post := &models.Post{
		Slug:        strings.TrimSuffix(filepath.Base(htmlRelPath), ".html"),
		SourcePath:  relPath,
		RelPath:     htmlRelPath,
		Link:        utils.BuildURL(s.cfg.BaseURL, htmlRelPath),
		Title:       utils.MetaString(metaData, "title"),
		Description: utils.MetaString(metaData, "description"),
		Image:       utils.MetaString(metaData, "image"),
		AuthorKey:   utils.MetaString(metaData, "author"),
		Keywords:    utils.MetaSlice(metaData, "keywords"),
		Draft:       utils.MetaBool(metaData, "draft"),
		Pinned:      utils.MetaBool(metaData, "pinned"),
		HasMath:     mdparser.HasMath(source),
		Body:        template.HTML(body),
		TOC:         mdparser.TOC(pc),
		Meta:        metaData,
	}

	// Tags and categories are matched and grouped case-insensitively, so
	// they are normalized once here. Keywords keep their authored form.
	for _, t := range utils.MetaSlice(metaData, "tags") {
		if n := utils.NormalizeTerm(t); n != "" {
			post.Tags = append(post.Tags, n)
		}
	}
	for _, c := range utils.MetaSlice(metaData, "categories") {
		if n := utils.NormalizeTerm(c); n != "" {
			post.Categories = append(post.Categories, n)
		}
	}

	if dateStr := utils.MetaString(metaData, "date"); dateStr != "" {
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("%s: bad date %q: %w", relPath, dateStr, err)
		}
		post.Date = date
		post.Future = date.After(time.Now())
	}
	if lastmodStr := utils.MetaString(metaData, "lastmod"); lastmodStr != "" {
		lastmod, err := parseDate(lastmodStr)
		if err != nil {
			return nil, fmt.Errorf("%s: bad lastmod %q: %w", relPath, lastmodStr, err)
		}
		post.LastMod = &lastmod
	}

	post.Plain = mdparser.PlainText(doc, source)
	post.WordCount = len(strings.Fields(post.Plain))
	post.ReadingTime = int(math.Ceil(float64(post.WordCount) / readingWPM))
	post.Excerpt = firstParagraph(post.Plain)

	return post, nil
}

var errBadDate = errors.New("want YYYY-MM-DD or RFC 3339")

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadDate
}

// firstParagraph returns the first non-empty run of extracted text with
// whitespace collapsed.
func firstParagraph(plain string) string {
	for _, line := range strings.Split(plain, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			return line
		}
	}
	return ""
}
