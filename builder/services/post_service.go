package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"faro/builder/cache"
	"faro/builder/config"
	"faro/builder/content"
	"faro/builder/generators"
	"faro/builder/index"
	"faro/builder/metrics"
	"faro/builder/models"
	"faro/builder/related"
	"faro/builder/seo"
	"faro/builder/utils"
)

type postService struct {
	cfg     *config.Config
	store   *content.Store
	cache   CacheService
	pages   RenderService
	log     *slog.Logger
	metrics *metrics.BuildMetrics
	src     afero.Fs
	dst     afero.Fs
}

func NewPostService(cfg *config.Config, store *content.Store, cacheSvc CacheService,
	renderer RenderService, logger *slog.Logger, m *metrics.BuildMetrics, src, dst afero.Fs) PostService {
	return &postService{
		cfg:     cfg,
		store:   store,
		cache:   cacheSvc,
		pages:   renderer,
		log:     logger,
		metrics: m,
		src:     src,
		dst:     dst,
	}
}

// parseResult is one slot of the parse phase, written by exactly one worker.
type parseResult struct {
	post  *models.Post
	dirty *cache.PostMeta // record to commit, nil on a clean hit
	hit   bool
	err   error
}

type renderTask struct {
	destPath string
	data     models.PageData
}

// Process runs the per-post half of a build: parse every source (from the
// cache when unchanged), order and validate the set, render every visible
// page, then prune what no longer belongs in the output.
func (s *postService) Process(ctx context.Context, force bool) (*PostResult, error) {
	files, has404, err := s.store.Scan()
	if err != nil {
		return nil, err
	}

	workers := min(runtime.NumCPU(), s.cfg.Tuning().Workers)

	// Phase 1: parse in parallel. Each worker owns one result slot.
	results := make([]parseResult, len(files))
	parsePool := utils.NewJobPool(ctx, workers, func(i int) {
		post, dirty, hit, err := s.loadPost(files[i], force)
		results[i] = parseResult{post: post, dirty: dirty, hit: hit, err: err}
		if err == nil {
			s.metrics.PostsProcessed.Add(1)
		}
	})
	for i := range files {
		parsePool.Send(i)
	}
	parsePool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(files))
	var dirty []*cache.PostMeta
	var parseErrs []error
	anyChanged := false
	for i := range results {
		r := &results[i]
		if r.err != nil {
			parseErrs = append(parseErrs, r.err)
			continue
		}
		posts = append(posts, r.post)
		if r.dirty != nil {
			dirty = append(dirty, r.dirty)
		}
		if !r.hit {
			anyChanged = true
		}
	}
	if len(parseErrs) > 0 {
		return nil, errors.Join(parseErrs...)
	}

	// Phase 2: order, group, validate. A missing required key aborts here,
	// before anything is rendered.
	idx, err := index.Build(posts, index.Options{
		IncludeDrafts: s.cfg.IncludeDrafts,
		IncludeFuture: s.cfg.IncludeFuture,
	})
	if err != nil {
		return nil, err
	}

	// Phase 3: render every visible post page. Related lists and neighbor
	// links reach across posts, so one changed source can change many
	// pages; rendering them all and letting the disk sync skip unchanged
	// bytes is cheaper than tracking that graph.
	if err := s.renderPosts(ctx, idx, workers); err != nil {
		return nil, err
	}

	// Drafts and future posts keep their cache records but must not leave
	// stale pages behind from an earlier build that included them.
	if s.removeHidden(idx, posts) > 0 {
		anyChanged = true
	}

	// Phase 4: drop records and outputs of posts whose sources are gone.
	pruned, err := s.prune(posts)
	if err != nil {
		s.log.Warn("Failed to prune deleted posts", "error", err)
	}
	if pruned > 0 {
		anyChanged = true
	}

	// Phase 5: commit. Runs even with nothing dirty so the build counters
	// the GC schedule reads keep advancing.
	if err := s.cache.BatchCommit(dirty); err != nil {
		s.log.Warn("Failed to commit cache batch", "error", err)
	}

	return &PostResult{Index: idx, Has404: has404, AnyPostChanged: anyChanged}, nil
}

// loadPost resolves one source file, reusing the cached record when the
// source has not changed. The returned meta is non-nil when the record
// needs committing: a fresh parse, or a hit whose ModTime moved.
func (s *postService) loadPost(path string, force bool) (post *models.Post, dirty *cache.PostMeta, hit bool, err error) {
	relPath, err := utils.SafeRel(s.cfg.ContentDir, path)
	if err != nil {
		return nil, nil, false, err
	}
	info, err := s.src.Stat(path)
	if err != nil {
		return nil, nil, false, fmt.Errorf("stat %s: %w", path, err)
	}

	var cached *cache.PostMeta
	if !force {
		cached, _ = s.cache.PostByPath(relPath)
	}

	// Fast path: mtime unchanged since the record was written.
	if cached != nil && info.ModTime().Unix() <= cached.ModTime {
		if body, err := s.cache.HTMLContent(cached); err == nil && body != nil {
			s.metrics.CacheHits.Add(1)
			s.copyRawMarkdown(cached.RelPath, path, false)
			return cached.ToPost(body), nil, true, nil
		}
	}

	source, err := afero.ReadFile(s.src, path)
	if err != nil {
		return nil, nil, false, fmt.Errorf("reading %s: %w", path, err)
	}

	// The mtime moved but the bytes did not (fresh checkout, touch):
	// refresh the record instead of re-rendering.
	if cached != nil && cached.ContentHash == cache.HashBytes(source) {
		if body, err := s.cache.HTMLContent(cached); err == nil && body != nil {
			s.metrics.CacheHits.Add(1)
			s.copyRawMarkdown(cached.RelPath, path, false)
			cached.ModTime = info.ModTime().Unix()
			return cached.ToPost(body), cached, true, nil
		}
	}

	s.metrics.CacheMisses.Add(1)
	post, err = s.store.ParseSource(path, source)
	if err != nil {
		return nil, nil, false, err
	}

	meta := cache.FromPost(post)
	meta.ModTime = info.ModTime().Unix()
	meta.ContentHash = cache.HashBytes(source)
	if err := s.cache.StoreHTML(meta, []byte(post.Body)); err != nil {
		s.log.Warn("Failed to store rendered body", "path", relPath, "error", err)
	}

	s.copyRawMarkdown(post.RelPath, path, true)

	return post, meta, false, nil
}

// copyRawMarkdown mirrors the post's source next to its page for the
// view-source link. On cache hits the copy is skipped when the output
// filesystem already holds it.
func (s *postService) copyRawMarkdown(relPath, sourcePath string, changed bool) {
	if !s.cfg.Features.RawMarkdown {
		return
	}
	destPath := filepath.Join(s.cfg.OutputDir, strings.TrimSuffix(relPath, ".html")+".md")
	if !changed {
		if _, err := s.dst.Stat(destPath); err == nil {
			return
		}
	}
	source, err := afero.ReadFile(s.src, sourcePath)
	if err != nil {
		s.log.Warn("Failed to read source for raw markdown copy", "path", sourcePath, "error", err)
		return
	}
	if err := utils.WriteFileVFS(s.dst, destPath, source); err != nil {
		s.log.Warn("Failed to copy raw markdown", "path", destPath, "error", err)
		return
	}
	s.pages.RegisterFile(destPath)
}

func (s *postService) renderPosts(ctx context.Context, idx *index.Index, workers int) error {
	cardsOn := s.cfg.Features.Generators.SocialCards
	if cardsOn {
		if err := generators.CanDraw(&s.cfg.SocialCards); err != nil {
			s.log.Warn("Social cards disabled: no usable theme font", "error", err)
			cardsOn = false
		}
	}

	// Page data builds up front so an SEO failure (unknown author key)
	// aborts before any page is written.
	tasks := make([]renderTask, 0, len(idx.Posts))
	for _, post := range idx.Posts {
		data, err := s.pageData(post, idx, cardsOn)
		if err != nil {
			return err
		}
		tasks = append(tasks, renderTask{
			destPath: filepath.Join(s.cfg.OutputDir, post.RelPath),
			data:     data,
		})
	}

	var cardPool *utils.JobPool[socialCardTask]
	if cardsOn {
		cardPool = utils.NewJobPool(ctx, workers, s.generateSocialCard)
		for _, post := range idx.Posts {
			s.queueCard(cardPool, post)
		}
	}

	renderPool := utils.NewJobPool(ctx, workers, func(t renderTask) {
		s.pages.RenderPost(t.destPath, t.data)
		s.metrics.PagesRendered.Add(1)
	})
	for _, t := range tasks {
		renderPool.Send(t)
	}
	renderPool.Wait()

	if cardPool != nil {
		cardPool.Wait()
	}
	return ctx.Err()
}

func (s *postService) pageData(post *models.Post, idx *index.Index, cardsOn bool) (models.PageData, error) {
	seoData, err := seo.Build(post, s.cfg)
	if err != nil {
		return models.PageData{}, err
	}
	prev, next := utils.FindPrevNext(post, idx.Posts)

	data := models.PageData{
		Title:        post.Title,
		TabTitle:     post.Title + " | " + s.cfg.Title,
		Description:  seoData.Description,
		BaseURL:      s.cfg.BaseURL,
		Permalink:    post.Link,
		Image:        s.imageURL(post, cardsOn),
		Content:      post.Body,
		Related:      related.Match(post, idx, related.Options{Max: s.cfg.RelatedMax, MinShared: s.cfg.RelatedMinShared}),
		PrevPost:     prev,
		NextPost:     next,
		HasMath:      post.HasMath,
		TOC:          post.TOC,
		SEO:          seoData,
		Meta:         post.Meta,
		BuildVersion: s.cfg.BuildVersion,
		Config:       s.cfg,
	}
	if author, ok := s.cfg.AuthorByKey(post.AuthorKey); ok {
		data.Author = &author
	}
	return data, nil
}

// imageURL picks the og:image: an explicit front matter image wins,
// otherwise the generated card when cards are on, otherwise nothing.
func (s *postService) imageURL(post *models.Post, cardsOn bool) string {
	if post.Image != "" {
		img := post.Image
		if strings.HasPrefix(img, "http") {
			return img
		}
		if s.cfg.CompressImages {
			switch ext := filepath.Ext(img); ext {
			case ".png", ".jpg", ".jpeg":
				img = strings.TrimSuffix(img, ext) + ".webp"
			}
		}
		return s.cfg.BaseURL + img
	}
	if cardsOn {
		return s.cfg.BaseURL + "/static/images/cards/" + strings.TrimSuffix(post.RelPath, ".html") + ".webp"
	}
	return ""
}

func (s *postService) cardDestPath(relPath string) string {
	return filepath.ToSlash(filepath.Join(s.cfg.OutputDir, "static", "images", "cards", strings.TrimSuffix(relPath, ".html")+".webp"))
}

// queueCard submits a card render unless the cached card was drawn from
// identical front matter and is already present in the output tree.
func (s *postService) queueCard(pool *utils.JobPool[socialCardTask], post *models.Post) {
	inputHash, err := utils.FrontmatterHash(post.Meta)
	if err != nil {
		s.log.Warn("Failed to hash front matter for card", "path", post.SourcePath, "error", err)
		return
	}

	cardDestPath := s.cardDestPath(post.RelPath)
	cachedHash, _ := s.cache.SocialCardHash(post.SourcePath)
	if cachedHash == inputHash {
		if info, err := s.dst.Stat(cardDestPath); err == nil && !info.IsDir() {
			s.pages.RegisterFile(cardDestPath)
			return
		}
	}

	authorName := ""
	if a, ok := s.cfg.AuthorByKey(post.AuthorKey); ok {
		authorName = a.Name
	}

	pool.Send(socialCardTask{
		sourcePath:   post.SourcePath,
		cardDestPath: cardDestPath,
		inputHash:    inputHash,
		card: generators.Card{
			SiteTitle:   s.cfg.Title,
			Title:       post.Title,
			Description: post.Description,
			Author:      authorName,
			Date:        post.Date.Format("Jan 2, 2006"),
			FaviconPath: s.faviconPath(),
		},
	})
}

// faviconPath resolves the logo drawn in the card header: the configured
// logo, falling back to the theme favicon. Empty when neither exists.
func (s *postService) faviconPath() string {
	logo := s.cfg.Logo
	if logo == "" {
		logo = filepath.Join(s.cfg.StaticDir, "images", "favicon.png")
	}
	if _, err := s.src.Stat(logo); err != nil {
		return ""
	}
	return logo
}

// removeHidden deletes output pages of posts that parsed but are not part
// of the visible index (drafts, future posts). Returns how many it removed.
func (s *postService) removeHidden(idx *index.Index, posts []*models.Post) int {
	visible := make(map[string]bool, len(idx.Posts))
	for _, p := range idx.Posts {
		visible[p.RelPath] = true
	}

	removed := 0
	for _, p := range posts {
		if visible[p.RelPath] {
			continue
		}
		if s.removeOutputs(p.RelPath) {
			removed++
		}
	}
	return removed
}

// prune deletes cache records whose source files no longer exist, along
// with their output pages and card mappings.
func (s *postService) prune(scanned []*models.Post) (int, error) {
	live := make(map[string]bool, len(scanned))
	for _, p := range scanned {
		live[utils.NormalizePath(p.SourcePath)] = true
	}

	ids, err := s.cache.ListAllPosts()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, id := range ids {
		pm, err := s.cache.PostByID(id)
		if err != nil || pm == nil {
			continue
		}
		if live[pm.Path] {
			continue
		}
		s.log.Info("Pruning deleted post", "path", pm.Path)
		if err := s.cache.DeletePost(id); err != nil {
			s.log.Warn("Failed to prune cache record", "path", pm.Path, "error", err)
			continue
		}
		s.removeOutputs(pm.RelPath)
		pruned++
	}
	return pruned, nil
}

// removeOutputs deletes a post's page, raw markdown copy and card, from
// the in-memory output and from disk. The disk copy matters because the
// sync never deletes, it only writes.
func (s *postService) removeOutputs(relPath string) bool {
	page := filepath.Join(s.cfg.OutputDir, relPath)
	paths := []string{page, s.cardDestPath(relPath)}
	if s.cfg.Features.RawMarkdown {
		paths = append(paths, strings.TrimSuffix(page, ".html")+".md")
	}

	removed := false
	for _, p := range paths {
		if err := s.dst.Remove(p); err == nil {
			removed = true
		}
		if err := os.Remove(p); err == nil {
			removed = true
		} else if !os.IsNotExist(err) {
			s.log.Warn("Failed to remove stale output", "path", p, "error", err)
		}
	}
	return removed
}
