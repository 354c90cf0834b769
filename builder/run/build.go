package run

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"faro/builder/cache"
	"faro/builder/paginate"
	"faro/builder/services"
	"faro/builder/utils"
)

// Build runs one full build pass: assets, posts, global pages, disk
// sync. The output directory is locked for the duration so concurrent
// invocations cannot interleave writes.
func (b *Builder) Build(ctx context.Context) error {
	b.metrics.Reset()

	lock, err := utils.LockBuildDir(b.cfg.OutputDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	force := b.force || b.cfg.ForceRebuild
	b.force = false

	b.logger.Info("Building site", "version", b.cfg.BuildVersion, "force", force)

	// Posts wait for the asset bundle: templates resolve every asset
	// URL through the bundle map.
	assetStart := time.Now()
	if err := b.assets.Build(ctx); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	if err := utils.WriteFileVFS(b.DestFs, filepath.Join(b.cfg.OutputDir, ".nojekyll"), []byte{}); err != nil {
		b.logger.Warn("Failed to write .nojekyll", "error", err)
	}
	b.metrics.AssetTime = time.Since(assetStart)

	postStart := time.Now()
	result, err := b.posts.Process(ctx, force)
	if err != nil {
		return err
	}
	b.metrics.ParseTime = time.Since(postStart)

	renderStart := time.Now()
	if err := b.renderGlobalPages(result); err != nil {
		return err
	}
	b.metrics.RenderTime = time.Since(renderStart)

	if err := ctx.Err(); err != nil {
		return err
	}

	syncStart := time.Now()
	b.logger.Info("Syncing output to disk", "dir", b.cfg.OutputDir)
	written, skipped, err := utils.SyncVFS(ctx, b.DestFs, b.cfg.OutputDir, b.rnd.RenderedFiles())
	if err != nil {
		return fmt.Errorf("sync %s: %w", b.cfg.OutputDir, err)
	}
	b.metrics.FilesWritten.Add(int64(written))
	b.metrics.FilesSkipped.Add(int64(skipped))
	b.metrics.SyncTime = time.Since(syncStart)
	b.rnd.ClearRenderedFiles()

	b.maybeGC()

	b.metrics.RecordEnd()
	b.metrics.Print()
	return nil
}

// renderGlobalPages writes every page derived from the index as a
// whole: the home listing, term archives, the 404 page and the feeds.
// These are cheap relative to posts and cross post boundaries, so they
// regenerate every build and rely on the sync to skip identical bytes.
func (b *Builder) renderGlobalPages(result *services.PostResult) error {
	idx := result.Index
	cfg := b.cfg

	tagArchives := paginate.Archives("tags", idx.ByTag, cfg.BaseURL, cfg.ArchiveThreshold, cfg.PostsPerPage)
	catArchives := paginate.Archives("categories", idx.ByCategory, cfg.BaseURL, cfg.ArchiveThreshold, cfg.PostsPerPage)
	allTags := paginate.Terms(tagArchives)
	allCategories := paginate.Terms(catArchives)

	b.renderListPages(idx)
	b.renderTermIndex("tags", "Tags", allTags, allCategories)
	b.renderTermIndex("categories", "Categories", allTags, allCategories)
	b.renderArchivePages(tagArchives, allTags, allCategories)
	b.renderArchivePages(catArchives, allTags, allCategories)

	if err := b.render404(result.Has404); err != nil {
		return err
	}
	return b.generateFeeds(idx, allTags, allCategories)
}

// maybeGC sweeps unreferenced cache blobs once enough builds have
// passed. A failed sweep never fails the build.
func (b *Builder) maybeGC() {
	gcCfg := cache.DefaultGCConfig()
	due, reason := b.cache.ShouldRunGC(gcCfg)
	if !due {
		return
	}
	res, err := b.cache.RunGC(gcCfg)
	if err != nil {
		b.logger.Warn("Cache GC failed", "error", err)
		return
	}
	b.logger.Info("Cache GC complete",
		"reason", reason,
		"deleted", res.Deleted,
		"bytes", res.BytesFreed,
		"took", res.Took.Round(time.Millisecond))
}
