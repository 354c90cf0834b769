// Package run wires the build services into a complete site build.
package run

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"faro/builder/assets"
	"faro/builder/cache"
	"faro/builder/config"
	"faro/builder/content"
	"faro/builder/metrics"
	"faro/builder/parser"
	"faro/builder/renderer"
	"faro/builder/services"
	"faro/builder/utils"
	"faro/internal/version"
)

// Builder holds the state shared across builds: the open cache, the
// loaded templates and the in-memory output filesystem. One Builder
// serves many Build calls; the dev server keeps it alive between
// rebuilds so the cache and VFS stay warm.
type Builder struct {
	cfg     *config.Config
	store   *content.Store
	cache   *cache.Manager
	rnd     services.RenderService
	posts   services.PostService
	assets  services.AssetService
	metrics *metrics.BuildMetrics
	logger  *slog.Logger

	// force is set when the cache fingerprint no longer matches and is
	// consumed by the first Build.
	force bool

	SourceFs afero.Fs
	DestFs   afero.Fs
}

// New prepares a builder for the given configuration. It opens the
// cache, verifies its fingerprint, loads the theme templates and
// hydrates the output VFS from the previous build so unchanged files
// sync as no-ops.
func New(cfg *config.Config, logger *slog.Logger) (*Builder, error) {
	assets.SetFontDir(filepath.Join(cfg.StaticDir, "fonts"))

	sourceFs := afero.NewOsFs()
	destFs := afero.NewMemMapFs()
	if err := utils.HydrateVFS(destFs, cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("hydrate %s: %w", cfg.OutputDir, err)
	}

	mgr, err := cache.Open(cfg.CacheDir, cfg.IsDev)
	if err != nil {
		return nil, fmt.Errorf("open build cache: %w", err)
	}

	force, err := verifyFingerprint(mgr, cfg, logger)
	if err != nil {
		_ = mgr.Close()
		return nil, err
	}

	rnd, err := renderer.New(!cfg.IsDev, destFs, cfg.TemplateDir, logger)
	if err != nil {
		_ = mgr.Close()
		return nil, fmt.Errorf("load theme %s: %w", cfg.TemplateDir, err)
	}
	renderer.SetTemplateTTL(cfg.TemplateDir, cfg.Tuning().TemplateCheckTTL)

	m := metrics.NewBuildMetrics()
	renderSvc := services.NewRenderService(rnd)
	cacheSvc := services.NewCacheService(mgr)
	store := content.NewStore(sourceFs, cfg, parser.New(cfg.BaseURL))

	return &Builder{
		cfg:      cfg,
		store:    store,
		cache:    mgr,
		rnd:      renderSvc,
		posts:    services.NewPostService(cfg, store, cacheSvc, renderSvc, logger, m, sourceFs, destFs),
		assets:   services.NewAssetService(sourceFs, destFs, cfg, renderSvc, logger),
		metrics:  m,
		logger:   logger,
		force:    force,
		SourceFs: sourceFs,
		DestFs:   destFs,
	}, nil
}

// cacheFingerprint identifies the inputs baked into cached post bodies
// and card images: the binary version, every config value that changes
// rendered HTML, and the theme fonts cards draw with.
func cacheFingerprint(cfg *config.Config) string {
	fonts, err := utils.DirStamp(filepath.Join(cfg.StaticDir, "fonts"))
	if err != nil {
		fonts = "none"
	}
	return fmt.Sprintf("%s|%s|sanitize=%t|webp=%t|fonts=%s",
		version.Version, cfg.BaseURL, cfg.Sanitize, cfg.CompressImages, fonts)
}

// verifyFingerprint compares the stored cache ID against the current
// fingerprint. On mismatch every cached record is stale: the cache is
// reset and the first build runs with force.
func verifyFingerprint(mgr *cache.Manager, cfg *config.Config, logger *slog.Logger) (bool, error) {
	fp := cacheFingerprint(cfg)
	stale, err := mgr.VerifyCacheID(fp)
	if err != nil {
		return false, fmt.Errorf("verify cache: %w", err)
	}
	if !stale {
		return false, nil
	}
	logger.Info("Cache fingerprint changed, rebuilding from scratch")
	if err := mgr.Reset(); err != nil {
		return false, fmt.Errorf("reset cache: %w", err)
	}
	if err := mgr.SetCacheID(fp); err != nil {
		return false, fmt.Errorf("store cache fingerprint: %w", err)
	}
	return true, nil
}

// Config returns the builder's configuration.
func (b *Builder) Config() *config.Config {
	return b.cfg
}

// Metrics returns the counters of the most recent build.
func (b *Builder) Metrics() *metrics.BuildMetrics {
	return b.metrics
}

// Close releases the build cache.
func (b *Builder) Close() error {
	return b.cache.Close()
}
