package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"faro/builder/assets"
	"faro/builder/config"
	"faro/builder/utils"
)

type assetService struct {
	src afero.Fs
	dst afero.Fs

	cfg      *config.Config
	registry RenderService
	log      *slog.Logger
}

func NewAssetService(src, dst afero.Fs, cfg *config.Config, renderer RenderService, logger *slog.Logger) AssetService {
	return &assetService{src: src, dst: dst, cfg: cfg, registry: renderer, log: logger}
}

// Build copies static files and bundles CSS/JS in parallel. A failed
// static copy is a warning; a failed bundle aborts the build because
// templates resolve every asset URL through the bundle map.
func (s *assetService) Build(ctx context.Context) error {
	staticOut := filepath.Join(s.cfg.OutputDir, "static")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.copyStatic(ctx, staticOut)
	}()

	var bundleErr error
	go func() {
		defer wg.Done()
		bundleErr = s.bundle(staticOut)
	}()

	wg.Wait()
	return bundleErr
}

// copyStatic lays down the theme's static tree, then the site's on top
// of it. CSS and JS stay out of the raw copy because esbuild owns them.
func (s *assetService) copyStatic(ctx context.Context, staticOut string) {
	imageCache := filepath.Join(s.cfg.CacheDir, "images")
	for _, root := range []string{s.cfg.StaticDir, "static"} {
		if exists, _ := afero.Exists(s.src, root); !exists {
			continue
		}
		err := utils.CopyDirVFS(ctx, s.src, s.dst, root, staticOut,
			s.cfg.CompressImages, []string{".css", ".js"},
			s.registry.RegisterFile, imageCache, s.cfg.ImageWorkers)
		if err != nil {
			s.log.Warn("Static copy failed", "dir", root, "error", err)
		}
	}

	// The logo is referenced by its configured path, so it skips WebP
	// conversion and lands byte for byte.
	if s.cfg.Logo == "" {
		return
	}
	if exists, _ := afero.Exists(s.src, s.cfg.Logo); !exists {
		return
	}
	if err := s.copyVerbatim(s.cfg.Logo, filepath.Join(s.cfg.OutputDir, s.cfg.Logo)); err != nil {
		s.log.Warn("Logo copy failed", "path", s.cfg.Logo, "error", err)
	}
}

func (s *assetService) bundle(staticOut string) error {
	bundled, err := assets.Bundle(s.src, s.dst, assets.BundleOptions{
		SrcDir:     s.cfg.StaticDir,
		DestDir:    staticOut,
		OutputRoot: s.cfg.OutputDir,
		Minify:     !s.cfg.IsDev,
		Newsletter: s.cfg.Features.Newsletter,
		OnWrite:    s.registry.RegisterFile,
	})
	if err != nil {
		return err
	}
	s.registry.SetAssets(bundled)
	return nil
}

// copyVerbatim copies one file untransformed and registers the
// destination with the renderer.
func (s *assetService) copyVerbatim(srcPath, destPath string) error {
	in, err := s.src.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := s.dst.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	out, err := s.dst.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	s.registry.RegisterFile(destPath)
	return nil
}
