// Package server is the local preview server: build on change, serve
// the output tree, push live-reload events to the browser.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"faro/builder/config"
	"faro/builder/renderer"
	"faro/builder/run"
)

type Server struct {
	cfg    *config.Config
	log    *slog.Logger
	hub    *reloadHub

	mu      sync.Mutex
	builder *run.Builder
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{cfg: cfg, log: logger, hub: newReloadHub()}
}

// Run parses serve's flags and starts the server. It returns when ctx
// is cancelled.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	host := fs.String("host", "localhost", "Interface to bind")
	port := fs.String("port", "3276", "Port to listen on")
	// Builder flags ride along on the same argv; config.Load owns them.
	_ = fs.String("baseurl", "", "Base URL override (handled by builder)")
	_ = fs.Bool("drafts", false, "Include drafts (handled by builder)")
	_ = fs.Bool("future", false, "Include future posts (handled by builder)")
	_ = fs.String("theme", "", "Theme override (handled by builder)")
	_ = fs.Bool("force", false, "Ignore build cache (handled by builder)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Load(args)
	config.SetDevMode(cfg, true)
	logger := run.NewLogger(true)

	return New(cfg, logger).Serve(ctx, net.JoinHostPort(*host, *port))
}

// Serve builds once, watches the source trees and serves the output
// directory until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	if err := s.rebuild(ctx, "startup"); err != nil {
		// Keep serving; the next source change retries.
		s.log.Error("Initial build failed", "error", err)
	}
	defer s.closeBuilder()

	watcher, err := NewWatcher(s.cfg.Tuning().Debounce, s.log, func(name string) {
		if err := s.rebuild(ctx, name); err != nil {
			s.log.Error("Rebuild failed", "error", err)
			return
		}
		s.hub.broadcast()
	})
	if err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	if err := watcher.Add(s.cfg.ContentDir, s.cfg.TemplateDir, s.cfg.StaticDir); err != nil {
		s.log.Warn("Watch setup incomplete", "error", err)
	}
	go watcher.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.hub.handler())
	mux.HandleFunc("/", gzipHandler(fileHandler(s.cfg.OutputDir)))

	httpServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Tuning().ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Server shutdown", "error", err)
		}
	}()

	s.log.Info("Serving site", "url", "http://"+addr, "reload", "/events")
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("Server stopped")
	return nil
}

// rebuild runs one build. A template change recreates the builder:
// parsed templates are wired into the renderer at construction, so a
// plain rebuild would render through the old ones.
func (s *Server) rebuild(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.builder != nil && strings.HasPrefix(name, s.cfg.TemplateDir) {
		renderer.InvalidateTemplates(s.cfg.TemplateDir)
		if err := s.builder.Close(); err != nil {
			s.log.Warn("Builder close failed", "error", err)
		}
		s.builder = nil
	}

	if s.builder == nil {
		b, err := run.New(s.cfg, s.log)
		if err != nil {
			return err
		}
		s.builder = b
	}

	s.log.Info("Building", "trigger", name)
	return s.builder.Build(ctx)
}

func (s *Server) closeBuilder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder != nil {
		if err := s.builder.Close(); err != nil {
			s.log.Warn("Builder close failed", "error", err)
		}
		s.builder = nil
	}
}
