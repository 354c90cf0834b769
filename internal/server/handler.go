package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// validatePath resolves a request path inside root and rejects
// anything that would escape it.
func validatePath(root, reqPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}

	joined, err := filepath.Abs(filepath.Join(absRoot, filepath.Clean("/"+reqPath)))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", reqPath, err)
	}

	rel, err := filepath.Rel(absRoot, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s escapes the served directory", reqPath)
	}
	return joined, nil
}

// isHashedAsset reports whether a filename carries a content hash
// (layout.X3KJQZ2M.css). esbuild emits 8-character base32 hashes;
// hashed assets are immutable and can cache forever.
func isHashedAsset(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	i := strings.LastIndexByte(stem, '.')
	if i < 0 || len(stem)-i != 9 {
		return false
	}
	for _, c := range stem[i+1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// setCacheHeaders picks the cache policy by file class: hashed assets
// never change, pages must revalidate every load, everything else gets
// a minute.
func setCacheHeaders(w http.ResponseWriter, path string, isDir bool) {
	name := filepath.Base(path)
	switch {
	case isHashedAsset(name):
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	case isDir || strings.HasSuffix(name, ".html"):
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
	default:
		w.Header().Set("Cache-Control", "public, max-age=60")
	}
}

type gzipWriter struct {
	io.Writer
	http.ResponseWriter
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

func (g *gzipWriter) WriteHeader(code int) {
	// The compressed length is unknown up front.
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

// gzipHandler compresses responses for clients that accept it. The
// event stream must not pass through here: buffering breaks SSE.
func gzipHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		defer func() { _ = zw.Close() }()
		next(&gzipWriter{Writer: zw, ResponseWriter: w}, r)
	}
}

// fileHandler serves the output directory with the site's own 404 page
// for misses.
func fileHandler(dir string) http.HandlerFunc {
	static := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		target, err := validatePath(dir, r.URL.Path)
		if err != nil {
			http.Error(w, "403 - Forbidden", http.StatusForbidden)
			return
		}

		info, err := os.Stat(target)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			serveNotFound(w, dir)
		case err != nil:
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		default:
			setCacheHeaders(w, target, info.IsDir())
			static.ServeHTTP(w, r)
		}
	}
}

func serveNotFound(w http.ResponseWriter, dir string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if page, err := os.ReadFile(filepath.Join(dir, "404.html")); err == nil {
		_, _ = w.Write(page)
		return
	}
	_, _ = w.Write([]byte("404 page not found"))
}
