package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestValidatePathStaysInsideBase(t *testing.T) {
	base := t.TempDir()
	absBase, err := filepath.Abs(base)
	if err != nil {
		t.Fatal(err)
	}

	paths := []string{
		"/",
		"/index.html",
		"/posts/alpha/index.html",
		"/../../etc/passwd",
		"/a/../../../x",
		"//double//slash",
	}
	for _, p := range paths {
		got, err := validatePath(base, p)
		if err != nil {
			t.Errorf("validatePath(%q) failed: %v", p, err)
			continue
		}
		if got != absBase && !strings.HasPrefix(got, absBase+string(filepath.Separator)) {
			t.Errorf("validatePath(%q) = %q escapes %q", p, got, absBase)
		}
	}
}

func TestIsHashedAsset(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"layout.X3KJQZ2M.css", true},
		{"main.a1b2c3d4.js", true},
		{"main.min.ABCD2345.css", true},
		{"main.css", false},
		{"index.html", false},
		{"site.webmanifest", false},
		{"img.photo1.png", false},
		{"main.abc-1234.css", false},
	}
	for _, tc := range cases {
		if got := isHashedAsset(tc.name); got != tc.want {
			t.Errorf("isHashedAsset(%q) = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestGzipHandlerCompresses(t *testing.T) {
	handler := gzipHandler(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello from the dev server"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("response is not valid gzip: %v", err)
	}
	body, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello from the dev server" {
		t.Errorf("decompressed body = %q", body)
	}
}

func TestGzipHandlerPassthrough(t *testing.T) {
	handler := gzipHandler(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want none", got)
	}
	if rec.Body.String() != "plain" {
		t.Errorf("body = %q, want plain", rec.Body.String())
	}
}

func setupSiteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":             "<html>home</html>",
		"404.html":               "<html>custom not found</html>",
		"posts/alpha/index.html": "<html>alpha</html>",
		"css/main.X3KJQZ2M.css":  "body{}",
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFileHandlerServesPages(t *testing.T) {
	handler := fileHandler(setupSiteDir(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "home") {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("pages should not cache, got Cache-Control %q", cc)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/posts/alpha/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alpha") {
		t.Errorf("GET /posts/alpha/ = %d %q", rec.Code, rec.Body.String())
	}
}

func TestFileHandlerHashedAssetCaching(t *testing.T) {
	handler := fileHandler(setupSiteDir(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/css/main.X3KJQZ2M.css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET hashed asset = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("hashed assets should cache forever, got %q", cc)
	}
}

func TestFileHandlerCustom404(t *testing.T) {
	handler := fileHandler(setupSiteDir(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/no/such/page", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "custom not found") {
		t.Errorf("404 body = %q, want the site's 404 page", rec.Body.String())
	}
}
