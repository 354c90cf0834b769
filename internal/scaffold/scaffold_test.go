package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunLaysOutSite(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := Run(nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, dir := range []string{"content", "themes", "public"} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s missing", dir)
		}
	}

	cfg, err := os.ReadFile("faro.yaml")
	if err != nil {
		t.Fatalf("faro.yaml missing: %v", err)
	}
	if !strings.Contains(string(cfg), "theme:") {
		t.Error("starter config should set a theme")
	}

	post, err := os.ReadFile(filepath.Join("content", "hello-world.md"))
	if err != nil {
		t.Fatalf("first post missing: %v", err)
	}
	if !strings.Contains(string(post), `title: "Hello World"`) {
		t.Error("first post should carry front matter")
	}

	layout, err := os.ReadFile(filepath.Join("themes", "default", "templates", "layout.html"))
	if err != nil {
		t.Fatalf("default theme not unpacked: %v", err)
	}
	if !strings.Contains(string(layout), "{{.TabTitle}}") {
		t.Error("unpacked layout should be the real template")
	}
	if _, err := os.Stat(filepath.Join("themes", "default", "static", "css", "main.css")); err != nil {
		t.Errorf("theme stylesheet missing: %v", err)
	}
}

func TestRunKeepsExistingTheme(t *testing.T) {
	t.Chdir(t.TempDir())

	custom := filepath.Join("themes", "default", "templates")
	if err := os.MkdirAll(custom, 0755); err != nil {
		t.Fatal(err)
	}
	mine := []byte("<html>mine</html>")
	if err := os.WriteFile(filepath.Join(custom, "layout.html"), mine, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Run(nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(custom, "layout.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(mine) {
		t.Error("an existing theme must never be overwritten")
	}
}

func TestRunKeepsExistingConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	custom := "title: \"Mine\"\n"
	if err := os.WriteFile("faro.yaml", []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Run(nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile("faro.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != custom {
		t.Error("an existing faro.yaml must never be overwritten")
	}
}
