package new

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"My New Post", "my-new-post"},
		{"CamelCase Title", "camelcase-title"},
		{"  Spaces  Around  ", "spaces-around"},
		{"What: a \"test\"?", "what-a-test"},
		{`<>:"/\|?*`, ""},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tc := range cases {
		if got := SanitizeSlug(tc.title); got != tc.want {
			t.Errorf("SanitizeSlug(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestRunCreatesPost(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := Run([]string{"My First Post"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join("content", "my-first-post.md"))
	if err != nil {
		t.Fatalf("scaffolded file missing: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, `title: "My First Post"`) {
		t.Errorf("front matter should carry the title, got %q", content)
	}
	if !strings.Contains(content, time.Now().Format("2006-01-02")) {
		t.Error("front matter should carry today's date")
	}
	if !strings.HasPrefix(content, "---\n") {
		t.Error("file should open with a front matter block")
	}
}

func TestRunRefusesOverwrite(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := Run([]string{"Duplicate"}); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if err := Run([]string{"Duplicate"}); err == nil {
		t.Error("second Run should refuse to overwrite")
	}
}

func TestRunRejectsEmptyTitles(t *testing.T) {
	if err := Run(nil); err == nil {
		t.Error("Run without a title should fail")
	}
	if err := Run([]string{"  "}); err == nil {
		t.Error("Run with a blank title should fail")
	}
	if err := Run([]string{`<>`}); err == nil {
		t.Error("a title that sanitizes to nothing should fail")
	}
}
