package related

import (
	"testing"
	"time"

	"faro/builder/index"
	"faro/builder/models"
)

func newPost(t *testing.T, slug, date string, tags, categories []string) *models.Post {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return &models.Post{
		Slug:       slug,
		SourcePath: slug + ".md",
		Link:       "/" + slug + ".html",
		Title:      slug,
		Date:       d,
		Tags:       tags,
		Categories: categories,
	}
}

func buildIndex(t *testing.T, posts ...*models.Post) *index.Index {
	t.Helper()
	idx, err := index.Build(posts, index.Options{})
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}
	return idx
}

func slugs(posts []*models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}

func TestMatch_TagOverlapRanking(t *testing.T) {
	subject := newPost(t, "subject", "2024-05-01", []string{"go", "testing"}, nil)
	double := newPost(t, "double", "2023-01-01", []string{"go", "testing"}, nil)
	singleNew := newPost(t, "single-new", "2024-04-01", []string{"go"}, nil)
	singleOld := newPost(t, "single-old", "2023-06-01", []string{"testing"}, nil)
	unrelated := newPost(t, "unrelated", "2024-06-01", []string{"cooking"}, nil)

	idx := buildIndex(t, subject, double, singleNew, singleOld, unrelated)

	got := Match(subject, idx, Options{})
	want := []string{"double", "single-new", "single-old"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", slugs(got), want)
	}
	for i, w := range want {
		if got[i].Slug != w {
			t.Errorf("position %d: got %q, want %q", i, got[i].Slug, w)
		}
	}
}

func TestMatch_Truncation(t *testing.T) {
	subject := newPost(t, "subject", "2024-05-01", []string{"go"}, nil)
	posts := []*models.Post{subject}
	for _, d := range []string{"2024-01-01", "2024-02-01", "2024-03-01"} {
		posts = append(posts, newPost(t, "peer-"+d, d, []string{"go"}, nil))
	}
	idx := buildIndex(t, posts...)

	got := Match(subject, idx, Options{Max: 2})
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	// Most recent peers win the tie at one shared tag each.
	if got[0].Slug != "peer-2024-03-01" || got[1].Slug != "peer-2024-02-01" {
		t.Errorf("got %v", slugs(got))
	}
}

func TestMatch_MinShared(t *testing.T) {
	subject := newPost(t, "subject", "2024-05-01", []string{"go", "testing"}, nil)
	single := newPost(t, "single", "2024-04-01", []string{"go"}, nil)
	idx := buildIndex(t, subject, single)

	if got := Match(subject, idx, Options{MinShared: 2}); len(got) != 0 {
		t.Errorf("single-overlap post passed MinShared=2: %v", slugs(got))
	}
	if got := Match(subject, idx, Options{MinShared: 1}); len(got) != 1 {
		t.Errorf("expected one match at MinShared=1, got %v", slugs(got))
	}
}

func TestMatch_CategoryFallback(t *testing.T) {
	subject := newPost(t, "subject", "2024-05-01", []string{"obscure"}, []string{"projects", "go"})
	sibNew := newPost(t, "sibling-new", "2024-04-01", nil, []string{"projects"})
	sibOld := newPost(t, "sibling-old", "2023-04-01", nil, []string{"projects"})
	otherCat := newPost(t, "other-cat", "2024-04-15", nil, []string{"go"})

	idx := buildIndex(t, subject, sibNew, sibOld, otherCat)

	got := Match(subject, idx, Options{})
	// Primary category only: "projects", newest first.
	want := []string{"sibling-new", "sibling-old"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", slugs(got), want)
	}
	for i, w := range want {
		if got[i].Slug != w {
			t.Errorf("position %d: got %q, want %q", i, got[i].Slug, w)
		}
	}
}

func TestMatch_EmptyTerminal(t *testing.T) {
	subject := newPost(t, "subject", "2024-05-01", []string{"lonely"}, nil)
	other := newPost(t, "other", "2024-04-01", []string{"different"}, []string{"elsewhere"})
	idx := buildIndex(t, subject, other)

	if got := Match(subject, idx, Options{}); len(got) != 0 {
		t.Errorf("expected empty result, got %v", slugs(got))
	}
}

func TestMatch_ExcludesSelf(t *testing.T) {
	subject := newPost(t, "subject", "2024-05-01", []string{"go"}, []string{"go"})
	idx := buildIndex(t, subject)

	if got := Match(subject, idx, Options{}); len(got) != 0 {
		t.Errorf("post matched itself: %v", slugs(got))
	}
}
