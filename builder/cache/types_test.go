package cache

import (
	"reflect"
	"testing"
	"time"

	"faro/builder/models"
)

func TestHashBytes(t *testing.T) {
	h1 := HashBytes([]byte("hello world"))
	h2 := HashBytes([]byte("hello world"))
	h3 := HashBytes([]byte("hello worlds"))

	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64 hex chars", len(h1))
	}
	if h1 != h2 {
		t.Error("Same content should hash identically")
	}
	if h1 == h3 {
		t.Error("Different content should hash differently")
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") != HashBytes([]byte("abc")) {
		t.Error("HashString should agree with HashBytes")
	}
}

func TestPostIDFor_Normalizes(t *testing.T) {
	base := PostIDFor("posts/notes/Weekly.md")

	for _, path := range []string{
		"posts\\notes\\Weekly.md",
		"POSTS/NOTES/WEEKLY.MD",
		"posts/notes/weekly.md",
	} {
		if got := PostIDFor(path); got != base {
			t.Errorf("PostIDFor(%q) = %q, want %q", path, got, base)
		}
	}

	if PostIDFor("posts/other.md") == base {
		t.Error("Distinct paths should yield distinct IDs")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	lastMod := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	original := &PostMeta{
		PostID:      "id-1",
		Path:        "posts/roundtrip.md",
		ModTime:     1700000000,
		ContentHash: "hash",
		InlineHTML:  []byte("<p>body</p>"),
		Slug:        "roundtrip",
		Link:        "/blog/roundtrip/",
		Title:       "Roundtrip",
		Description: "Encode then decode",
		Categories:  []string{"testing"},
		Tags:        []string{"msgpack", "cache"},
		Keywords:    []string{"msgpack", "cache", "testing"},
		Date:        time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		LastMod:     &lastMod,
		ReadingTime: 4,
		WordCount:   800,
		Pinned:      true,
		HasMath:     true,
		Plain:       "Encode then decode",
		TOC: []models.TOCEntry{
			{ID: "intro", Text: "Intro", Level: 2},
			{ID: "details", Text: "Details", Level: 3},
		},
	}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded PostMeta
	if err := Decode(data, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Title != original.Title {
		t.Errorf("Title = %q, want %q", decoded.Title, original.Title)
	}
	if !decoded.Date.Equal(original.Date) {
		t.Errorf("Date = %v, want %v", decoded.Date, original.Date)
	}
	if decoded.LastMod == nil || !decoded.LastMod.Equal(lastMod) {
		t.Errorf("LastMod = %v, want %v", decoded.LastMod, lastMod)
	}
	if !reflect.DeepEqual(decoded.Tags, original.Tags) {
		t.Errorf("Tags = %v, want %v", decoded.Tags, original.Tags)
	}
	if !reflect.DeepEqual(decoded.TOC, original.TOC) {
		t.Errorf("TOC = %v, want %v", decoded.TOC, original.TOC)
	}
	if string(decoded.InlineHTML) != string(original.InlineHTML) {
		t.Errorf("InlineHTML = %q, want %q", decoded.InlineHTML, original.InlineHTML)
	}
}

func TestFromPost_ToPost(t *testing.T) {
	post := &models.Post{
		Slug:        "lifecycle",
		SourcePath:  "posts/Lifecycle.md",
		RelPath:     "posts/lifecycle",
		Link:        "/blog/lifecycle/",
		Title:       "Cache Lifecycle",
		Description: "From post to record and back",
		AuthorKey:   "jane",
		Categories:  []string{"internals"},
		Tags:        []string{"cache"},
		Keywords:    []string{"cache", "internals"},
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ReadingTime: 3,
		WordCount:   600,
		Plain:       "From post to record and back",
	}

	meta := FromPost(post)
	if meta.PostID != PostIDFor(post.SourcePath) {
		t.Error("FromPost should derive the PostID from the source path")
	}
	if meta.Path != "posts/lifecycle.md" {
		t.Errorf("Path = %q, want normalized %q", meta.Path, "posts/lifecycle.md")
	}

	restored := meta.ToPost([]byte("<p>rendered</p>"))
	if restored.Title != post.Title {
		t.Errorf("Title = %q, want %q", restored.Title, post.Title)
	}
	if string(restored.Body) != "<p>rendered</p>" {
		t.Errorf("Body = %q, want rendered HTML", restored.Body)
	}
	if restored.Future {
		t.Error("Past-dated post should not be marked future")
	}
}

func TestToPost_RecomputesFuture(t *testing.T) {
	meta := &PostMeta{
		Title: "Scheduled",
		Date:  time.Now().Add(48 * time.Hour),
	}
	if !meta.ToPost(nil).Future {
		t.Error("Post dated in the future should be marked future")
	}

	meta.Date = time.Now().Add(-48 * time.Hour)
	if meta.ToPost(nil).Future {
		t.Error("Post dated in the past should not be marked future")
	}
}

func TestCompressionFor(t *testing.T) {
	tests := []struct {
		size int
		want CompressionType
	}{
		{100, CompressionNone},
		{RawThreshold - 1, CompressionNone},
		{RawThreshold, CompressionZstdFast},
		{FastZstdMax - 1, CompressionZstdFast},
		{FastZstdMax, CompressionZstdLevel3},
		{10 * 1024 * 1024, CompressionZstdLevel3},
	}

	for _, tt := range tests {
		if got := compressionFor(tt.size); got != tt.want {
			t.Errorf("compressionFor(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}
