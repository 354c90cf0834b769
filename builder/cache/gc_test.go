package cache

import (
	"bytes"
	"os"
	"testing"
)

// commitLargePost stores a post whose body lands in the content store
// and returns its blob hash.
func commitLargePost(t *testing.T, m *Manager, path string) string {
	t.Helper()
	post := samplePostMeta(path)
	body := bytes.Repeat([]byte("<p>filler paragraph</p>"), 2000)
	if err := m.StoreHTML(post, body); err != nil {
		t.Fatalf("store body: %v", err)
	}
	if post.HTMLHash == "" {
		t.Fatal("Test body should be store-backed")
	}
	if err := m.BatchCommit([]*PostMeta{post}); err != nil {
		t.Fatalf("commit batch: %v", err)
	}
	return post.HTMLHash
}

func writeCardFile(t *testing.T, m *Manager, hash string) {
	t.Helper()
	if err := os.MkdirAll(m.SocialCardDir(), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(m.SocialCardPath(hash), []byte("webp"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestShouldRunGC_TooFewBuilds(t *testing.T) {
	m := createTestCache(t)

	run, reason := m.ShouldRunGC(DefaultGCConfig())
	if run {
		t.Errorf("Fresh cache should not trigger GC: %s", reason)
	}
}

func TestShouldRunGC_Due(t *testing.T) {
	m := createTestCache(t)

	for i := 0; i < 2; i++ {
		if err := m.BatchCommit([]*PostMeta{samplePostMeta("posts/a.md")}); err != nil {
			t.Fatalf("commit batch: %v", err)
		}
	}

	cfg := GCConfig{MinBuildsBetweenGC: 2}
	if run, reason := m.ShouldRunGC(cfg); !run {
		t.Errorf("GC should be due after 2 builds: %s", reason)
	}
}

func TestRunGC_SweepsOrphans(t *testing.T) {
	m := createTestCache(t)

	liveHash := commitLargePost(t, m, "posts/alive.md")

	orphanBody := bytes.Repeat([]byte("<p>orphaned content</p>"), 2000)
	orphanHash, _, err := m.Store().Put(CategoryHTML, orphanBody)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := m.SetSocialCardHash("posts/alive.md", "livecard"); err != nil {
		t.Fatalf("set card hash: %v", err)
	}
	writeCardFile(t, m, "livecard")
	writeCardFile(t, m, "orphancard")

	result, err := m.RunGC(GCConfig{})
	if err != nil {
		t.Fatalf("RunGC failed: %v", err)
	}

	if result.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", result.Deleted)
	}
	if result.Live != 2 {
		t.Errorf("Live = %d, want 2", result.Live)
	}
	if result.BytesFreed <= 0 {
		t.Error("BytesFreed should be positive")
	}

	if !m.Store().Exists(CategoryHTML, liveHash) {
		t.Error("Live blob should survive GC")
	}
	if m.Store().Exists(CategoryHTML, orphanHash) {
		t.Error("Orphan blob should be swept")
	}
	if _, err := os.Stat(m.SocialCardPath("livecard")); err != nil {
		t.Error("Live card should survive GC")
	}
	if _, err := os.Stat(m.SocialCardPath("orphancard")); !os.IsNotExist(err) {
		t.Error("Orphan card should be swept")
	}
}

func TestRunGC_ResetsBuildCounter(t *testing.T) {
	m := createTestCache(t)

	if err := m.BatchCommit([]*PostMeta{samplePostMeta("posts/a.md")}); err != nil {
		t.Fatalf("commit batch: %v", err)
	}

	cfg := GCConfig{MinBuildsBetweenGC: 1}
	if run, _ := m.ShouldRunGC(cfg); !run {
		t.Fatal("GC should be due before the run")
	}

	if _, err := m.RunGC(cfg); err != nil {
		t.Fatalf("RunGC failed: %v", err)
	}

	if run, _ := m.ShouldRunGC(cfg); run {
		t.Error("GC should not be due right after a run")
	}

	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if stats.LastGC == 0 {
		t.Error("LastGC timestamp should be recorded")
	}
}

func TestRunGC_DryRun(t *testing.T) {
	m := createTestCache(t)

	orphanBody := bytes.Repeat([]byte("<p>orphaned content</p>"), 2000)
	orphanHash, _, err := m.Store().Put(CategoryHTML, orphanBody)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, err := m.RunGC(GCConfig{DryRun: true})
	if err != nil {
		t.Fatalf("RunGC failed: %v", err)
	}

	if result.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1 reported", result.Deleted)
	}
	if !m.Store().Exists(CategoryHTML, orphanHash) {
		t.Error("Dry run should not delete blobs")
	}
}

func TestVerify_CleanCache(t *testing.T) {
	m := createTestCache(t)

	commitLargePost(t, m, "posts/alive.md")

	problems, err := m.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("Clean cache should verify, got %v", problems)
	}
}

func TestVerify_DetectsMissingBlob(t *testing.T) {
	m := createTestCache(t)

	hash := commitLargePost(t, m, "posts/alive.md")
	if err := m.Store().Delete(CategoryHTML, hash); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	problems, err := m.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(problems) == 0 {
		t.Error("Verify should report the missing blob")
	}
}

func TestClear_EmptiesAndReopens(t *testing.T) {
	m := createTestCache(t)

	commitLargePost(t, m, "posts/alive.md")

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	ids, err := m.ListAllPosts()
	if err != nil {
		t.Fatalf("ListAllPosts() after clear failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Cleared cache should be empty, got %d posts", len(ids))
	}

	// The manager stays usable after a clear.
	if err := m.BatchCommit([]*PostMeta{samplePostMeta("posts/fresh.md")}); err != nil {
		t.Errorf("BatchCommit() after clear failed: %v", err)
	}
}
