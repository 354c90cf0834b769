package publish

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func gitOrSkip(t *testing.T) {
	t.Helper()
	if !GitAvailable() {
		t.Skip("git not installed")
	}
}

func TestGitRunnerCommitCycle(t *testing.T) {
	gitOrSkip(t)
	ctx := context.Background()

	g := NewGitRunner(t.TempDir())
	if err := g.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if g.HasStagedChanges(ctx) {
		t.Error("fresh repository should have nothing staged")
	}

	if err := os.WriteFile(filepath.Join(g.Dir, "hello.txt"), []byte("hi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := g.AddAll(ctx); err != nil {
		t.Fatalf("AddAll failed: %v", err)
	}
	if !g.HasStagedChanges(ctx) {
		t.Error("staged file should be reported")
	}

	if err := g.Commit(ctx, "first"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if g.HasStagedChanges(ctx) {
		t.Error("nothing should remain staged after commit")
	}
}

func TestGitRunnerErrorCarriesCommand(t *testing.T) {
	gitOrSkip(t)
	ctx := context.Background()

	g := NewGitRunner(t.TempDir())
	if err := g.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, err := g.run(ctx, "checkout", "no-such-branch")
	if err == nil {
		t.Fatal("checkout of a missing branch should fail")
	}
	if !strings.Contains(err.Error(), "git checkout") {
		t.Errorf("error %q should name the git command", err)
	}
}
