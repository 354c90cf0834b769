package publish

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultGitTimeout bounds every git invocation; a hung remote should
// fail the deploy, not the CI job's global timeout.
const DefaultGitTimeout = 60 * time.Second

// GitAvailable reports whether a git binary is on PATH.
func GitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// GitRunner executes git commands against one working directory.
type GitRunner struct {
	Dir     string
	Timeout time.Duration
}

func NewGitRunner(dir string) *GitRunner {
	return &GitRunner{Dir: dir, Timeout: DefaultGitTimeout}
}

// run executes one git command and returns its trimmed stdout. Errors
// carry the command line and trimmed stderr so push failures read as
// git's own diagnostics.
func (g *GitRunner) run(ctx context.Context, args ...string) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Init creates an empty repository in the runner's directory.
func (g *GitRunner) Init(ctx context.Context) error {
	_, err := g.run(ctx, "init", "-q")
	return err
}

// AddRemote registers a named remote.
func (g *GitRunner) AddRemote(ctx context.Context, name, url string) error {
	_, err := g.run(ctx, "remote", "add", name, url)
	return err
}

// FetchBranch fetches a single branch shallowly. It fails when the
// remote has no such branch, which callers use to detect first use.
func (g *GitRunner) FetchBranch(ctx context.Context, remote, branch string) error {
	_, err := g.run(ctx, "fetch", "-q", "--depth", "1", remote, branch)
	return err
}

// CheckoutFetched creates branch at FETCH_HEAD and switches to it.
func (g *GitRunner) CheckoutFetched(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "checkout", "-q", "-b", branch, "FETCH_HEAD")
	return err
}

// CheckoutOrphan switches to a new branch with no history. The first
// commit on it starts the publishing branch from scratch.
func (g *GitRunner) CheckoutOrphan(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "checkout", "-q", "--orphan", branch)
	return err
}

// AddAll stages every change in the working tree.
func (g *GitRunner) AddAll(ctx context.Context) error {
	_, err := g.run(ctx, "add", "-A")
	return err
}

// HasStagedChanges reports whether a commit would have content.
func (g *GitRunner) HasStagedChanges(ctx context.Context) bool {
	// diff --cached --quiet exits non-zero when something is staged.
	_, err := g.run(ctx, "diff", "--cached", "--quiet")
	return err != nil
}

// Commit records the staged tree with a fixed deploy identity, so
// publishes work in CI environments with no git config of their own.
func (g *GitRunner) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx,
		"-c", "user.name=faro",
		"-c", "user.email=faro@localhost",
		"commit", "-q", "-m", message)
	return err
}

// Push updates the remote branch.
func (g *GitRunner) Push(ctx context.Context, remote, branch string) error {
	_, err := g.run(ctx, "push", "-q", remote, branch)
	return err
}
