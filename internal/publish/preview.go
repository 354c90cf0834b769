package publish

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// CommentMarker locates the pipeline's own comment on a pull request,
// so a second deploy updates it instead of posting another.
const CommentMarker = "<!-- faro-preview -->"

// Notifier maintains the preview comment on the branch's open pull
// request.
type Notifier interface {
	FindOpenPR(ctx context.Context, branch string) (int, error)
	UpsertComment(ctx context.Context, number int, marker, body string) error
}

// PreviewPublisher deploys the artifact into a per-branch directory on
// a dedicated orphan branch. Deploys for different branches touch
// disjoint directories, so the directory scope is the concurrency
// boundary; the only shared file is the root index, which is rebuilt
// from the directory listing on every deploy rather than patched.
type PreviewPublisher struct {
	Remote  string // git URL of the repository hosting previews
	Branch  string // publishing branch name
	BaseURL string // public URL previews are served under
	Notify  Notifier

	// GitTimeout bounds each git subprocess; zero keeps the runner's
	// default.
	GitTimeout time.Duration

	logger *slog.Logger
}

func NewPreviewPublisher(remote, branch, baseURL string, notify Notifier, logger *slog.Logger) *PreviewPublisher {
	return &PreviewPublisher{
		Remote:  remote,
		Branch:  branch,
		BaseURL: baseURL,
		Notify:  notify,
		logger:  logger,
	}
}

// SanitizeBranchDir maps a branch name onto its preview directory
// name: lower-cased, every byte outside [a-z0-9] becomes '-'. One
// deterministic bytewise rule with no collapsing or trimming, so
// "Fix/Issue #42" always lands in "fix-issue--42".
func SanitizeBranchDir(branch string) string {
	lowered := strings.ToLower(branch)
	out := make([]byte, len(lowered))
	for i := 0; i < len(lowered); i++ {
		c := lowered[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			out[i] = c
		} else {
			out[i] = '-'
		}
	}
	return string(out)
}

// Publish stages the artifact into the branch's preview directory,
// regenerates the root index, pushes, and upserts the PR comment.
func (p *PreviewPublisher) Publish(ctx context.Context, art *Artifact) error {
	if !GitAvailable() {
		return fmt.Errorf("preview deploy: git not found in PATH")
	}
	if p.Remote == "" {
		return fmt.Errorf("preview deploy: no preview remote configured")
	}

	dir := SanitizeBranchDir(art.Branch)
	if dir == "" {
		return fmt.Errorf("preview deploy: branch %q sanitizes to an empty directory name", art.Branch)
	}

	work, err := os.MkdirTemp("", "faro-preview-")
	if err != nil {
		return fmt.Errorf("preview workspace: %w", err)
	}
	defer func() { _ = os.RemoveAll(work) }()

	git := NewGitRunner(work)
	if p.GitTimeout > 0 {
		git.Timeout = p.GitTimeout
	}
	if err := p.checkout(ctx, git); err != nil {
		return err
	}

	// Replace this branch's directory wholesale; other branches' trees
	// are never touched.
	target := filepath.Join(work, dir)
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("clear preview dir %s: %w", dir, err)
	}
	if err := copyTree(art.Root, target); err != nil {
		return fmt.Errorf("stage preview tree: %w", err)
	}

	if err := p.writeRootIndex(work); err != nil {
		return err
	}

	if err := git.AddAll(ctx); err != nil {
		return err
	}
	if git.HasStagedChanges(ctx) {
		if err := git.Commit(ctx, "preview: "+art.Branch); err != nil {
			return err
		}
		if err := git.Push(ctx, "origin", p.Branch); err != nil {
			return err
		}
		p.logger.Info("Preview pushed", "branch", art.Branch, "dir", dir)
	} else {
		p.logger.Info("Preview unchanged, nothing to push", "branch", art.Branch)
	}

	return p.notify(ctx, art.Branch, dir)
}

// checkout materializes the publishing branch in the work dir,
// creating it as an orphan with a placeholder on first use.
func (p *PreviewPublisher) checkout(ctx context.Context, git *GitRunner) error {
	if err := git.Init(ctx); err != nil {
		return err
	}
	if err := git.AddRemote(ctx, "origin", p.Remote); err != nil {
		return err
	}

	if err := git.FetchBranch(ctx, "origin", p.Branch); err == nil {
		return git.CheckoutFetched(ctx, p.Branch)
	}

	p.logger.Info("Creating publishing branch", "branch", p.Branch)
	if err := git.CheckoutOrphan(ctx, p.Branch); err != nil {
		return err
	}
	readme := "# Previews\n\nThis branch hosts faro preview deployments. Do not edit by hand.\n"
	if err := os.WriteFile(filepath.Join(git.Dir, "README.md"), []byte(readme), 0644); err != nil {
		return fmt.Errorf("write placeholder: %w", err)
	}
	return nil
}

var previewIndexTemplate = template.Must(template.New("previews").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Previews</title></head>
<body>
<h1>Previews</h1>
<ul>
{{- range .Dirs}}
<li><a href="{{$.BaseURL}}/{{.}}/">{{.}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

// writeRootIndex regenerates the branch-root index.html from the
// current directory listing. Full recomputation keeps concurrent
// branch deploys safe: the file never carries state the listing does
// not show.
func (p *PreviewPublisher) writeRootIndex(work string) error {
	entries, err := os.ReadDir(work)
	if err != nil {
		return err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)

	f, err := os.Create(filepath.Join(work, "index.html"))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	data := struct {
		BaseURL string
		Dirs    []string
	}{strings.TrimSuffix(p.BaseURL, "/"), dirs}
	if err := previewIndexTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render preview index: %w", err)
	}
	return f.Close()
}

// notify upserts the PR comment. A branch with no open pull request is
// not an error; the deploy already succeeded.
func (p *PreviewPublisher) notify(ctx context.Context, branch, dir string) error {
	if p.Notify == nil {
		return nil
	}
	number, err := p.Notify.FindOpenPR(ctx, branch)
	if errors.Is(err, ErrNoPR) {
		p.logger.Info("No open pull request, skipping comment", "branch", branch)
		return nil
	}
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/", strings.TrimSuffix(p.BaseURL, "/"), dir)
	body := fmt.Sprintf("%s\n🔍 Preview for `%s` is live: %s", CommentMarker, branch, url)
	if err := p.Notify.UpsertComment(ctx, number, CommentMarker, body); err != nil {
		return fmt.Errorf("pull request comment: %w", err)
	}
	p.logger.Info("Preview comment updated", "pr", number)
	return nil
}

// copyTree copies a directory recursively, skipping the build lock.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.Name() == ".faro-build.lock" {
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer func() { _ = out.Close() }()

		if _, err := io.Copy(out, in); err != nil {
			return err
		}
		return out.Close()
	})
}
