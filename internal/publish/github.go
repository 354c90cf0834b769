package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"faro/internal/version"
)

var (
	// ErrForbidden marks an actor without elevated repository
	// permission. It rejects the publish; it is never retried.
	ErrForbidden = errors.New("insufficient repository permission")

	// ErrNoPR means the branch has no open pull request to notify.
	ErrNoPR = errors.New("no open pull request for branch")
)

const (
	defaultAPIBase = "https://api.github.com"
	apiTimeout     = 30 * time.Second
)

// Client is a minimal GitHub REST client scoped to the repository the
// site publishes from. It implements both Authorizer and Notifier.
type Client struct {
	Repo    string // owner/name
	Token   string
	BaseURL string
	HTTP    *http.Client
	logger  *slog.Logger
}

func NewClient(repo, token string, logger *slog.Logger) *Client {
	return &Client{
		Repo:    repo,
		Token:   token,
		BaseURL: defaultAPIBase,
		HTTP:    &http.Client{Timeout: apiTimeout},
		logger:  logger,
	}
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("github api: HTTP %d: %s", e.Status, e.Body)
}

// do sends one JSON request and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Permission returns the role actor holds on the repository: admin,
// maintain, write, triage, read or none. A 404 means the actor is not
// a collaborator at all.
func (c *Client) Permission(ctx context.Context, actor string) (string, error) {
	var out struct {
		Permission string `json:"permission"`
		RoleName   string `json:"role_name"`
	}
	path := fmt.Sprintf("/repos/%s/collaborators/%s/permission", c.Repo, url.PathEscape(actor))
	err := c.do(ctx, http.MethodGet, path, nil, &out)

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return "none", nil
	}
	if err != nil {
		return "", err
	}
	// role_name carries the fine-grained role; the legacy permission
	// field collapses maintain into write.
	if out.RoleName != "" {
		return out.RoleName, nil
	}
	return out.Permission, nil
}

// Authorize implements the deploy gate: only admin, write and maintain
// roles may trigger a deploy.
func (c *Client) Authorize(ctx context.Context, actor string) error {
	perm, err := c.Permission(ctx, actor)
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	switch perm {
	case "admin", "write", "maintain":
		return nil
	}
	return fmt.Errorf("%q permission: %w", perm, ErrForbidden)
}

// FindOpenPR returns the number of the open pull request whose head is
// branch, or ErrNoPR when there is none.
func (c *Client) FindOpenPR(ctx context.Context, branch string) (int, error) {
	var prs []struct {
		Number int `json:"number"`
	}
	path := fmt.Sprintf("/repos/%s/pulls?state=open&head=%s",
		c.Repo, url.QueryEscape(c.owner()+":"+branch))
	if err := c.do(ctx, http.MethodGet, path, nil, &prs); err != nil {
		return 0, fmt.Errorf("list pull requests: %w", err)
	}
	if len(prs) == 0 {
		return 0, fmt.Errorf("branch %s: %w", branch, ErrNoPR)
	}
	return prs[0].Number, nil
}

// UpsertComment posts body as the single pipeline comment on PR
// number: an existing comment carrying marker is updated in place,
// otherwise a new comment is created. Running a deploy twice therefore
// never duplicates the notification.
func (c *Client) UpsertComment(ctx context.Context, number int, marker, body string) error {
	var comments []struct {
		ID   int64  `json:"id"`
		Body string `json:"body"`
	}
	listPath := fmt.Sprintf("/repos/%s/issues/%d/comments?per_page=100", c.Repo, number)
	if err := c.do(ctx, http.MethodGet, listPath, nil, &comments); err != nil {
		return fmt.Errorf("list comments: %w", err)
	}

	payload := map[string]string{"body": body}
	for _, cm := range comments {
		if strings.Contains(cm.Body, marker) {
			patch := fmt.Sprintf("/repos/%s/issues/comments/%d", c.Repo, cm.ID)
			if err := c.do(ctx, http.MethodPatch, patch, payload, nil); err != nil {
				return fmt.Errorf("update comment %d: %w", cm.ID, err)
			}
			return nil
		}
	}

	post := fmt.Sprintf("/repos/%s/issues/%d/comments", c.Repo, number)
	if err := c.do(ctx, http.MethodPost, post, payload, nil); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (c *Client) owner() string {
	owner, _, _ := strings.Cut(c.Repo, "/")
	return owner
}
