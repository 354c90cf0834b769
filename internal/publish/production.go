package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"faro/internal/version"
)

// DeployTimeout bounds the production trigger call. The release job
// itself runs on the hosting side; only the acknowledgment is awaited.
const DeployTimeout = 30 * time.Second

const defaultHostingAPI = "https://api.faro-hosting.dev"

// ProductionPublisher triggers a release job for the configured
// application on the hosting API. Fire-and-forget: a 2xx trigger
// acknowledgment completes the deploy, nothing polls the job.
type ProductionPublisher struct {
	AppID   string
	BaseURL string
	Token   string
	HTTP    *http.Client
	logger  *slog.Logger
}

func NewProductionPublisher(appID, apiBase, token string, logger *slog.Logger) *ProductionPublisher {
	if apiBase == "" {
		apiBase = defaultHostingAPI
	}
	return &ProductionPublisher{
		AppID:   appID,
		BaseURL: apiBase,
		Token:   token,
		HTTP:    &http.Client{Timeout: DeployTimeout},
		logger:  logger,
	}
}

// Publish requests a release of art.Branch for the application.
func (p *ProductionPublisher) Publish(ctx context.Context, art *Artifact) error {
	if p.AppID == "" {
		return fmt.Errorf("production deploy: no application ID configured")
	}

	payload, err := json.Marshal(struct {
		Branch string `json:"branch"`
		Clear  bool   `json:"clear_cache"`
	}{Branch: art.Branch, Clear: true})
	if err != nil {
		return fmt.Errorf("encode release request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/apps/%s/releases", p.BaseURL, p.AppID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("trigger release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trigger release: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	p.logger.Info("Production release triggered", "app", p.AppID, "branch", art.Branch)
	return nil
}
