package publish

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProductionPublisherTriggersRelease(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload struct {
		Branch string `json:"branch"`
		Clear  bool   `json:"clear_cache"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewProductionPublisher("app-1", srv.URL, "secret", logger)
	p.HTTP = srv.Client()

	err := p.Publish(context.Background(), &Artifact{Branch: "main"})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if want := "/apps/app-1/releases"; gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", gotAuth)
	}
	if gotPayload.Branch != "main" {
		t.Errorf("branch = %q, want main", gotPayload.Branch)
	}
	if !gotPayload.Clear {
		t.Error("release request should ask for a cache clear")
	}
}

func TestProductionPublisherServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "app not found", http.StatusNotFound)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewProductionPublisher("app-1", srv.URL, "secret", logger)
	p.HTTP = srv.Client()

	err := p.Publish(context.Background(), &Artifact{Branch: "main"})
	if err == nil {
		t.Fatal("a non-2xx trigger response should fail the deploy")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q should carry the HTTP status", err)
	}
}

func TestProductionPublisherMissingAppID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewProductionPublisher("", "", "", logger)

	if err := p.Publish(context.Background(), &Artifact{Branch: "main"}); err == nil {
		t.Error("a missing application ID should fail before any request")
	}
}
