package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestReloadHubBroadcast(t *testing.T) {
	h := newReloadHub()
	a := h.subscribe()
	b := h.subscribe()

	h.broadcast()

	for name, ch := range map[string]chan struct{}{"a": a, "b": b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("client %s missed the broadcast", name)
		}
	}

	h.unsubscribe(a)
	h.broadcast()

	select {
	case <-b:
	case <-time.After(time.Second):
		t.Fatal("remaining client missed the broadcast")
	}
	select {
	case <-a:
		t.Error("unsubscribed client should receive nothing")
	default:
	}
}

func TestReloadHubCoalescesPendingSignals(t *testing.T) {
	h := newReloadHub()
	ch := h.subscribe()

	// A slow client with one pending signal absorbs further broadcasts.
	h.broadcast()
	h.broadcast()
	h.broadcast()

	<-ch
	select {
	case <-ch:
		t.Error("broadcasts should coalesce into one pending signal")
	default:
	}
}

func TestSSEHandlerStream(t *testing.T) {
	h := newReloadHub()
	srv := httptest.NewServer(h.handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	br := bufio.NewReader(resp.Body)
	readEvent := func() string {
		t.Helper()
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				t.Fatalf("stream read failed: %v", err)
			}
			if line = strings.TrimSpace(line); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
	}

	if got := readEvent(); got != "connected" {
		t.Fatalf("first event = %q, want connected", got)
	}

	// The subscription exists once "connected" arrives, so this signal
	// cannot be lost.
	h.broadcast()
	if got := readEvent(); got != "reload" {
		t.Fatalf("second event = %q, want reload", got)
	}
}
