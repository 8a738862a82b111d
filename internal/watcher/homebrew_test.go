package watcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHomebrewFetchLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/formula/jq.json":
			w.Write([]byte(`{
				"homepage": "https://jqlang.github.io/jq/",
				"versions": {"stable": "1.7.1"},
				"urls": {"stable": {"url": "https://github.com/jqlang/jq/releases/download/jq-1.7.1/jq-1.7.1.tar.gz"}}
			}`))
		case "/formula/no-stable.json":
			w.Write([]byte(`{"versions": {"stable": ""}}`))
		case "/formula/ghost.json":
			w.WriteHeader(http.StatusNotFound)
		case "/cask/firefox.json":
			w.Write([]byte(`{
				"version": "122.0",
				"homepage": "https://www.mozilla.org/firefox/",
				"url": "https://download.mozilla.org/Firefox%20122.0.dmg"
			}`))
		case "/cask/vaporware.json":
			w.Write([]byte(`{"version": ""}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	w, err := New("homebrew", Config{"api_url": server.URL}, fastClient())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Run("formula", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "jq")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		if info.Tag != "1.7.1" {
			t.Errorf("got tag %q", info.Tag)
		}
		// Formula page, homepage and source archive.
		if len(info.Assets) != 3 {
			t.Errorf("expected 3 assets, got %+v", info.Assets)
		}
		if info.SourceURL != "https://formulae.brew.sh/formula/jq" {
			t.Errorf("got source url %q", info.SourceURL)
		}
	})

	t.Run("tap prefix reduces to bare name", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "homebrew/core/jq")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		if info.Tag != "1.7.1" {
			t.Errorf("got tag %q", info.Tag)
		}
	})

	t.Run("cask dispatch", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "homebrew/cask/firefox")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		if info.Tag != "122.0" {
			t.Errorf("got tag %q", info.Tag)
		}
		if info.SourceURL != "https://formulae.brew.sh/cask/firefox" {
			t.Errorf("got source url %q", info.SourceURL)
		}
		if len(info.Assets) != 3 {
			t.Errorf("expected 3 assets, got %+v", info.Assets)
		}
	})

	t.Run("formula without stable version", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "no-stable")
		if !errors.Is(err, ErrNoRelease) {
			t.Errorf("expected ErrNoRelease, got: %v", err)
		}
	})

	t.Run("cask without version", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "homebrew/cask/vaporware")
		if !errors.Is(err, ErrNoRelease) {
			t.Errorf("expected ErrNoRelease, got: %v", err)
		}
	})

	t.Run("unknown formula", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "ghost")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestBareName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jq", "jq"},
		{"homebrew/core/jq", "jq"},
		{"homebrew/cask/firefox", "firefox"},
	}
	for _, tt := range tests {
		if got := bareName(tt.in); got != tt.want {
			t.Errorf("bareName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
