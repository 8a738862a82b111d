package watcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relwatch/relwatch/internal/httpx"
)

// fastClient skips retry sleeps so failure tests return immediately.
func fastClient() *httpx.Client {
	c := httpx.NewWithConfig(httpx.DefaultConfig())
	c.SetSleep(func(d time.Duration) {})
	return c
}

func TestGitHubFetchLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/cli/cli/releases/latest":
			if got := r.Header.Get("Authorization"); got != "token gh-token" {
				t.Errorf("unexpected auth header %q", got)
			}
			w.Write([]byte(`{
				"tag_name": "v2.40.0",
				"assets": [
					{"name": "gh_linux_amd64.tar.gz",
					 "browser_download_url": "https://example.com/gh.tar.gz",
					 "url": "https://api.example.com/assets/1",
					 "size": 12345}
				]
			}`))
		case "/repos/none/gone/releases/latest":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	w, err := New("github", Config{"api_url": server.URL, "token": "gh-token"}, fastClient())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Run("release with assets", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "cli/cli")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		if info.Tag != "v2.40.0" {
			t.Errorf("got tag %q", info.Tag)
		}
		if info.SourceURL != "https://github.com/cli/cli" {
			t.Errorf("got source url %q", info.SourceURL)
		}
		if len(info.Assets) != 1 {
			t.Fatalf("expected 1 asset, got %d", len(info.Assets))
		}
		asset := info.Assets[0]
		if asset.Name != "gh_linux_amd64.tar.gz" || asset.Size != 12345 {
			t.Errorf("unexpected asset: %+v", asset)
		}
		if asset.APIURL != "https://api.example.com/assets/1" {
			t.Errorf("api url not carried: %+v", asset)
		}
	})

	t.Run("unknown repo", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "none/gone")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestGitHubRejectsEmptyTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": ""}`))
	}))
	defer server.Close()

	w, _ := New("github", Config{"api_url": server.URL}, fastClient())
	_, err := w.FetchLatestRelease(context.Background(), "cli/cli")
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse, got: %v", err)
	}
}
