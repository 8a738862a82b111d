package watcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func dockerHubServer(t *testing.T, tagsJSON string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/library/redis", "/grafana/grafana":
			w.Write([]byte(`{"name": "ok"}`))
		case "/library/redis/tags", "/grafana/grafana/tags":
			w.Write([]byte(tagsJSON))
		case "/library/ghost-image":
			w.WriteHeader(http.StatusNotFound)
		case "/library/empty", "/library/empty/tags":
			if r.URL.Path == "/library/empty/tags" {
				w.Write([]byte(`{"results": []}`))
			} else {
				w.Write([]byte(`{}`))
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestDockerHubFetchLatestRelease(t *testing.T) {
	server := dockerHubServer(t, `{"results": [
		{"name": "latest"},
		{"name": "alpine"},
		{"name": "7.2.4"},
		{"name": "7.2"}
	]}`)
	defer server.Close()

	w, err := New("dockerhub", Config{"base_url": server.URL}, fastClient())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Run("official image resolves under library", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "redis")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		// "latest" is a rolling tag and "alpine" carries no digits; the
		// first version-looking tag wins.
		if info.Tag != "7.2.4" {
			t.Errorf("got tag %q", info.Tag)
		}
		if info.SourceURL != "https://hub.docker.com/r/library/redis" {
			t.Errorf("got source url %q", info.SourceURL)
		}
		if len(info.Assets) != 1 {
			t.Fatalf("expected registry link asset, got %d", len(info.Assets))
		}
	})

	t.Run("namespaced image", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "grafana/grafana")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		if info.Tag != "7.2.4" {
			t.Errorf("got tag %q", info.Tag)
		}
	})

	t.Run("unknown image", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "ghost-image")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("image without tags", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "empty")
		if !errors.Is(err, ErrNoRelease) {
			t.Errorf("expected ErrNoRelease, got: %v", err)
		}
	})
}

func TestPickVersionTag(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"skips rolling tags", []string{"latest", "1.2.3"}, "1.2.3"},
		{"prefers digits over words", []string{"alpine", "bookworm", "9.1"}, "9.1"},
		{"falls back to newest", []string{"alpine", "bookworm"}, "alpine"},
		{"skip list is case insensitive", []string{"Latest", "2.0"}, "2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page dockerTagsPage
			for _, tag := range tt.tags {
				page.Results = append(page.Results, struct {
					Name string `json:"name"`
				}{Name: tag})
			}
			if got := pickVersionTag(page); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
