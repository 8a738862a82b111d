package watcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const apkpurePage = `<!DOCTYPE html>
<html><body>
<h1>Firefox Fast & Private Browser</h1>
<div class="info">
  <div class="title">Developer</div>
  <div class="additional-info">Mozilla</div>
  <div class="title">Latest Version</div>
  <div class="additional-info">121.1.0</div>
</div>
</body></html>`

func TestAPKPureFetchLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "Mozilla/5.0 (Windows NT 10.0; Win64; x64)" {
			t.Errorf("unexpected user agent %q", got)
		}
		switch r.URL.Path {
		case "/org.mozilla.firefox":
			w.Write([]byte(apkpurePage))
		case "/com.gone.app":
			w.WriteHeader(http.StatusNotFound)
		case "/com.weird.markup":
			w.Write([]byte(`<html><body><h1>Some App</h1><p>redesigned page</p></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	w, err := New("apkpure", Config{"base_url": server.URL}, fastClient())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Run("parses version block", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "org.mozilla.firefox")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		if info.Tag != "121.1.0" {
			t.Errorf("got tag %q", info.Tag)
		}
		if len(info.Assets) != 1 || info.Assets[0].Name != "Firefox Fast & Private Browser" {
			t.Errorf("unexpected assets: %+v", info.Assets)
		}
		if info.SourceURL != server.URL+"/org.mozilla.firefox" {
			t.Errorf("got source url %q", info.SourceURL)
		}
	})

	t.Run("unknown app", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "com.gone.app")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("markup drift is a parse miss", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "com.weird.markup")
		if !errors.Is(err, ErrParseMiss) {
			t.Errorf("expected ErrParseMiss, got: %v", err)
		}
	})
}
