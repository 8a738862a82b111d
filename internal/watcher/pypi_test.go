package watcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPyPIFetchLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/requests/json":
			w.Write([]byte(`{
				"info": {"version": "2.32.3"},
				"urls": [
					{"filename": "requests-2.32.3-py3-none-any.whl",
					 "url": "https://files.pythonhosted.org/r.whl",
					 "size": 64928},
					{"filename": "requests-2.32.3.tar.gz",
					 "url": "https://files.pythonhosted.org/r.tar.gz",
					 "size": 131218},
					{"filename": "", "url": ""}
				]
			}`))
		case "/not-a-package/json":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	w, err := New("pypi", Config{"api_url": server.URL}, fastClient())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Run("package with files", func(t *testing.T) {
		info, err := w.FetchLatestRelease(context.Background(), "requests")
		if err != nil {
			t.Fatalf("FetchLatestRelease failed: %v", err)
		}
		if info.Tag != "2.32.3" {
			t.Errorf("got tag %q", info.Tag)
		}
		if info.SourceURL != "https://pypi.org/project/requests/" {
			t.Errorf("got source url %q", info.SourceURL)
		}
		// The entry without filename/url is dropped.
		if len(info.Assets) != 2 {
			t.Errorf("expected 2 assets, got %d", len(info.Assets))
		}
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := w.FetchLatestRelease(context.Background(), "not-a-package")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestPyPIRejectsMissingVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info": {}}`))
	}))
	defer server.Close()

	w, _ := New("pypi", Config{"api_url": server.URL}, fastClient())
	_, err := w.FetchLatestRelease(context.Background(), "broken")
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse, got: %v", err)
	}
}
