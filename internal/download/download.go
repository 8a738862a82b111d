// Package download fetches release assets to local storage.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// Result records the outcome for one asset.
type Result struct {
	Asset release.Asset
	// Path is the local file for a successful download
	Path string
	Err  error
}

// Summary holds the per-asset outcomes of one release's downloads.
type Summary struct {
	Results []Result
}

// Succeeded returns the local paths of the assets that downloaded.
func (s Summary) Succeeded() []string {
	var paths []string
	for _, r := range s.Results {
		if r.Err == nil {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// FailedCount returns how many assets failed.
func (s Summary) FailedCount() int {
	failed := 0
	for _, r := range s.Results {
		if r.Err != nil {
			failed++
		}
	}
	return failed
}

// Downloader streams assets to a local directory tree. One asset
// failing never aborts the rest; the caller decides what to do with the
// partial result.
type Downloader struct {
	client *httpx.Client
	dir    string
}

// New creates a downloader rooted at dir.
func New(client *httpx.Client, dir string) *Downloader {
	if client == nil {
		client = httpx.New()
	}
	return &Downloader{client: client, dir: dir}
}

// FetchAll downloads every asset into <dir>/<key>/<version>/, using the
// item's token for authenticated asset APIs. Responses are streamed to
// disk so large binaries never sit in memory.
func (d *Downloader) FetchAll(ctx context.Context, key, version, token string, assets []release.Asset) Summary {
	destDir := filepath.Join(d.dir, sanitize(key), sanitize(version))

	summary := Summary{Results: make([]Result, 0, len(assets))}
	for _, asset := range assets {
		path, err := d.fetchOne(ctx, destDir, token, asset)
		if err != nil {
			logger.Warn("downloading %s: %v", asset.Name, err)
		}
		summary.Results = append(summary.Results, Result{Asset: asset, Path: path, Err: err})
	}
	return summary
}

func (d *Downloader) fetchOne(ctx context.Context, destDir, token string, asset release.Asset) (string, error) {
	src := asset.APIURL
	if src == "" {
		src = asset.URL
	}
	parsed, err := url.Parse(src)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("asset %q has no fetchable url", asset.Name)
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "token "+token)
	}
	// The GitHub asset endpoint serves JSON metadata unless asked for
	// the binary.
	if strings.HasSuffix(parsed.Host, "api.github.com") {
		header.Set("Accept", "application/octet-stream")
	}

	resp, err := d.client.Stream(ctx, src, header)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, sanitize(asset.Name))
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}

	logger.Debug("downloaded %s -> %s", asset.Name, dest)
	return dest, nil
}

// sanitize keeps key/version/name path components from escaping the
// download directory.
func sanitize(component string) string {
	component = strings.ReplaceAll(component, string(os.PathSeparator), "_")
	component = strings.ReplaceAll(component, "..", "_")
	if component == "" {
		return "_"
	}
	return component
}
