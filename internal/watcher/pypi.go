package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// PyPI watches Python package releases. Repo format: the package name.
// No authentication is needed for the JSON API.
type PyPI struct {
	apiURL string
	client *httpx.Client
}

func newPyPI(cfg Config, client *httpx.Client) (Watcher, error) {
	return &PyPI{
		apiURL: strings.TrimSuffix(cfg.String("api_url", "https://pypi.org/pypi"), "/"),
		client: client,
	}, nil
}

func (w *PyPI) Type() string { return "pypi" }

type pypiResponse struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	URLs []struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
		Size     int64  `json:"size"`
	} `json:"urls"`
}

func (w *PyPI) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	url := fmt.Sprintf("%s/%s/json", w.apiURL, repoID)

	var resp pypiResponse
	if err := w.client.GetJSON(ctx, url, nil, &resp); err != nil {
		return nil, notFoundOn404(err, repoID)
	}
	if resp.Info.Version == "" {
		return nil, fmt.Errorf("%w: no version for %s", ErrBadResponse, repoID)
	}

	assets := make([]release.Asset, 0, len(resp.URLs))
	for _, f := range resp.URLs {
		if f.Filename == "" || f.URL == "" {
			continue
		}
		assets = append(assets, release.Asset{
			Name:   f.Filename,
			URL:    f.URL,
			APIURL: f.URL,
			Size:   f.Size,
		})
	}

	return &release.Info{
		Tag:       resp.Info.Version,
		SourceURL: fmt.Sprintf("https://pypi.org/project/%s/", repoID),
		Assets:    assets,
	}, nil
}
