package watcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// GitHub fetches releases through the GitHub REST API.
// Repo format: "owner/name". A token is optional but lifts rate limits.
type GitHub struct {
	apiURL string
	token  string
	client *httpx.Client
}

func newGitHub(cfg Config, client *httpx.Client) (Watcher, error) {
	return &GitHub{
		apiURL: strings.TrimSuffix(cfg.String("api_url", "https://api.github.com"), "/"),
		token:  cfg.String("token", ""),
		client: client,
	}, nil
}

func (w *GitHub) Type() string { return "github" }

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	URL                string `json:"url"`
	Size               int64  `json:"size"`
}

func (w *GitHub) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", w.apiURL, repoID)

	header := http.Header{}
	header.Set("Accept", "application/vnd.github.v3+json")
	if w.token != "" {
		header.Set("Authorization", "token "+w.token)
	}

	var rel githubRelease
	if err := w.client.GetJSON(ctx, url, header, &rel); err != nil {
		return nil, notFoundOn404(err, repoID)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("%w: empty tag_name for %s", ErrBadResponse, repoID)
	}

	assets := make([]release.Asset, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		assets = append(assets, release.Asset{
			Name:   a.Name,
			URL:    a.BrowserDownloadURL,
			APIURL: a.URL,
			Size:   a.Size,
		})
	}

	return &release.Info{
		Tag:       rel.TagName,
		SourceURL: "https://github.com/" + repoID,
		Assets:    assets,
	}, nil
}
