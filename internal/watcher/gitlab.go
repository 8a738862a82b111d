package watcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// GitLab fetches releases through the GitLab REST API, including
// self-hosted instances via base_url. Repo format: "namespace/project".
type GitLab struct {
	baseURL string
	token   string
	client  *httpx.Client
}

func newGitLab(cfg Config, client *httpx.Client) (Watcher, error) {
	return &GitLab{
		baseURL: strings.TrimSuffix(cfg.String("base_url", "https://gitlab.com/api/v4"), "/"),
		token:   cfg.String("token", ""),
		client:  client,
	}, nil
}

func (w *GitLab) Type() string { return "gitlab" }

type gitlabRelease struct {
	TagName string `json:"tag_name"`
	Assets  struct {
		Links []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"links"`
	} `json:"assets"`
}

func (w *GitLab) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/releases", w.baseURL, url.PathEscape(repoID))

	header := http.Header{}
	if w.token != "" {
		header.Set("PRIVATE-TOKEN", w.token)
	}

	var releases []gitlabRelease
	if err := w.client.GetJSON(ctx, endpoint, header, &releases); err != nil {
		return nil, notFoundOn404(err, repoID)
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRelease, repoID)
	}

	latest := releases[0]
	assets := make([]release.Asset, 0, len(latest.Assets.Links))
	for _, link := range latest.Assets.Links {
		// GitLab has no separate asset API endpoint, the link is both
		assets = append(assets, release.Asset{
			Name:   link.Name,
			URL:    link.URL,
			APIURL: link.URL,
		})
	}

	// Works for self-hosted instances too, base_url minus the API suffix.
	webBase := strings.TrimSuffix(w.baseURL, "/api/v4")

	return &release.Info{
		Tag:       latest.TagName,
		SourceURL: fmt.Sprintf("%s/%s", webBase, repoID),
		Assets:    assets,
	}, nil
}
