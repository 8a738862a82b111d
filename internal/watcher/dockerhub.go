package watcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// DockerHub watches container image tags. Repo format:
// "namespace/image"; official images without a namespace resolve under
// "library/". Images have no downloadable assets, only a registry link.
type DockerHub struct {
	baseURL string
	token   string
	client  *httpx.Client
}

// skipTags are rolling tags that never identify a release.
var skipTags = map[string]struct{}{
	"latest": {}, "main": {}, "master": {}, "dev": {},
	"development": {}, "staging": {}, "nightly": {},
}

func newDockerHub(cfg Config, client *httpx.Client) (Watcher, error) {
	return &DockerHub{
		baseURL: strings.TrimSuffix(cfg.String("base_url", "https://hub.docker.com/v2/repositories"), "/"),
		token:   cfg.String("token", ""),
		client:  client,
	}, nil
}

func (w *DockerHub) Type() string { return "dockerhub" }

type dockerTagsPage struct {
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

func (w *DockerHub) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	repo := repoID
	if !strings.Contains(repo, "/") {
		repo = "library/" + repo
	}

	header := http.Header{}
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}

	// Existence check first so an unknown image is a clean not-found
	// instead of an empty tag page.
	if _, err := w.client.Fetch(ctx, fmt.Sprintf("%s/%s", w.baseURL, repo), header); err != nil {
		return nil, notFoundOn404(err, repoID)
	}

	tagsURL := fmt.Sprintf("%s/%s/tags?page_size=50&ordering=-last_updated", w.baseURL, repo)
	var page dockerTagsPage
	if err := w.client.GetJSON(ctx, tagsURL, header, &page); err != nil {
		return nil, notFoundOn404(err, repoID)
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("%w: no tags for %s", ErrNoRelease, repoID)
	}

	tag := pickVersionTag(page)

	hubURL := fmt.Sprintf("https://hub.docker.com/r/%s/tags?name=%s", repo, tag)
	return &release.Info{
		Tag:       tag,
		SourceURL: fmt.Sprintf("https://hub.docker.com/r/%s", repo),
		Assets: []release.Asset{{
			Name:   fmt.Sprintf("%s:%s", repo, tag),
			URL:    hubURL,
			APIURL: hubURL,
		}},
	}, nil
}

// pickVersionTag prefers the most recently pushed version-looking tag,
// falling back to the newest tag of any kind.
func pickVersionTag(page dockerTagsPage) string {
	for _, t := range page.Results {
		if _, skip := skipTags[strings.ToLower(t.Name)]; skip {
			continue
		}
		if strings.ContainsFunc(t.Name, unicode.IsDigit) {
			return t.Name
		}
	}
	return page.Results[0].Name
}
