package watcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// APKMirror queries the apkmirror.com app_exists API. Repo format: the
// Android package id. The API requires a basic auth token, so auth_token
// is a mandatory construction key.
type APKMirror struct {
	apiURL    string
	authToken string
	userAgent string
	client    *httpx.Client
}

func newAPKMirror(cfg Config, client *httpx.Client) (Watcher, error) {
	token := cfg.String("auth_token", "")
	if token == "" {
		return nil, fmt.Errorf("%w: apkmirror needs auth_token", ErrMissingConfig)
	}
	return &APKMirror{
		apiURL:    cfg.String("api_url", "https://www.apkmirror.com/wp-json/apkm/v1/app_exists/"),
		authToken: token,
		userAgent: cfg.String("user_agent", "relwatch"),
		client:    client,
	}, nil
}

func (w *APKMirror) Type() string { return "apkmirror" }

type apkmirrorResponse struct {
	Data []struct {
		Exists  bool `json:"exists"`
		Release struct {
			Version string `json:"version"`
		} `json:"release"`
		APKs []struct {
			VersionCode string `json:"version_code"`
			Link        string `json:"link"`
		} `json:"apks"`
	} `json:"data"`
}

func (w *APKMirror) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	header := http.Header{}
	header.Set("Authorization", "Basic "+w.authToken)
	header.Set("User-Agent", w.userAgent)

	payload := map[string][]string{"pnames": {repoID}}

	var resp apkmirrorResponse
	if err := w.client.PostJSON(ctx, w.apiURL, header, payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, repoID)
	}
	app := resp.Data[0]
	if !app.Exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, repoID)
	}
	if app.Release.Version == "" {
		return nil, fmt.Errorf("%w: %s has no release info", ErrNoRelease, repoID)
	}

	assets := make([]release.Asset, 0, len(app.APKs))
	for _, apk := range app.APKs {
		link := apk.Link
		if !strings.HasPrefix(link, "http") {
			link = "https://www.apkmirror.com" + link
		}
		assets = append(assets, release.Asset{
			Name:   fmt.Sprintf("%s_%s.apk", repoID, apk.VersionCode),
			URL:    link,
			APIURL: link,
		})
	}

	return &release.Info{
		Tag:    app.Release.Version,
		Assets: assets,
	}, nil
}
