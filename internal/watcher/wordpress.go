package watcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// WordPressPlugin watches plugins in the wordpress.org directory.
// Repo format: the plugin slug, e.g. "akismet".
type WordPressPlugin struct {
	apiURL string
	client *httpx.Client
}

func newWordPressPlugin(cfg Config, client *httpx.Client) (Watcher, error) {
	return &WordPressPlugin{
		apiURL: strings.TrimSuffix(cfg.String("api_url", "https://api.wordpress.org/plugins/info/1.2"), "/"),
		client: client,
	}, nil
}

func (w *WordPressPlugin) Type() string { return "wordpress" }

type wordpressInfo struct {
	Error        string `json:"error"`
	Version      string `json:"version"`
	DownloadLink string `json:"download_link"`
}

func (w *WordPressPlugin) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	query := url.Values{
		"action":        {"plugin_information"},
		"request[slug]": {repoID},
	}

	var info wordpressInfo
	if err := w.client.GetJSON(ctx, w.apiURL+"/?"+query.Encode(), nil, &info); err != nil {
		return nil, err
	}
	if info.Error != "" {
		return nil, fmt.Errorf("%w: plugin %s (%s)", ErrNotFound, repoID, info.Error)
	}
	if info.Version == "" {
		return nil, fmt.Errorf("%w: no version for plugin %s", ErrBadResponse, repoID)
	}

	var assets []release.Asset
	if info.DownloadLink != "" {
		assets = append(assets, release.Asset{
			Name:   fmt.Sprintf("%s-%s.zip", repoID, info.Version),
			URL:    info.DownloadLink,
			APIURL: info.DownloadLink,
		})
	}

	return &release.Info{
		Tag:       info.Version,
		SourceURL: fmt.Sprintf("https://wordpress.org/plugins/%s/", repoID),
		Assets:    assets,
	}, nil
}

// WordPressTheme watches themes in the wordpress.org directory.
// Repo format: the theme slug, e.g. "twentytwentyfour".
type WordPressTheme struct {
	apiURL string
	client *httpx.Client
}

func newWordPressTheme(cfg Config, client *httpx.Client) (Watcher, error) {
	return &WordPressTheme{
		apiURL: strings.TrimSuffix(cfg.String("api_url", "https://api.wordpress.org/themes/info/1.2"), "/"),
		client: client,
	}, nil
}

func (w *WordPressTheme) Type() string { return "wordpress-theme" }

func (w *WordPressTheme) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	query := url.Values{
		"action":        {"theme_information"},
		"request[slug]": {repoID},
	}

	var info wordpressInfo
	if err := w.client.GetJSON(ctx, w.apiURL+"/?"+query.Encode(), nil, &info); err != nil {
		return nil, err
	}
	if info.Error != "" {
		return nil, fmt.Errorf("%w: theme %s (%s)", ErrNotFound, repoID, info.Error)
	}
	if info.Version == "" || info.DownloadLink == "" {
		return nil, fmt.Errorf("%w: theme %s missing version or download link", ErrBadResponse, repoID)
	}

	return &release.Info{
		Tag:       info.Version,
		SourceURL: fmt.Sprintf("https://wordpress.org/themes/%s/", repoID),
		Assets: []release.Asset{{
			Name:   fmt.Sprintf("%s-%s.zip", repoID, info.Version),
			URL:    info.DownloadLink,
			APIURL: info.DownloadLink,
		}},
	}, nil
}
