package watcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// FDroid scrapes the f-droid.org package page for the latest version.
// Repo format: the application id, e.g. "org.fdroid.fdroid". Markup
// drift surfaces as ErrParseMiss, permanent for the cycle.
type FDroid struct {
	baseURL   string
	userAgent string
	client    *httpx.Client
}

func newFDroid(cfg Config, client *httpx.Client) (Watcher, error) {
	return &FDroid{
		baseURL:   strings.TrimSuffix(cfg.String("base_url", "https://f-droid.org/en/packages"), "/"),
		userAgent: cfg.String("user_agent", "relwatch"),
		client:    client,
	}, nil
}

func (w *FDroid) Type() string { return "fdroid" }

func (w *FDroid) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	pageURL := fmt.Sprintf("%s/%s/", w.baseURL, repoID)

	header := http.Header{}
	header.Set("User-Agent", w.userAgent)

	body, err := w.client.Fetch(ctx, pageURL, header)
	if err != nil {
		return nil, notFoundOn404(err, repoID)
	}

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseMiss, err)
	}

	latest := htmlquery.FindOne(doc, "//li[@id='latest']")
	if latest == nil {
		return nil, fmt.Errorf("%w: no latest section for %s", ErrParseMiss, repoID)
	}

	// The version is carried as the anchor name of the section header.
	anchor, err := htmlquery.Query(latest, ".//a[@name]")
	if err != nil || anchor == nil {
		return nil, fmt.Errorf("%w: no version anchor for %s", ErrParseMiss, repoID)
	}
	version := htmlquery.SelectAttr(anchor, "name")
	if version == "" {
		return nil, fmt.Errorf("%w: empty version anchor for %s", ErrParseMiss, repoID)
	}

	links, err := htmlquery.QueryAll(latest, ".//p[contains(@class,'package-version-download')]//a")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseMiss, err)
	}
	var downloadURL string
	for _, link := range links {
		if strings.Contains(htmlquery.InnerText(link), "Download APK") {
			downloadURL = htmlquery.SelectAttr(link, "href")
			break
		}
	}
	if downloadURL == "" {
		return nil, fmt.Errorf("%w: no download link for %s", ErrParseMiss, repoID)
	}

	return &release.Info{
		Tag:       version,
		SourceURL: pageURL,
		Assets: []release.Asset{{
			Name:   repoID,
			URL:    downloadURL,
			APIURL: downloadURL,
		}},
	}, nil
}
