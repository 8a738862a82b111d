package watcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// APKPure scrapes the apkpure.net app page for the latest version.
// Repo format: the Android package id. A desktop user agent is needed,
// the site serves scrapers a different page otherwise.
type APKPure struct {
	baseURL   string
	userAgent string
	client    *httpx.Client
}

func newAPKPure(cfg Config, client *httpx.Client) (Watcher, error) {
	return &APKPure{
		baseURL:   strings.TrimSuffix(cfg.String("base_url", "https://apkpure.net/p"), "/"),
		userAgent: cfg.String("user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"),
		client:    client,
	}, nil
}

func (w *APKPure) Type() string { return "apkpure" }

func (w *APKPure) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	pageURL := fmt.Sprintf("%s/%s", w.baseURL, repoID)

	header := http.Header{}
	header.Set("User-Agent", w.userAgent)

	body, err := w.client.Fetch(ctx, pageURL, header)
	if err != nil {
		return nil, notFoundOn404(err, repoID)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseMiss, err)
	}

	appName := strings.TrimSpace(doc.Find("h1").First().Text())

	var version string
	doc.Find("div.title").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != "Latest Version" {
			return true
		}
		version = strings.TrimSpace(sel.NextFiltered("div.additional-info").Text())
		return false
	})

	if appName == "" || version == "" {
		return nil, fmt.Errorf("%w: app name or version missing for %s", ErrParseMiss, repoID)
	}

	return &release.Info{
		Tag:       version,
		SourceURL: pageURL,
		Assets: []release.Asset{{
			Name:   appName,
			URL:    pageURL,
			APIURL: pageURL,
		}},
	}, nil
}
