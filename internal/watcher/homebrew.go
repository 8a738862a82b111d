package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// Homebrew watches formulae and casks through the formulae.brew.sh JSON
// API. Repo format: "formula" or "tap/cask/name"; anything containing
// "/cask/" is looked up as a cask. Tap prefixes beyond homebrew/core are
// reduced to the bare name.
type Homebrew struct {
	apiURL string
	client *httpx.Client
}

func newHomebrew(cfg Config, client *httpx.Client) (Watcher, error) {
	return &Homebrew{
		apiURL: strings.TrimSuffix(cfg.String("api_url", "https://formulae.brew.sh/api"), "/"),
		client: client,
	}, nil
}

func (w *Homebrew) Type() string { return "homebrew" }

type brewFormula struct {
	Homepage string `json:"homepage"`
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
	URLs struct {
		Stable struct {
			URL string `json:"url"`
		} `json:"stable"`
	} `json:"urls"`
}

type brewCask struct {
	Version  string `json:"version"`
	Homepage string `json:"homepage"`
	URL      string `json:"url"`
}

func (w *Homebrew) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	if strings.Contains(repoID, "/cask/") {
		return w.fetchCask(ctx, repoID)
	}
	return w.fetchFormula(ctx, repoID)
}

func (w *Homebrew) fetchFormula(ctx context.Context, repoID string) (*release.Info, error) {
	name := bareName(repoID)
	apiURL := fmt.Sprintf("%s/formula/%s.json", w.apiURL, name)

	var formula brewFormula
	if err := w.client.GetJSON(ctx, apiURL, nil, &formula); err != nil {
		return nil, notFoundOn404(err, repoID)
	}
	if formula.Versions.Stable == "" {
		return nil, fmt.Errorf("%w: no stable version for formula %s", ErrNoRelease, name)
	}

	pageURL := fmt.Sprintf("https://formulae.brew.sh/formula/%s", name)
	assets := []release.Asset{
		{Name: "Homebrew Formula Page", URL: pageURL, APIURL: pageURL},
	}
	if formula.Homepage != "" {
		assets = append(assets, release.Asset{Name: "Project Homepage", URL: formula.Homepage, APIURL: formula.Homepage})
	}
	if src := formula.URLs.Stable.URL; src != "" {
		assets = append(assets, release.Asset{Name: "Source Archive", URL: src, APIURL: src})
	}

	return &release.Info{
		Tag:       formula.Versions.Stable,
		SourceURL: pageURL,
		Assets:    assets,
	}, nil
}

func (w *Homebrew) fetchCask(ctx context.Context, repoID string) (*release.Info, error) {
	name := bareName(repoID)
	apiURL := fmt.Sprintf("%s/cask/%s.json", w.apiURL, name)

	var cask brewCask
	if err := w.client.GetJSON(ctx, apiURL, nil, &cask); err != nil {
		return nil, notFoundOn404(err, repoID)
	}
	if cask.Version == "" {
		return nil, fmt.Errorf("%w: no version for cask %s", ErrNoRelease, name)
	}

	pageURL := fmt.Sprintf("https://formulae.brew.sh/cask/%s", name)
	assets := []release.Asset{
		{Name: "Homebrew Cask Page", URL: pageURL, APIURL: pageURL},
	}
	if cask.Homepage != "" {
		assets = append(assets, release.Asset{Name: "Application Homepage", URL: cask.Homepage, APIURL: cask.Homepage})
	}
	if cask.URL != "" {
		assets = append(assets, release.Asset{Name: "Direct Download", URL: cask.URL, APIURL: cask.URL})
	}

	return &release.Info{
		Tag:       cask.Version,
		SourceURL: pageURL,
		Assets:    assets,
	}, nil
}

func bareName(repoID string) string {
	if idx := strings.LastIndex(repoID, "/"); idx >= 0 {
		return repoID[idx+1:]
	}
	return repoID
}
