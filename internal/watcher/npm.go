package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// NPM watches npm registry packages. Repo format: "package" or
// "@scope/package".
type NPM struct {
	registryURL string
	client      *httpx.Client
}

func newNPM(cfg Config, client *httpx.Client) (Watcher, error) {
	return &NPM{
		registryURL: strings.TrimSuffix(cfg.String("registry_url", "https://registry.npmjs.org"), "/"),
		client:      client,
	}, nil
}

func (w *NPM) Type() string { return "npm" }

type npmPackage struct {
	Name     string `json:"name"`
	Homepage string `json:"homepage"`
	DistTags struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
	Versions map[string]struct {
		Dist struct {
			Tarball string `json:"tarball"`
		} `json:"dist"`
	} `json:"versions"`
	Repository struct {
		URL string `json:"url"`
	} `json:"repository"`
}

func (w *NPM) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	// Scoped package names keep their slash but the @ must be escaped.
	escaped := strings.Replace(repoID, "@", "%40", 1)
	url := fmt.Sprintf("%s/%s", w.registryURL, escaped)

	var pkg npmPackage
	if err := w.client.GetJSON(ctx, url, nil, &pkg); err != nil {
		return nil, notFoundOn404(err, repoID)
	}

	latest := pkg.DistTags.Latest
	if latest == "" {
		return nil, fmt.Errorf("%w: no latest dist-tag for %s", ErrNoRelease, repoID)
	}
	info, ok := pkg.Versions[latest]
	if !ok {
		return nil, fmt.Errorf("%w: version %s missing from versions map for %s", ErrBadResponse, latest, repoID)
	}

	name := pkg.Name
	if name == "" {
		name = repoID
	}

	var assets []release.Asset
	if tarball := info.Dist.Tarball; tarball != "" {
		assets = append(assets, release.Asset{
			Name:   fmt.Sprintf("%s-%s.tgz", name, latest),
			URL:    tarball,
			APIURL: tarball,
		})
	}
	repoURL := cleanGitURL(pkg.Repository.URL)
	if repoURL != "" {
		assets = append(assets, release.Asset{Name: "Source Code", URL: repoURL, APIURL: repoURL})
	}
	if pkg.Homepage != "" && pkg.Homepage != repoURL {
		assets = append(assets, release.Asset{Name: "Homepage", URL: pkg.Homepage, APIURL: pkg.Homepage})
	}

	return &release.Info{
		Tag:       latest,
		SourceURL: fmt.Sprintf("https://www.npmjs.com/package/%s", repoID),
		Assets:    assets,
	}, nil
}

// cleanGitURL strips the git+ prefix and .git suffix npm stores in
// repository URLs.
func cleanGitURL(raw string) string {
	raw = strings.TrimPrefix(raw, "git+")
	return strings.TrimSuffix(raw, ".git")
}
