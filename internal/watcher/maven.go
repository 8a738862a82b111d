package watcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

// Maven watches Maven Central artifacts. Repo format:
// "groupId:artifactId".
type Maven struct {
	baseURL string
	client  *httpx.Client
}

func newMaven(cfg Config, client *httpx.Client) (Watcher, error) {
	return &Maven{
		baseURL: strings.TrimSuffix(cfg.String("base_url", "https://search.maven.org"), "/"),
		client:  client,
	}, nil
}

func (w *Maven) Type() string { return "maven" }

type mavenSearch struct {
	Response struct {
		Docs []struct {
			LatestVersion string `json:"latestVersion"`
			V             string `json:"v"`
		} `json:"docs"`
	} `json:"response"`
}

func (w *Maven) FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error) {
	groupID, artifactID, ok := strings.Cut(repoID, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q, expected groupId:artifactId", ErrBadIdentifier, repoID)
	}

	query := url.Values{
		"q":    {fmt.Sprintf("g:%s AND a:%s", groupID, artifactID)},
		"rows": {"1"},
		"wt":   {"json"},
		"sort": {"timestamp desc"},
	}
	searchURL := fmt.Sprintf("%s/solrsearch/select?%s", w.baseURL, query.Encode())

	var result mavenSearch
	if err := w.client.GetJSON(ctx, searchURL, nil, &result); err != nil {
		return nil, err
	}
	if len(result.Response.Docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, repoID)
	}

	doc := result.Response.Docs[0]
	version := doc.LatestVersion
	if version == "" {
		version = doc.V
	}
	if version == "" {
		return nil, fmt.Errorf("%w: no version for %s", ErrBadResponse, repoID)
	}

	groupPath := strings.ReplaceAll(groupID, ".", "/")
	artifactBase := fmt.Sprintf("https://repo1.maven.org/maven2/%s/%s/%s", groupPath, artifactID, version)

	assets := make([]release.Asset, 0, 5)
	for _, suffix := range []string{".jar", "-sources.jar", "-javadoc.jar", ".pom"} {
		name := fmt.Sprintf("%s-%s%s", artifactID, version, suffix)
		u := fmt.Sprintf("%s/%s", artifactBase, name)
		assets = append(assets, release.Asset{Name: name, URL: u, APIURL: u})
	}
	pageURL := fmt.Sprintf("%s/artifact/%s/%s/%s/jar", w.baseURL, groupID, artifactID, version)
	assets = append(assets, release.Asset{Name: "Maven Central Page", URL: pageURL, APIURL: pageURL})

	return &release.Info{
		Tag:       version,
		SourceURL: pageURL,
		Assets:    assets,
	}, nil
}
