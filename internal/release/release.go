// Package release defines the value objects produced by watchers.
package release

// Asset is a single downloadable artifact attached to a release.
type Asset struct {
	// Name is the artifact filename or display label
	Name string
	// URL is the browser-facing download location
	URL string
	// APIURL is the location the downloader fetches from. For platforms
	// without a dedicated asset API this equals URL.
	APIURL string
	// Size in bytes, 0 when the platform does not report it
	Size int64
}

// Info describes the latest release of a tracked item.
// Produced fresh per fetch and never mutated afterwards.
type Info struct {
	// Tag is the platform's version identifier, always non-empty
	Tag string
	// SourceURL links to the project page when the platform has one
	SourceURL string
	// Assets in the order the platform reported them
	Assets []Asset
}
