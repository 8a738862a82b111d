// Package watcher fetches the latest release for a tracked item from one
// of the supported distribution platforms.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/release"
)

var (
	// ErrNotFound indicates an unknown repo/package identifier
	ErrNotFound = errors.New("not found on platform")
	// ErrNoRelease indicates the item exists but has no release yet
	ErrNoRelease = errors.New("no release available")
	// ErrParseMiss indicates a scraped page no longer matches the
	// expected markup; permanent for the current cycle
	ErrParseMiss = errors.New("version not found in page")
	// ErrBadResponse indicates a malformed platform response
	ErrBadResponse = errors.New("malformed platform response")
	// ErrMissingConfig indicates a required construction key is absent
	ErrMissingConfig = errors.New("missing required watcher config")
	// ErrUnknownType indicates an unregistered watcher type
	ErrUnknownType = errors.New("unknown watcher type")
	// ErrBadIdentifier indicates a repo identifier in the wrong format
	ErrBadIdentifier = errors.New("invalid repo identifier format")
)

// Watcher fetches the latest release for a repo identifier. The
// identifier format is platform specific: namespace/name for git hosts,
// a package name for registries, reverse-DNS for app stores.
type Watcher interface {
	FetchLatestRelease(ctx context.Context, repoID string) (*release.Info, error)
	Type() string
}

// Config carries the merged per-instance watcher configuration.
// Unrecognized keys are ignored.
type Config map[string]interface{}

// String returns a string key, or def when absent or not a string.
func (c Config) String(key, def string) string {
	if v, ok := c[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// Bool returns a bool key and whether it was present.
func (c Config) Bool(key string) (bool, bool) {
	if v, ok := c[key]; ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// Constructor builds a watcher instance from its merged config.
type Constructor func(cfg Config, client *httpx.Client) (Watcher, error)

// registry maps type keys to constructors. Populated here rather than by
// scattered init() registration so the full platform set is visible in
// one place.
var registry = map[string]Constructor{
	"github":          newGitHub,
	"gitlab":          newGitLab,
	"dockerhub":       newDockerHub,
	"pypi":            newPyPI,
	"npm":             newNPM,
	"maven":           newMaven,
	"homebrew":        newHomebrew,
	"wordpress":       newWordPressPlugin,
	"wordpress-theme": newWordPressTheme,
	"fdroid":          newFDroid,
	"apkmirror":       newAPKMirror,
	"apkpure":         newAPKPure,
}

// New builds a watcher for the given platform type.
func New(watcherType string, cfg Config, client *httpx.Client) (Watcher, error) {
	ctor, ok := registry[watcherType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, watcherType)
	}
	if client == nil {
		client = httpx.New()
	}
	if cfg == nil {
		cfg = Config{}
	}
	return ctor(cfg, client)
}

// Types returns the registered platform type keys, sorted.
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// notFoundOn404 converts a 404 StatusError into ErrNotFound so callers
// can classify it as permanent.
func notFoundOn404(err error, repoID string) error {
	var se *httpx.StatusError
	if errors.As(err, &se) && se.StatusCode == 404 {
		return fmt.Errorf("%w: %s", ErrNotFound, repoID)
	}
	return err
}
