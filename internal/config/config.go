// Package config loads and validates the relwatch configuration.
//
// The config source can be a local path, an http(s) URL or an s3 URL.
// Environment placeholders are expanded over the raw text before decoding;
// the format is chosen by file extension (.toml, else YAML).
package config

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoRepos            = errors.New("no repos configured")
	ErrUnknownWatcherKey  = errors.New("repo references an unknown watcher key")
	ErrNoPersistence      = errors.New("no persistence backend configured")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrInvalidNotifyGoal  = errors.New("notify_policy must be \"all\" or \"any\"")
	ErrRepoNotInConfig    = errors.New("repo not found in config; pass --watcher explicitly")
	ErrDuplicateRepoEntry = errors.New("repo matches multiple entries; pass --watcher explicitly")
)

// Config is the root configuration document.
type Config struct {
	Watchers    map[string]WatcherConfig `yaml:"watchers" toml:"watchers"`
	Repos       []RepoEntry              `yaml:"repos" toml:"repos"`
	Persistence Persistence              `yaml:"persistence" toml:"persistence"`
	// Notifiers lists the destinations; Notifier is the singular alias
	// accepted for configs with a single destination.
	Notifiers []NotifierConfig `yaml:"notifiers" toml:"notifiers"`
	Notifier  *NotifierConfig  `yaml:"notifier" toml:"notifier"`
	// UploadAssets is the global asset-download default, overridable per repo
	UploadAssets bool `yaml:"upload_assets" toml:"upload_assets"`
	// NotifyPolicy gates persisting after fan-out: "all" (default) or "any"
	NotifyPolicy string `yaml:"notify_policy" toml:"notify_policy"`
	// DownloadDir is where assets land, default "downloads"
	DownloadDir string `yaml:"download_dir" toml:"download_dir"`
}

// WatcherConfig declares one watcher instance under a user-chosen key.
type WatcherConfig struct {
	Type   string                 `yaml:"type" toml:"type"`
	Config map[string]interface{} `yaml:"config" toml:"config"`
}

// RepoEntry is one tracked item.
type RepoEntry struct {
	Name    string                 `yaml:"name" toml:"name"`
	Repo    string                 `yaml:"repo" toml:"repo"`
	Watcher string                 `yaml:"watcher" toml:"watcher"`
	Config  map[string]interface{} `yaml:"config" toml:"config"`
}

// Persistence selects and configures the state backend.
type Persistence struct {
	Type   string                 `yaml:"type" toml:"type"`
	Config map[string]interface{} `yaml:"config" toml:"config"`
}

// NotifierConfig declares one notification destination group.
type NotifierConfig struct {
	Type   string                 `yaml:"type" toml:"type"`
	Format string                 `yaml:"format" toml:"format"`
	Config map[string]interface{} `yaml:"config" toml:"config"`
}

// Parse decodes an already-loaded config document. Environment
// placeholders are expanded first; the format is chosen from the source
// name's extension.
func Parse(raw []byte, source string, strictEnv bool) (*Config, error) {
	text, err := ExpandEnv(string(raw), strictEnv)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if strings.EqualFold(path.Ext(source), ".toml") {
		if err := toml.Unmarshal([]byte(text), cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(text), cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Notifier != nil {
		c.Notifiers = append(c.Notifiers, *c.Notifier)
		c.Notifier = nil
	}
	if c.NotifyPolicy == "" {
		c.NotifyPolicy = "all"
	}
	if c.DownloadDir == "" {
		c.DownloadDir = "downloads"
	}
}

func (c *Config) validate() error {
	switch c.NotifyPolicy {
	case "all", "any":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidNotifyGoal, c.NotifyPolicy)
	}
	if c.Persistence.Type == "" {
		return ErrNoPersistence
	}
	for _, entry := range c.Repos {
		if entry.Repo == "" || entry.Watcher == "" {
			return fmt.Errorf("%w: repo entry %q needs repo and watcher fields", ErrInvalidConfig, entry.Name)
		}
		if _, ok := c.Watchers[entry.Watcher]; !ok {
			return fmt.Errorf("%w: %q (repo %s)", ErrUnknownWatcherKey, entry.Watcher, entry.Repo)
		}
	}
	return nil
}

// ResolveRepo finds the entry for a repo identifier, used by single-repo
// mode when no watcher type is given on the command line.
func (c *Config) ResolveRepo(repoID string) (*RepoEntry, error) {
	var found *RepoEntry
	for i := range c.Repos {
		if c.Repos[i].Repo != repoID {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRepoEntry, repoID)
		}
		found = &c.Repos[i]
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrRepoNotInConfig, repoID)
	}
	return found, nil
}

// MergedWatcherConfig merges the watcher-level config with a repo entry's
// overrides, the entry winning on conflicts.
func (c *Config) MergedWatcherConfig(entry *RepoEntry) (string, map[string]interface{}, error) {
	wc, ok := c.Watchers[entry.Watcher]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownWatcherKey, entry.Watcher)
	}
	merged := make(map[string]interface{}, len(wc.Config)+len(entry.Config))
	for k, v := range wc.Config {
		merged[k] = v
	}
	for k, v := range entry.Config {
		merged[k] = v
	}
	return wc.Type, merged, nil
}
