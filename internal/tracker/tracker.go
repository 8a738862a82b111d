// Package tracker runs the check cycle over tracked items: fetch the
// latest release, compare against persisted state, download assets,
// notify, then persist the new tag.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/relwatch/relwatch/internal/download"
	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/notify"
	"github.com/relwatch/relwatch/internal/persistence"
	"github.com/relwatch/relwatch/internal/release"
	"github.com/relwatch/relwatch/internal/watcher"
)

// ErrNotifyFailed marks an item whose release was detected but whose
// notification did not meet the delivery policy; its tag is left
// unpersisted so the next run retries.
var ErrNotifyFailed = errors.New("notification not delivered")

// Status classifies the outcome for one item.
type Status string

const (
	StatusNew      Status = "new"
	StatusUpToDate Status = "up-to-date"
	StatusFailed   Status = "failed"
)

// Item is one tracked repository, already resolved from config.
type Item struct {
	// Name is the display label, falling back to Repo
	Name string
	// Repo is the platform-specific identifier
	Repo string
	// WatcherKey is the config alias the item references
	WatcherKey string
	// WatcherType is the platform type behind that alias
	WatcherType string
	// Config is the merged watcher config including item overrides
	Config watcher.Config
}

// Key returns the composite persistence key. The watcher type, not the
// config alias, keys the state so renaming an alias does not re-notify
// everything.
func (i Item) Key() string {
	return i.WatcherType + "_" + i.Repo
}

// DisplayName returns the label used in notifications and logs.
func (i Item) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Repo
}

// Result is the outcome of checking one item.
type Result struct {
	Item        Item
	Status      Status
	Tag         string
	PreviousTag string
	// DownloadFailures counts assets that could not be fetched;
	// non-zero does not block the notification.
	DownloadFailures int
	Err              error
}

// Summary tallies one run.
type Summary struct {
	Results  []Result
	New      int
	UpToDate int
	Failed   int
}

// Tracker orchestrates a run. Items are processed sequentially; one
// item's failure never aborts the batch.
type Tracker struct {
	backend    persistence.Backend
	notifiers  []notify.Notifier
	downloader *download.Downloader
	policy     notify.Policy

	uploadDefault bool
	forceNotify   bool

	client     *httpx.Client
	newWatcher func(watcherType string, cfg watcher.Config, client *httpx.Client) (watcher.Watcher, error)
	cache      map[string]watcher.Watcher
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithForceNotify bypasses version comparison for the whole run.
func WithForceNotify(force bool) Option {
	return func(t *Tracker) { t.forceNotify = force }
}

// WithUploadDefault sets the global asset-download default; item-level
// overrides win.
func WithUploadDefault(upload bool) Option {
	return func(t *Tracker) { t.uploadDefault = upload }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *httpx.Client) Option {
	return func(t *Tracker) { t.client = client }
}

// WithDownloader sets a custom asset downloader.
func WithDownloader(d *download.Downloader) Option {
	return func(t *Tracker) { t.downloader = d }
}

// WithWatcherFactory replaces the watcher constructor, for tests.
func WithWatcherFactory(fn func(string, watcher.Config, *httpx.Client) (watcher.Watcher, error)) Option {
	return func(t *Tracker) { t.newWatcher = fn }
}

// New creates a tracker over the given backend and notifiers.
func New(backend persistence.Backend, notifiers []notify.Notifier, policy notify.Policy, opts ...Option) *Tracker {
	t := &Tracker{
		backend:    backend,
		notifiers:  notifiers,
		policy:     policy,
		newWatcher: watcher.New,
		cache:      make(map[string]watcher.Watcher),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = httpx.New()
	}
	if t.downloader == nil {
		t.downloader = download.New(t.client, "downloads")
	}
	return t
}

// Run checks every item in order. The returned error is non-nil only
// for a fatal persistence failure; per-item failures are reported in
// the summary.
func (t *Tracker) Run(ctx context.Context, items []Item) (Summary, error) {
	var summary Summary

	for _, item := range items {
		result := t.processItem(ctx, item)
		summary.Results = append(summary.Results, result)

		switch result.Status {
		case StatusNew:
			summary.New++
		case StatusUpToDate:
			summary.UpToDate++
		case StatusFailed:
			summary.Failed++
		}

		if result.Err != nil && errors.Is(result.Err, persistence.ErrUnavailable) {
			// Without dedup state there is no safe way to continue.
			return summary, result.Err
		}
	}
	return summary, nil
}

func (t *Tracker) processItem(ctx context.Context, item Item) Result {
	result := Result{Item: item, Status: StatusFailed}

	logger.Info("checking %s (%s via %s)", item.DisplayName(), item.Repo, item.WatcherType)

	w, err := t.watcherFor(item)
	if err != nil {
		result.Err = fmt.Errorf("building %s watcher: %w", item.WatcherType, err)
		return result
	}

	info, err := w.FetchLatestRelease(ctx, item.Repo)
	if err != nil {
		result.Err = fmt.Errorf("fetching %s: %w", item.Repo, err)
		return result
	}
	result.Tag = info.Tag

	key := item.Key()
	previous, found, err := t.backend.GetLastRelease(ctx, key)
	if err != nil {
		result.Err = err
		return result
	}
	result.PreviousTag = previous

	changed := !found || previous != info.Tag
	if !changed && !t.forceNotify {
		logger.Info("already up to date: %s @ %s", item.Repo, info.Tag)
		result.Status = StatusUpToDate
		return result
	}
	if !changed {
		logger.Info("force-notify: re-notifying %s @ %s with no version change", item.Repo, info.Tag)
	} else if found {
		logger.Info("new release for %s: %s -> %s", item.Repo, previous, info.Tag)
	} else {
		logger.Info("first release seen for %s: %s", item.Repo, info.Tag)
	}

	var attachments []string
	if t.uploadEnabled(item) && len(info.Assets) > 0 {
		dl := t.downloader.FetchAll(ctx, key, info.Tag, item.Config.String("token", ""), info.Assets)
		attachments = dl.Succeeded()
		result.DownloadFailures = dl.FailedCount()
	}

	if !t.deliver(ctx, item, info, result.DownloadFailures, attachments) {
		result.Err = fmt.Errorf("%w: %s @ %s", ErrNotifyFailed, item.Repo, info.Tag)
		return result
	}

	// Persist only now that delivery met the policy; a crash earlier in
	// the cycle re-processes this item next run instead of losing the
	// notification. A force-notify with an unchanged tag writes nothing.
	if changed {
		if err := t.backend.SetLastRelease(ctx, key, info.Tag); err != nil {
			result.Err = err
			return result
		}
	}

	result.Status = StatusNew
	return result
}

// deliver fans the notification out to every configured notifier and
// applies the success policy across them. With no notifiers configured
// the step is a no-op that counts as delivered.
func (t *Tracker) deliver(ctx context.Context, item Item, info *release.Info, downloadFailures int, attachments []string) bool {
	if len(t.notifiers) == 0 {
		logger.Debug("no notifiers configured, skipping delivery for %s", item.Repo)
		return true
	}

	title := fmt.Sprintf("New release: %s %s", item.DisplayName(), info.Tag)

	delivered := 0
	for _, n := range t.notifiers {
		body := release.Render(item.Repo, info, n.Format())
		if downloadFailures > 0 {
			body = fmt.Sprintf("%s\n(%d asset download(s) failed)", body, downloadFailures)
		}
		if err := n.Send(ctx, title, body, attachments); err != nil {
			logger.Error("notification via %s failed for %s: %v", n.Name(), item.Repo, err)
			continue
		}
		logger.Info("notification sent via %s for %s", n.Name(), item.Repo)
		delivered++
	}
	return t.policy.Satisfied(delivered, len(t.notifiers))
}

func (t *Tracker) uploadEnabled(item Item) bool {
	if v, ok := item.Config.Bool("upload_assets"); ok {
		return v
	}
	return t.uploadDefault
}

// watcherFor caches watcher instances per (alias, merged config) so a
// run never rebuilds the same watcher.
func (t *Tracker) watcherFor(item Item) (watcher.Watcher, error) {
	cacheKey := item.WatcherKey + "|" + fingerprint(item.Config)
	if w, ok := t.cache[cacheKey]; ok {
		return w, nil
	}
	w, err := t.newWatcher(item.WatcherType, item.Config, t.client)
	if err != nil {
		return nil, err
	}
	t.cache[cacheKey] = w
	return w, nil
}

func fingerprint(cfg watcher.Config) string {
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, cfg[k])
	}
	return b.String()
}
