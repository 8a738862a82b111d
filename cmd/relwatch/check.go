package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/relwatch/relwatch/internal/common/output"
	"github.com/relwatch/relwatch/internal/config"
	"github.com/relwatch/relwatch/internal/download"
	"github.com/relwatch/relwatch/internal/httpx"
	"github.com/relwatch/relwatch/internal/notify"
	"github.com/relwatch/relwatch/internal/persistence"
	"github.com/relwatch/relwatch/internal/tracker"
	"github.com/relwatch/relwatch/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	checkRepo    string
	checkWatcher string
	forceNotify  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one check cycle over the configured repos",
	Long: `Fetches the latest release for every configured repo, compares it against
the persisted state, notifies the configured destinations on changes and
records the new version. With --repo only that single repo is checked.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkRepo, "repo", "r", "", "Check a single repo identifier instead of the whole config")
	checkCmd.Flags().StringVarP(&checkWatcher, "watcher", "w", "", "Watcher key (or type) for --repo; resolved from config when omitted")
	checkCmd.Flags().BoolVar(&forceNotify, "force-notify", false, "Notify even when the version is unchanged (also: FORCE_NOTIFY env)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, configSource, strictEnv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	items, err := buildItems(cfg)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		output.PrintWarning("nothing to check: no repos configured")
		return nil
	}

	backend, err := persistence.New(ctx, cfg.Persistence.Type, persistence.Options(cfg.Persistence.Config))
	if err != nil {
		return fmt.Errorf("opening persistence backend: %w", err)
	}
	defer backend.Close()

	policy := notify.Policy(cfg.NotifyPolicy)
	notifiers, err := notify.NewAll(cfg.Notifiers, policy)
	if err != nil {
		return fmt.Errorf("building notifiers: %w", err)
	}

	client := httpx.New()
	t := tracker.New(backend, notifiers, policy,
		tracker.WithHTTPClient(client),
		tracker.WithDownloader(download.New(client, cfg.DownloadDir)),
		tracker.WithUploadDefault(cfg.UploadAssets),
		tracker.WithForceNotify(forceNotify || os.Getenv("FORCE_NOTIFY") != ""),
	)

	summary, runErr := t.Run(ctx, items)
	printSummary(summary)
	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

// buildItems resolves the config into tracker items, honoring the
// single-repo flags.
func buildItems(cfg *config.Config) ([]tracker.Item, error) {
	if checkRepo == "" {
		items := make([]tracker.Item, 0, len(cfg.Repos))
		for i := range cfg.Repos {
			item, err := itemFromEntry(cfg, &cfg.Repos[i])
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}

	if checkWatcher == "" {
		entry, err := cfg.ResolveRepo(checkRepo)
		if err != nil {
			return nil, err
		}
		item, err := itemFromEntry(cfg, entry)
		if err != nil {
			return nil, err
		}
		return []tracker.Item{item}, nil
	}

	// Explicit watcher: a config key wins, a bare registered type works
	// without any config.
	if _, ok := cfg.Watchers[checkWatcher]; ok {
		entry := &config.RepoEntry{Repo: checkRepo, Watcher: checkWatcher}
		item, err := itemFromEntry(cfg, entry)
		if err != nil {
			return nil, err
		}
		return []tracker.Item{item}, nil
	}
	for _, t := range watcher.Types() {
		if t == checkWatcher {
			return []tracker.Item{{
				Repo:        checkRepo,
				WatcherKey:  checkWatcher,
				WatcherType: checkWatcher,
				Config:      watcher.Config{},
			}}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (known types: %s)",
		watcher.ErrUnknownType, checkWatcher, strings.Join(watcher.Types(), ", "))
}

func itemFromEntry(cfg *config.Config, entry *config.RepoEntry) (tracker.Item, error) {
	wtype, merged, err := cfg.MergedWatcherConfig(entry)
	if err != nil {
		return tracker.Item{}, err
	}
	return tracker.Item{
		Name:        entry.Name,
		Repo:        entry.Repo,
		WatcherKey:  entry.Watcher,
		WatcherType: wtype,
		Config:      watcher.Config(merged),
	}, nil
}

func printSummary(summary tracker.Summary) {
	fmt.Println()
	output.Header.Println("Results")
	for _, r := range summary.Results {
		line := fmt.Sprintf("%s %s", output.FormatStatus(string(r.Status)), r.Item.DisplayName())
		switch {
		case r.Err != nil:
			line += fmt.Sprintf(": %v", r.Err)
		case r.Status == tracker.StatusNew && r.PreviousTag != "":
			line += fmt.Sprintf(": %s -> %s", r.PreviousTag, r.Tag)
		case r.Tag != "":
			line += fmt.Sprintf(": %s", r.Tag)
		}
		if r.DownloadFailures > 0 {
			line += fmt.Sprintf(" (%d asset download(s) failed)", r.DownloadFailures)
		}
		fmt.Println("  " + line)
	}

	fmt.Println()
	if summary.Failed > 0 {
		output.PrintWarning("%d new, %d up to date, %d failed", summary.New, summary.UpToDate, summary.Failed)
	} else {
		output.PrintSuccess("%d new, %d up to date", summary.New, summary.UpToDate)
	}
}
