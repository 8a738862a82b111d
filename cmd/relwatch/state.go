package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/relwatch/relwatch/internal/common/output"
	"github.com/relwatch/relwatch/internal/config"
	"github.com/relwatch/relwatch/internal/persistence"
	"github.com/spf13/cobra"
)

var (
	statePrefix string
	stateKey    string
	stateForce  bool
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and maintain the persisted release state",
	Long: `Commands for listing, querying and pruning the last-seen release entries
the tracker has recorded. Entries are keyed "{watcher_type}_{repo}".`,
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(ctx context.Context, backend persistence.Backend) error {
			entries, err := backend.GetAllEntries(ctx, statePrefix)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				output.PrintInfo("no entries stored")
				return nil
			}

			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				fmt.Printf("%s\t%s\n", key, entries[key])
			}
			return nil
		})
	},
}

var stateGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the stored version for one key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if stateKey == "" {
			return fmt.Errorf("--key is required")
		}
		return withBackend(cmd, func(ctx context.Context, backend persistence.Backend) error {
			tag, found, err := backend.GetLastRelease(ctx, stateKey)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no entry for %q", stateKey)
			}
			fmt.Println(tag)
			return nil
		})
	},
}

var stateDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete stored entries, optionally by prefix",
	Long: `Deletes every stored entry whose key starts with --prefix (all entries
when no prefix is given). Shows what would be removed and asks for
confirmation unless --force is set. Deleted repos are re-notified on
their next detected release.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(ctx context.Context, backend persistence.Backend) error {
			entries, err := backend.GetAllEntries(ctx, statePrefix)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				output.PrintInfo("nothing to delete")
				return nil
			}

			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Printf("%s\t%s\n", key, entries[key])
			}

			if !stateForce && !confirm(fmt.Sprintf("Delete these %d entries?", len(entries))) {
				output.PrintInfo("aborted")
				return nil
			}

			deleted, err := backend.DeleteEntries(ctx, statePrefix)
			if err != nil {
				return err
			}
			output.PrintSuccess("deleted %d entries", deleted)
			return nil
		})
	},
}

var stateStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts per watcher type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(ctx context.Context, backend persistence.Backend) error {
			entries, err := backend.GetAllEntries(ctx, "")
			if err != nil {
				return err
			}

			byType := make(map[string]int)
			for key := range entries {
				watcherType, _, found := strings.Cut(key, "_")
				if !found {
					watcherType = "(unknown)"
				}
				byType[watcherType]++
			}

			types := make([]string, 0, len(byType))
			for t := range byType {
				types = append(types, t)
			}
			sort.Strings(types)

			output.Header.Println("Entries per watcher type")
			for _, t := range types {
				fmt.Printf("  %-16s %d\n", t, byType[t])
			}
			fmt.Printf("  %-16s %d\n", "total", len(entries))
			return nil
		})
	},
}

func init() {
	stateListCmd.Flags().StringVarP(&statePrefix, "prefix", "p", "", "Only keys starting with this prefix")
	stateDeleteCmd.Flags().StringVarP(&statePrefix, "prefix", "p", "", "Only keys starting with this prefix")
	stateDeleteCmd.Flags().BoolVar(&stateForce, "force", false, "Skip the confirmation prompt")
	stateGetCmd.Flags().StringVarP(&stateKey, "key", "k", "", "Full entry key, e.g. github_owner/repo")

	stateCmd.AddCommand(stateListCmd, stateGetCmd, stateDeleteCmd, stateStatsCmd)
	rootCmd.AddCommand(stateCmd)
}

// withBackend opens the configured persistence backend for one state
// operation and closes it afterwards.
func withBackend(cmd *cobra.Command, fn func(context.Context, persistence.Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, configSource, strictEnv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	backend, err := persistence.New(ctx, cfg.Persistence.Type, persistence.Options(cfg.Persistence.Config))
	if err != nil {
		return fmt.Errorf("opening persistence backend: %w", err)
	}
	defer backend.Close()

	return fn(ctx, backend)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
