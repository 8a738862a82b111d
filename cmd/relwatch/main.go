package main

import (
	"fmt"
	"os"

	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/relwatch/relwatch/internal/common/output"
	"github.com/relwatch/relwatch/internal/config"
	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	configSource string
	strictEnv    bool
	verbose      bool
	quiet        bool
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:   "relwatch",
	Short: "Track upstream releases and notify on new versions",
	Long: `relwatch polls software distribution platforms (GitHub, GitLab, Docker Hub,
PyPI, npm, Maven Central, Homebrew, WordPress, F-Droid, APKMirror, APKPure)
for new releases, remembers the last version it has seen, and sends
notifications when something changed. Designed to run as a single-shot
under cron or a CI scheduler.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
	},
	// Bare "relwatch" runs a full check cycle
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configSource, "config", "c", config.DefaultSource(),
		"Config source: local path, http(s) URL or s3://bucket/key")
	rootCmd.PersistentFlags().BoolVar(&strictEnv, "strict-env", false,
		"Fail on unset environment variables without defaults in the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
