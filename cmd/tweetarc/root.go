package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tweetarc",
	Short: "A resumable Twitter/X search collector",
	Long: `tweetarc collects the complete set of tweets matching a search query
over a time range, persisting results incrementally so that long-running
collection jobs survive crashes, shutdowns and rate-limit exhaustion and
resume exactly where they left off.

Features:
  - Deterministic job identity: the same query and time range always map
    to the same output store
  - Crash-safe resume recomputed from the persisted data alone
  - Strict request pacing and rate-limit aware retries
  - Secure bearer token storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .tweetarc.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
