package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tweetarc/pkg/auth"
	"tweetarc/pkg/config"
	"tweetarc/pkg/engine"
	"tweetarc/pkg/errors"
	"tweetarc/pkg/fetcher"
	"tweetarc/pkg/job"
	"tweetarc/pkg/logger"
	"tweetarc/pkg/ratelimit"
	"tweetarc/pkg/timewindow"
	"tweetarc/pkg/twitter"
	"tweetarc/pkg/ui"
)

var (
	// Search command flags
	startTime    string
	endTime      string
	pageSize     int
	perseverance int
	dataDir      string
	archive      bool
	readOnly     bool
)

// searchCmd represents the search command.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Collect all tweets matching a query over a time range",
	Long: `Collect every tweet matching a search query between --start and --end,
writing results to a CSV store named after the job identity.

If a previous run for the same query and time range was interrupted, the
collection resumes from the persisted data. When --end is omitted the window
is open: it tracks "now" and the job can be re-run later to extend it.`,
	Example: `  # Collect a closed window
  tweetarc search "climate" --start 2020-01-01 --end 2020-01-02

  # Open-ended window, resumable and extensible
  tweetarc search "climate lang:en" --start 2024-06-01

  # Full-archive search with a smaller page size
  tweetarc search "climate" --start 2020-01-01 --end 2020-02-01 --archive --page-size 100

  # Print results of an already finished job without fetching
  tweetarc search "climate" --start 2020-01-01 --end 2020-01-02 --read-only`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(strings.TrimSpace(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&startTime, "start", "", "window start (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS), required")
	searchCmd.Flags().StringVar(&endTime, "end", "", "window end; omit for an open, still-updating window")
	searchCmd.Flags().IntVar(&pageSize, "page-size", 0, "results per request, 10-500")
	searchCmd.Flags().IntVar(&perseverance, "perseverance", -1, "retry budget per request, 0 for unbounded")
	searchCmd.Flags().StringVar(&dataDir, "data-dir", "", "directory for persisted stores")
	searchCmd.Flags().BoolVar(&archive, "archive", false, "use the full-archive search endpoint")
	searchCmd.Flags().BoolVar(&readOnly, "read-only", false, "return finished results without fetching")
}

func runSearch(query string) error {
	flags := make(map[string]interface{})
	if pageSize > 0 {
		flags["page-size"] = pageSize
	}
	if perseverance >= 0 {
		flags["perseverance"] = perseverance
	}
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if archive {
		flags["archive"] = true
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Configuration error", err)
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Logger initialization failed", err)
		return err
	}
	log := logger.GetLogger()

	window, err := timewindow.Normalize(startTime, endTime, cfg.Search.SafetyMargin)
	if err != nil {
		reportFatal(err, "")
		return err
	}
	jobKey := job.DeriveKey(query, window)

	token := cfg.API.BearerToken
	if token == "" {
		manager, err := auth.NewManager()
		if err != nil {
			ui.PrintError("Credential store error", err)
			return err
		}
		token, err = manager.Get()
		if err != nil {
			reportFatal(err, jobKey)
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := twitter.NewClient(cfg.API.BaseURL, token, cfg.API.Timeout, log)
	pacer := ratelimit.NewPacer(fetcher.MinRequestSpacing)
	f := fetcher.New(client, pacer, cfg.Search.Perseverance, log)

	progress := ui.NewProgress(os.Stderr, "collecting")
	eng := engine.New(f, cfg.Output.DataDirectory, progress, log)

	ui.PrintInfo("Query", query)
	ui.PrintInfo("Window", fmt.Sprintf("%s .. %s", window.FormatStart(), window.FormatEnd()))
	ui.PrintInfo("Job", jobKey)

	result, err := eng.Run(ctx, engine.Options{
		Query:    query,
		Window:   window,
		PageSize: cfg.Search.PageSize,
		Archive:  cfg.API.Archive,
		ReadOnly: readOnly,
	})
	progress.Done()
	if err != nil {
		reportFatal(err, jobKey)
		return err
	}

	if len(result.Rows) > 0 && result.Appended == 0 {
		ui.PrintInfo("Stored records", fmt.Sprintf("%d", len(result.Rows)))
	} else {
		ui.PrintInfo("Appended records", fmt.Sprintf("%d", result.Appended))
	}
	ui.PrintInfo("Store", result.StorePath)
	if result.Finished {
		ui.PrintSuccess("Job finished: the full window has been collected")
	} else {
		ui.PrintWarning("Job in progress: run the same command again to continue")
	}

	return nil
}

// reportFatal prints a fatal error with its kind and, for rejected queries,
// the remote explanation verbatim. The job key lets the caller resume or
// inspect the partial store.
func reportFatal(err error, jobKey string) {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		ui.PrintError("Error", err)
		return
	}

	switch e.Type {
	case errors.ErrorTypeInvalidQuery:
		ui.PrintError("The API rejected the query")
		if e.Detail != "" {
			fmt.Fprintln(os.Stderr, e.Detail)
		}
	default:
		ui.PrintError(string(e.Type), e.Message)
	}
	if jobKey != "" {
		ui.PrintInfo("Job", jobKey)
	}
}
