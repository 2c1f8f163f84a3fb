// Package engine drives the fetch→filter→append walk across a job's time
// window. The walk is strictly sequential: the continuation cursor is a
// linear token, so there is never more than one outstanding request.
package engine

import (
	"context"
	"fmt"
	"time"

	"tweetarc/pkg/checkpoint"
	"tweetarc/pkg/errors"
	"tweetarc/pkg/job"
	"tweetarc/pkg/logger"
	"tweetarc/pkg/store"
	"tweetarc/pkg/timewindow"
	"tweetarc/pkg/twitter"
	"tweetarc/pkg/ui"
)

// Fetcher retrieves one page at a time, absorbing transient failures.
type Fetcher interface {
	Fetch(ctx context.Context, params twitter.SearchParams, nextToken string) (*twitter.Page, error)
}

// Options describe one collection job.
type Options struct {
	Query    string
	Window   timewindow.Window
	PageSize int
	// Archive selects the full-archive search endpoint.
	Archive bool
	// ReadOnly returns finished results without fetching; fails with
	// NotYetFinished when the job has no finished store.
	ReadOnly bool
}

// Result is the outcome of a run.
type Result struct {
	Key       string
	StorePath string
	// Appended counts records durably added during this run.
	Appended int
	// Finished reports whether the window was fully walked. Open windows
	// never finish.
	Finished bool
	// Rows holds the store contents when a finished store already existed.
	Rows [][]string
}

// Engine orchestrates one job at a time. Concurrent runs against the same
// job identity are unsafe; distinct jobs are independent.
type Engine struct {
	fetcher  Fetcher
	dataDir  string
	progress ui.Reporter
	logger   logger.Logger

	maxFraction float64
}

// New creates an Engine writing stores under dataDir.
func New(fetcher Fetcher, dataDir string, progress ui.Reporter, log logger.Logger) *Engine {
	if progress == nil {
		progress = ui.Noop{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		fetcher:  fetcher,
		dataDir:  dataDir,
		progress: progress,
		logger:   log,
	}
}

// Run walks the job's window until the cursor is exhausted, resuming from
// the persisted store when one exists. Fatal errors abort the run; data
// already appended stays durable and resumable.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	key := job.DeriveKey(opts.Query, opts.Window)
	paths := job.StorePaths(e.dataDir, key)
	active := store.NewCSV(paths.Active, twitter.Columns())
	finished := store.NewCSV(paths.Finished, twitter.Columns())

	log := e.logger.WithFields(map[string]interface{}{
		"job":   key,
		"query": opts.Query,
	})

	// A finished store for a closed window is terminal: no fetch.
	if !opts.Window.Open && finished.Exists() {
		log.Info("job already finished, returning stored results")
		rows, err := finished.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read finished store: %w", err)
		}
		return &Result{
			Key:       key,
			StorePath: paths.Finished,
			Finished:  true,
			Rows:      rows,
		}, nil
	}

	if opts.ReadOnly {
		return nil, errors.Newf(errors.ErrorTypeNotYetFinished,
			"job %s has no finished store", key)
	}

	// Resume: the walk moves from most-recent toward least-recent, so
	// resuming re-queries the same window capped at the earliest point
	// already covered.
	untilID := ""
	var resumeFloor time.Time
	effectiveEnd := opts.Window.End
	if active.Exists() {
		point, err := checkpoint.ResumePoint(active)
		if err != nil {
			return nil, err
		}
		if point != nil {
			untilID = point.UntilID
			resumeFloor = point.FloorTime
			effectiveEnd = point.FloorTime
			log.InfoWithFields("resuming from persisted store", map[string]interface{}{
				"until_id":   point.UntilID,
				"floor_time": point.FloorTime,
			})
			e.report(opts.Window, point.FloorTime)
		}
	}

	params := twitter.SearchParams{
		Query:      opts.Query,
		StartTime:  opts.Window.FormatStart(),
		EndTime:    effectiveEnd.UTC().Format(timewindow.WireFormat),
		MaxResults: opts.PageSize,
		Archive:    opts.Archive,
	}

	appended := 0
	cursor := ""
	pageNum := 0

	for {
		page, err := e.fetcher.Fetch(ctx, params, cursor)
		if err != nil {
			log.WithError(err).Error("fetch failed, aborting run")
			return nil, err
		}
		pageNum++

		if len(page.Tweets) > 0 {
			batch := make([][]string, 0, len(page.Tweets))
			var batchFloor time.Time
			for _, t := range page.Tweets {
				// Records at or above the resume cursor, or not strictly
				// older than the resume floor, were persisted by a prior
				// run; the resumed window can overlap its last page.
				if untilID != "" &&
					(twitter.CompareIDs(t.ID, untilID) >= 0 || !t.CreatedAt.Before(resumeFloor)) {
					continue
				}
				batch = append(batch, twitter.ToRow(t))
				if batchFloor.IsZero() || t.CreatedAt.Before(batchFloor) {
					batchFloor = t.CreatedAt
				}
			}
			if len(batch) > 0 {
				if err := active.AppendRows(batch); err != nil {
					return nil, fmt.Errorf("failed to append batch: %w", err)
				}
				appended += len(batch)
				e.report(opts.Window, batchFloor)
				log.DebugWithFields("batch appended", map[string]interface{}{
					"page":     pageNum,
					"batch":    len(batch),
					"appended": appended,
				})
			}
		}

		if page.NextToken == "" {
			break
		}
		cursor = page.NextToken
	}

	result := &Result{
		Key:       key,
		StorePath: active.Path(),
		Appended:  appended,
	}

	if opts.Window.Open {
		// An open window is never complete: more data appears as "now"
		// advances, so the store stays in progress for the next run.
		log.InfoWithFields("open window walked to current margin", map[string]interface{}{
			"appended": appended,
		})
		return result, nil
	}

	if err := active.Touch(); err != nil {
		return nil, err
	}
	if err := active.Rename(paths.Finished); err != nil {
		return nil, err
	}
	result.Finished = true
	result.StorePath = paths.Finished
	e.progress.Report(1)

	log.InfoWithFields("window exhausted, store finished", map[string]interface{}{
		"appended": appended,
		"pages":    pageNum,
	})
	return result, nil
}

// report converts the earliest timestamp of the latest batch into a
// monotone fraction of the window's wall-clock span.
func (e *Engine) report(w timewindow.Window, floor time.Time) {
	span := w.Span().Seconds()
	if span <= 0 {
		return
	}
	fraction := w.End.Sub(floor).Seconds() / span
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction <= e.maxFraction {
		return
	}
	e.maxFraction = fraction
	e.progress.Report(fraction)
}
