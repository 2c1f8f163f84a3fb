package engine

import (
	"context"
	"testing"
	"time"

	"tweetarc/pkg/errors"
	"tweetarc/pkg/job"
	"tweetarc/pkg/store"
	"tweetarc/pkg/timewindow"
	"tweetarc/pkg/twitter"
)

// scriptedFetcher replays prepared pages and records the request
// parameters it saw.
type scriptedFetcher struct {
	pages   []*twitter.Page
	calls   int
	params  []twitter.SearchParams
	cursors []string
}

func (f *scriptedFetcher) Fetch(ctx context.Context, params twitter.SearchParams, nextToken string) (*twitter.Page, error) {
	f.params = append(f.params, params)
	f.cursors = append(f.cursors, nextToken)
	if f.calls >= len(f.pages) {
		return &twitter.Page{}, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func closedWindow() timewindow.Window {
	return timewindow.Window{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 1, 2, 23, 59, 59, 0, time.UTC),
	}
}

func tweetAt(id string, hoursBeforeEnd int) twitter.Tweet {
	w := closedWindow()
	return twitter.Tweet{
		ID:        id,
		Text:      "t" + id,
		CreatedAt: w.End.Add(-time.Duration(hoursBeforeEnd) * time.Hour),
	}
}

func newTestEngine(f Fetcher, dataDir string) *Engine {
	return New(f, dataDir, nil, nil)
}

func defaultOpts() Options {
	return Options{
		Query:    "climate",
		Window:   closedWindow(),
		PageSize: 100,
	}
}

func TestRun(t *testing.T) {
	t.Run("TwoPageWalkFinishes", func(t *testing.T) {
		fetcher := &scriptedFetcher{pages: []*twitter.Page{
			{
				Tweets:      []twitter.Tweet{tweetAt("9", 1), tweetAt("8", 2), tweetAt("7", 3)},
				ResultCount: 3,
				NextToken:   "page2",
			},
			{
				Tweets:      []twitter.Tweet{tweetAt("6", 10), tweetAt("5", 20)},
				ResultCount: 2,
			},
		}}
		dataDir := t.TempDir()
		eng := newTestEngine(fetcher, dataDir)

		res, err := eng.Run(context.Background(), defaultOpts())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if !res.Finished {
			t.Error("Expected a finished run")
		}
		if res.Appended != 5 {
			t.Errorf("Expected 5 appended records, got %d", res.Appended)
		}
		if fetcher.calls != 2 {
			t.Errorf("Expected 2 fetches, got %d", fetcher.calls)
		}
		if fetcher.cursors[0] != "" || fetcher.cursors[1] != "page2" {
			t.Errorf("Unexpected cursor sequence: %v", fetcher.cursors)
		}

		paths := job.StorePaths(dataDir, res.Key)
		if res.StorePath != paths.Finished {
			t.Errorf("Expected store at finished path, got %s", res.StorePath)
		}
		finished := store.NewCSV(paths.Finished, twitter.Columns())
		rows, err := finished.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(rows) != 5 {
			t.Errorf("Expected 5 stored rows, got %d", len(rows))
		}
		seen := map[string]bool{}
		for _, row := range rows {
			if seen[row[twitter.IDIndex]] {
				t.Errorf("Duplicate id %s in store", row[twitter.IDIndex])
			}
			seen[row[twitter.IDIndex]] = true
		}
		if active := store.NewCSV(paths.Active, twitter.Columns()); active.Exists() {
			t.Error("Active store still present after finish")
		}
	})

	t.Run("ZeroResultWindowFinishes", func(t *testing.T) {
		fetcher := &scriptedFetcher{pages: []*twitter.Page{{ResultCount: 0}}}
		dataDir := t.TempDir()
		eng := newTestEngine(fetcher, dataDir)

		res, err := eng.Run(context.Background(), defaultOpts())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !res.Finished || res.Appended != 0 {
			t.Errorf("Expected empty finished run, got %+v", res)
		}
		finished := store.NewCSV(res.StorePath, twitter.Columns())
		if !finished.Exists() {
			t.Error("Expected a header-only finished store")
		}
	})

	t.Run("ResumeFiltersAndCapsWindow", func(t *testing.T) {
		dataDir := t.TempDir()
		w := closedWindow()

		// A prior run persisted ids 5 and 6; 5 is the oldest.
		key := job.DeriveKey("climate", w)
		paths := job.StorePaths(dataDir, key)
		prior := store.NewCSV(paths.Active, twitter.Columns())
		floor := tweetAt("5", 20).CreatedAt
		if err := prior.AppendRows([][]string{
			twitter.ToRow(tweetAt("6", 10)),
			twitter.ToRow(tweetAt("5", 20)),
		}); err != nil {
			t.Fatalf("Failed to seed prior run: %v", err)
		}

		// The resumed page overlaps the prior run's tail.
		fetcher := &scriptedFetcher{pages: []*twitter.Page{{
			Tweets: []twitter.Tweet{
				tweetAt("6", 10),
				tweetAt("4", 22),
				tweetAt("3", 24),
			},
			ResultCount: 3,
		}}}
		eng := newTestEngine(fetcher, dataDir)

		res, err := eng.Run(context.Background(), defaultOpts())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if res.Appended != 2 {
			t.Errorf("Expected 2 new records after de-dup, got %d", res.Appended)
		}
		wantEnd := floor.UTC().Format(timewindow.WireFormat)
		if fetcher.params[0].EndTime != wantEnd {
			t.Errorf("Expected end capped at %s, got %s", wantEnd, fetcher.params[0].EndTime)
		}
		if fetcher.params[0].StartTime != w.FormatStart() {
			t.Errorf("Start time changed on resume: %s", fetcher.params[0].StartTime)
		}

		finished := store.NewCSV(res.StorePath, twitter.Columns())
		rows, err := finished.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		ids := map[string]int{}
		for _, row := range rows {
			ids[row[twitter.IDIndex]]++
		}
		for id, n := range ids {
			if n != 1 {
				t.Errorf("Id %s stored %d times", id, n)
			}
		}
		if len(rows) != 4 {
			t.Errorf("Expected 4 rows total, got %d", len(rows))
		}
	})

	t.Run("ResumeBoundaryRecordNotDuplicated", func(t *testing.T) {
		dataDir := t.TempDir()
		w := closedWindow()
		key := job.DeriveKey("climate", w)
		paths := job.StorePaths(dataDir, key)
		prior := store.NewCSV(paths.Active, twitter.Columns())
		if err := prior.AppendRows([][]string{
			twitter.ToRow(tweetAt("9", 2)),
			twitter.ToRow(tweetAt("7", 4)),
			twitter.ToRow(tweetAt("5", 6)),
		}); err != nil {
			t.Fatalf("Failed to seed prior run: %v", err)
		}

		// The server replays the floor record (id 5) at the window boundary.
		fetcher := &scriptedFetcher{pages: []*twitter.Page{{
			Tweets: []twitter.Tweet{
				tweetAt("6", 7),
				tweetAt("5", 6),
				tweetAt("4", 8),
				tweetAt("3", 9),
			},
			ResultCount: 4,
		}}}
		eng := newTestEngine(fetcher, dataDir)

		res, err := eng.Run(context.Background(), defaultOpts())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.Appended != 3 {
			t.Errorf("Expected ids 6, 4 and 3 appended, got %d records", res.Appended)
		}

		rows, err := store.NewCSV(res.StorePath, twitter.Columns()).ReadAll()
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		ids := map[string]int{}
		for _, row := range rows {
			ids[row[twitter.IDIndex]]++
		}
		if ids["5"] != 1 {
			t.Errorf("Boundary id 5 stored %d times", ids["5"])
		}
		for _, id := range []string{"3", "4", "6", "7", "9"} {
			if ids[id] != 1 {
				t.Errorf("Id %s stored %d times", id, ids[id])
			}
		}
	})

	t.Run("FinishedStoreShortCircuits", func(t *testing.T) {
		dataDir := t.TempDir()
		w := closedWindow()
		key := job.DeriveKey("climate", w)
		paths := job.StorePaths(dataDir, key)
		finished := store.NewCSV(paths.Finished, twitter.Columns())
		if err := finished.AppendRows([][]string{twitter.ToRow(tweetAt("1", 1))}); err != nil {
			t.Fatalf("Failed to seed finished store: %v", err)
		}

		fetcher := &scriptedFetcher{}
		eng := newTestEngine(fetcher, dataDir)

		res, err := eng.Run(context.Background(), defaultOpts())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if fetcher.calls != 0 {
			t.Errorf("Expected zero fetches, got %d", fetcher.calls)
		}
		if !res.Finished || len(res.Rows) != 1 {
			t.Errorf("Expected stored rows returned, got %+v", res)
		}
	})

	t.Run("ReadOnlyUnfinished", func(t *testing.T) {
		fetcher := &scriptedFetcher{}
		eng := newTestEngine(fetcher, t.TempDir())

		opts := defaultOpts()
		opts.ReadOnly = true
		_, err := eng.Run(context.Background(), opts)
		if !errors.IsType(err, errors.ErrorTypeNotYetFinished) {
			t.Errorf("Expected not_yet_finished error, got %v", err)
		}
		if fetcher.calls != 0 {
			t.Errorf("Read-only run must not fetch, got %d calls", fetcher.calls)
		}
	})

	t.Run("OpenWindowNeverFinishes", func(t *testing.T) {
		fetcher := &scriptedFetcher{pages: []*twitter.Page{{
			Tweets:      []twitter.Tweet{tweetAt("9", 1)},
			ResultCount: 1,
		}}}
		dataDir := t.TempDir()
		eng := newTestEngine(fetcher, dataDir)

		opts := defaultOpts()
		opts.Window.Open = true
		res, err := eng.Run(context.Background(), opts)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.Finished {
			t.Error("Open window must never finish")
		}
		paths := job.StorePaths(dataDir, res.Key)
		if res.StorePath != paths.Active {
			t.Errorf("Expected store at active path, got %s", res.StorePath)
		}
		if store.NewCSV(paths.Finished, twitter.Columns()).Exists() {
			t.Error("Open window produced a finished store")
		}
	})

	t.Run("AbortThenResumeConverges", func(t *testing.T) {
		dataDir := t.TempDir()

		// First run dies after one page: the fetcher fails on page two.
		first := &failingFetcher{
			page: &twitter.Page{
				Tweets:      []twitter.Tweet{tweetAt("9", 1), tweetAt("8", 2)},
				ResultCount: 2,
				NextToken:   "page2",
			},
		}
		eng := newTestEngine(first, dataDir)
		if _, err := eng.Run(context.Background(), defaultOpts()); err == nil {
			t.Fatal("Expected first run to fail")
		}

		// Second run resumes and walks to completion.
		second := &scriptedFetcher{pages: []*twitter.Page{{
			Tweets:      []twitter.Tweet{tweetAt("8", 2), tweetAt("7", 3)},
			ResultCount: 2,
		}}}
		eng2 := newTestEngine(second, dataDir)
		res, err := eng2.Run(context.Background(), defaultOpts())
		if err != nil {
			t.Fatalf("Resumed run failed: %v", err)
		}
		if !res.Finished {
			t.Error("Expected resumed run to finish")
		}

		rows, err := store.NewCSV(res.StorePath, twitter.Columns()).ReadAll()
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(rows) != 3 {
			t.Errorf("Expected 3 rows (9, 8, 7), got %d", len(rows))
		}
		ids := map[string]int{}
		for _, row := range rows {
			ids[row[twitter.IDIndex]]++
		}
		if ids["8"] != 1 {
			t.Errorf("Overlapping id 8 stored %d times", ids["8"])
		}
	})
}

// failingFetcher serves one page then errors.
type failingFetcher struct {
	page  *twitter.Page
	calls int
}

func (f *failingFetcher) Fetch(ctx context.Context, params twitter.SearchParams, nextToken string) (*twitter.Page, error) {
	f.calls++
	if f.calls == 1 {
		return f.page, nil
	}
	return nil, errors.New(errors.ErrorTypeRequestExhausted, "no successful response after 10 attempts")
}

func TestProgressMonotone(t *testing.T) {
	rec := &recordingReporter{}
	eng := New(&scriptedFetcher{pages: []*twitter.Page{
		{
			// Batches arrive newest-first, so fractions should only grow.
			Tweets:      []twitter.Tweet{tweetAt("9", 4)},
			ResultCount: 1,
			NextToken:   "p2",
		},
		{
			Tweets:      []twitter.Tweet{tweetAt("8", 12)},
			ResultCount: 1,
		},
	}}, t.TempDir(), rec, nil)

	if _, err := eng.Run(context.Background(), defaultOpts()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rec.fractions) == 0 {
		t.Fatal("Expected progress reports")
	}
	last := -1.0
	for _, f := range rec.fractions {
		if f < last {
			t.Errorf("Progress regressed from %f to %f", last, f)
		}
		last = f
	}
	if rec.fractions[len(rec.fractions)-1] != 1 {
		t.Errorf("Expected final report of 1, got %f", rec.fractions[len(rec.fractions)-1])
	}
}

type recordingReporter struct {
	fractions []float64
}

func (r *recordingReporter) Report(fraction float64) {
	r.fractions = append(r.fractions, fraction)
}
