// Package timewindow turns user-supplied start/end time inputs into a
// canonical UTC, second-precision, half-open interval [start, end).
package timewindow

import (
	"time"

	"tweetarc/pkg/errors"
)

// WireFormat is the timestamp layout the remote search API expects.
const WireFormat = "2006-01-02T15:04:05Z"

// Window is a normalized query time range. An open window has no
// user-supplied end: its End tracks "now" minus a safety margin and the
// window can never be considered complete.
type Window struct {
	Start time.Time
	End   time.Time
	Open  bool
}

// FormatStart returns the window start in wire format.
func (w Window) FormatStart() string {
	return w.Start.UTC().Format(WireFormat)
}

// FormatEnd returns the window end in wire format.
func (w Window) FormatEnd() string {
	return w.End.UTC().Format(WireFormat)
}

// Span returns the wall-clock length of the window.
func (w Window) Span() time.Duration {
	return w.End.Sub(w.Start)
}

// Normalize parses start and end inputs into a Window. start is mandatory;
// an empty end produces an open window ending at now minus safetyMargin.
func Normalize(start, end string, safetyMargin time.Duration) (Window, error) {
	return NormalizeAt(start, end, safetyMargin, time.Now())
}

// NormalizeAt is Normalize with an explicit current time.
func NormalizeAt(start, end string, safetyMargin time.Duration, now time.Time) (Window, error) {
	if start == "" {
		return Window{}, errors.New(errors.ErrorTypeInvalidInput, "start time is required")
	}

	startTime, _, err := parseInput(start)
	if err != nil {
		return Window{}, errors.Newf(errors.ErrorTypeInvalidInput, "cannot parse start time %q", start)
	}

	w := Window{Start: startTime}

	if end == "" {
		w.End = now.UTC().Add(-safetyMargin).Truncate(time.Second)
		w.Open = true
	} else {
		endTime, dateOnly, err := parseInput(end)
		if err != nil {
			return Window{}, errors.Newf(errors.ErrorTypeInvalidInput, "cannot parse end time %q", end)
		}
		// A date-only end covers the whole day.
		if dateOnly {
			endTime = endTime.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		}
		w.End = endTime
	}

	if w.End.Before(w.Start) {
		return Window{}, errors.Newf(errors.ErrorTypeInvalidInput,
			"end time %s is before start time %s", w.FormatEnd(), w.FormatStart())
	}

	return w, nil
}

// parseInput parses a timestamp input, reporting whether it was date-only.
// A date-only value is taken at 00:00:00 UTC.
func parseInput(s string) (time.Time, bool, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, true, nil
	}
	layouts := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Truncate(time.Second), false, nil
		}
	}
	return time.Time{}, false, errors.Newf(errors.ErrorTypeInvalidInput, "unrecognized timestamp %q", s)
}
