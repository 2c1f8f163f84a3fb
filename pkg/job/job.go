// Package job derives stable job identities and maps them to persisted
// store locations. Identity is a pure function of (query, start, end):
// the same inputs always resolve to the same store.
package job

import (
	"path/filepath"
	"strings"
	"unicode"

	"tweetarc/pkg/timewindow"
)

const (
	// openSentinel stands in for the end time of an open window, so open
	// and closed jobs for the same query/start never share a store.
	openSentinel = "open"

	// finishedSuffix marks a store whose window was fully walked. The
	// rename to this name is the completion marker; there is no separate
	// bookkeeping file.
	finishedSuffix = "_finished"

	storeExt = ".csv"
)

// keyTimeFormat keeps derived keys filesystem-safe.
const keyTimeFormat = "20060102150405"

// DeriveKey derives a stable, collision-resistant job key from the query and
// window. The query is reduced to its alphanumeric characters, so queries
// differing only in spacing or punctuation share a key. This is a documented
// approximation, not a hash.
func DeriveKey(query string, w timewindow.Window) string {
	end := openSentinel
	if !w.Open {
		end = w.End.UTC().Format(keyTimeFormat)
	}
	return strings.Join([]string{
		normalizeQuery(query),
		w.Start.UTC().Format(keyTimeFormat),
		end,
	}, "_")
}

// normalizeQuery strips whitespace and non-alphanumeric characters.
func normalizeQuery(query string) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// Paths resolves the store locations for one job key inside a data directory.
type Paths struct {
	// Active is the in-progress store location.
	Active string
	// Finished is the completed store location.
	Finished string
}

// StorePaths returns the active and finished store paths for a job key.
func StorePaths(dataDir, key string) Paths {
	return Paths{
		Active:   filepath.Join(dataDir, key+storeExt),
		Finished: filepath.Join(dataDir, key+finishedSuffix+storeExt),
	}
}
