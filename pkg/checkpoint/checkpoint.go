// Package checkpoint recomputes a job's resume point from its persisted
// store alone. There is no side-channel state file: the store is the
// checkpoint, which makes the job crash-safe by construction.
package checkpoint

import (
	"fmt"
	"time"

	"tweetarc/pkg/store"
	"tweetarc/pkg/twitter"
)

// Point is the pair that restarts a backward-moving walk: the maximum
// identifier and minimum creation time ever persisted. The remaining span
// is [original start, FloorTime) and only records with id < UntilID that
// are strictly older than FloorTime are accepted.
type Point struct {
	UntilID   string
	FloorTime time.Time
}

// ResumePoint folds over the store and returns the resume point, or nil
// for a fresh job. The fold is streaming: arbitrarily large stores are
// never loaded whole.
func ResumePoint(st *store.CSVStore) (*Point, error) {
	if !st.Exists() {
		return nil, nil
	}

	var point *Point
	err := st.Scan(func(row []string) error {
		id := row[twitter.IDIndex]
		createdAt, err := twitter.RowCreatedAt(row)
		if err != nil {
			// Unparseable timestamp in a damaged row; the id filter alone
			// still guarantees no duplicates for it.
			return nil
		}

		if point == nil {
			point = &Point{UntilID: id, FloorTime: createdAt}
			return nil
		}
		if twitter.CompareIDs(id, point.UntilID) > 0 {
			point.UntilID = id
		}
		if createdAt.Before(point.FloorTime) {
			point.FloorTime = createdAt
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan store for resume point: %w", err)
	}

	return point, nil
}
