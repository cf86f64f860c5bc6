package interfaces

import (
	"context"
	"time"
)

// HistoryLog is the append-only revision log that records mirror files.
type HistoryLog interface {
	// Exists reports whether any revision has ever touched path.
	Exists(ctx context.Context, path string) (bool, error)
	// Stage marks path for inclusion in the next Commit.
	Stage(ctx context.Context, path string) error
	// Commit appends one revision for the staged paths.
	Commit(ctx context.Context, message string, authorTime, committerTime time.Time) error
}

// HistoryLister is implemented by logs that can enumerate the paths they
// track. The history writer uses it to retry files whose timestamp was
// already applied but whose commit failed.
type HistoryLister interface {
	Tracked(ctx context.Context) (map[string]struct{}, error)
}
