// Package reconcile decides which articles a run fetches and folds index
// metadata into the records already mirrored.
package reconcile

import (
	"errors"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/internal/failures"
)

var (
	// ErrEmptyIndex is returned when the remote index carries no entries.
	ErrEmptyIndex = errors.New("reconcile: remote index is empty")
	// ErrNoIdentifiers is returned when no index entry carries a usable id.
	ErrNoIdentifiers = errors.New("reconcile: remote index has no article ids")
)

// Plan returns the ids present in index but absent from existing, in index
// order. Entries without an id are ignored and duplicate ids are planned once.
// Both errors it returns are fatal for the run.
func Plan(index []articles.IndexEntry, existing map[string]struct{}) ([]string, error) {
	if len(index) == 0 {
		return nil, failures.FatalIndex(ErrEmptyIndex)
	}

	ids := IDs(index)
	if len(ids) == 0 {
		return nil, failures.FatalIndex(ErrNoIdentifiers)
	}

	planned := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := existing[id]; ok {
			continue
		}
		planned = append(planned, id)
	}
	return planned, nil
}

// IDs lists the usable ids of index in order, without duplicates.
func IDs(index []articles.IndexEntry) []string {
	seen := make(map[string]struct{}, len(index))
	ids := make([]string, 0, len(index))
	for _, entry := range index {
		id := entry.ID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ByID indexes entries by id. The first entry wins for duplicate ids.
func ByID(index []articles.IndexEntry) map[string]articles.IndexEntry {
	out := make(map[string]articles.IndexEntry, len(index))
	for _, entry := range index {
		id := entry.ID()
		if id == "" {
			continue
		}
		if _, dup := out[id]; !dup {
			out[id] = entry
		}
	}
	return out
}
