package reconcile

import "github.com/goliatone/go-feedmirror/internal/articles"

// Merge copies every enrichment key the entry defines and the record lacks.
// Keys already on the record are never touched, so merging twice with the
// same entry is a no-op. The returned flag reports whether a key was added;
// the input record is not modified.
func Merge(record articles.Record, entry articles.IndexEntry) (articles.Record, bool) {
	out := record.Clone()
	changed := false
	for _, key := range articles.EnrichmentKeys {
		if out.Has(key) {
			continue
		}
		value, ok := entry.Get(key)
		if !ok {
			continue
		}
		out.Set(key, value)
		changed = true
	}
	return out, changed
}
