package history

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-feedmirror/internal/identity"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// MemoryLog keeps revisions in memory. It backs dry runs and tests.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
	staged  []string
	// FailCommit, when set, is returned by Commit without recording anything.
	FailCommit error
}

var (
	_ interfaces.HistoryLog    = (*MemoryLog)(nil)
	_ interfaces.HistoryLister = (*MemoryLog)(nil)
)

// NewMemoryLog returns an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Exists(_ context.Context, p string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Path == p {
			return true, nil
		}
	}
	return false, nil
}

func (l *MemoryLog) Stage(_ context.Context, p string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staged = appendUnique(l.staged, p)
	return nil
}

func (l *MemoryLog) Commit(_ context.Context, message string, authorTime, committerTime time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	staged := l.staged
	l.staged = nil
	if l.FailCommit != nil {
		return l.FailCommit
	}
	if len(staged) == 0 {
		return ErrNothingStaged
	}
	revision := revisionID(message, authorTime, staged)
	for _, p := range staged {
		l.entries = append(l.entries, Entry{
			Revision:    revision,
			Path:        p,
			Message:     message,
			AuthoredAt:  authorTime,
			CommittedAt: committerTime,
		})
	}
	return nil
}

func (l *MemoryLog) Tracked(context.Context) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]struct{}, len(l.entries))
	for _, e := range l.entries {
		out[e.Path] = struct{}{}
	}
	return out, nil
}

// Entries returns the recorded revisions in append order.
func (l *MemoryLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// revisionID derives a stable revision identifier from the commit inputs.
func revisionID(message string, authored time.Time, paths []string) string {
	key := "feedmirror:revision:" + message + "\x00" + authored.UTC().Format(time.RFC3339)
	for _, p := range paths {
		key += "\x00" + p
	}
	return identity.UUID(key).String()
}
