package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// LedgerLog records revisions in a SQL table through bun.
type LedgerLog struct {
	db     *bun.DB
	mu     sync.Mutex
	staged []string
}

var (
	_ interfaces.HistoryLog    = (*LedgerLog)(nil)
	_ interfaces.HistoryLister = (*LedgerLog)(nil)
)

var errLedgerNoDB = errors.New("history: ledger log requires a database")

// NewLedgerLog returns a ledger over db. Call Migrate before first use.
func NewLedgerLog(db *bun.DB) *LedgerLog {
	return &LedgerLog{db: db}
}

// Migrate creates the history_entries table when missing.
func (l *LedgerLog) Migrate(ctx context.Context) error {
	if l.db == nil {
		return errLedgerNoDB
	}
	if _, err := l.db.NewCreateTable().Model((*entryModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := l.db.NewCreateIndex().
		Model((*entryModel)(nil)).
		Index("history_entries_path_idx").
		Column("path").
		IfNotExists().
		Exec(ctx)
	return err
}

func (l *LedgerLog) Exists(ctx context.Context, p string) (bool, error) {
	if l.db == nil {
		return false, errLedgerNoDB
	}
	return l.db.NewSelect().Model((*entryModel)(nil)).Where("path = ?", p).Exists(ctx)
}

func (l *LedgerLog) Stage(_ context.Context, p string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staged = appendUnique(l.staged, p)
	return nil
}

func (l *LedgerLog) Commit(ctx context.Context, message string, authorTime, committerTime time.Time) error {
	if l.db == nil {
		return errLedgerNoDB
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	staged := l.staged
	l.staged = nil
	if len(staged) == 0 {
		return ErrNothingStaged
	}

	revision := revisionID(message, authorTime, staged)
	recorded := time.Now().UTC()
	rows := make([]entryModel, 0, len(staged))
	for _, p := range staged {
		rows = append(rows, entryModel{
			Revision:    revision,
			Path:        p,
			Message:     message,
			AuthoredAt:  authorTime.UTC(),
			CommittedAt: committerTime.UTC(),
			RecordedAt:  recorded,
		})
	}
	err := l.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	return err
}

func (l *LedgerLog) Tracked(ctx context.Context) (map[string]struct{}, error) {
	if l.db == nil {
		return nil, errLedgerNoDB
	}
	var paths []string
	if err := l.db.NewSelect().Model((*entryModel)(nil)).Distinct().Column("path").Scan(ctx, &paths); err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		out[p] = struct{}{}
	}
	return out, nil
}

// Entries returns every recorded revision ordered by authored time.
func (l *LedgerLog) Entries(ctx context.Context) ([]Entry, error) {
	if l.db == nil {
		return nil, errLedgerNoDB
	}
	var models []entryModel
	if err := l.db.NewSelect().Model(&models).Order("authored_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(models))
	for _, m := range models {
		out = append(out, Entry{
			Revision:    m.Revision,
			Path:        m.Path,
			Message:     m.Message,
			AuthoredAt:  m.AuthoredAt,
			CommittedAt: m.CommittedAt,
		})
	}
	return out, nil
}

type entryModel struct {
	bun.BaseModel `bun:"table:history_entries"`

	ID          int64     `bun:",pk,autoincrement"`
	Revision    string    `bun:"revision,notnull"`
	Path        string    `bun:"path,notnull"`
	Message     string    `bun:"message"`
	AuthoredAt  time.Time `bun:"authored_at,notnull"`
	CommittedAt time.Time `bun:"committed_at,notnull"`
	RecordedAt  time.Time `bun:"recorded_at,notnull"`
}
