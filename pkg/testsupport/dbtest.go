package testsupport

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// MemoryDSN returns a DSN for a private shared-cache in-memory database.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}

// NewSQLiteMemoryDB opens the in-memory database name with a single
// connection so every query sees the same schema.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", MemoryDSN(name))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewBunDB opens an in-memory sqlite database for the running test and
// closes it on cleanup.
func NewBunDB(t testing.TB) *bun.DB {
	t.Helper()
	sqldb, err := NewSQLiteMemoryDB(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}
