package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps one row per (record, field) in a table named after the
// storage target.
type SQLiteStore struct {
	db    *sql.DB
	table string
	owned bool
}

// OpenSQLite opens a database. Use ":memory:" for an in-memory database.
// SQLite has a single writer, and every pooled connection to ":memory:"
// would see its own database, so the pool is pinned to one connection.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteStore binds a store to table on a database owned by the caller.
func NewSQLiteStore(db *sql.DB, table string) *SQLiteStore {
	return &SQLiteStore{db: db, table: table}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ProvisionTable creates the table when missing.
func (s *SQLiteStore) ProvisionTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			stats TEXT    NOT NULL,
			field TEXT    NOT NULL,
			value INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (stats, field)
		)`, quoteIdent(s.table)))
	if err != nil {
		return unavailable("create table", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE stats = ? AND field = ?`, quoteIdent(s.table)),
		name, CountField,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("select", err)
	}
	return n, nil
}

// Increment is a single upsert statement, so the add happens inside SQLite.
func (s *SQLiteStore) Increment(ctx context.Context, name, field string) (int64, error) {
	if err := checkField(name, field); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`
			INSERT INTO %s (stats, field, value) VALUES (?, ?, 1)
			ON CONFLICT (stats, field) DO UPDATE SET value = value + 1
			RETURNING value`, quoteIdent(s.table)),
		name, field,
	).Scan(&n)
	if err != nil {
		return 0, unavailable("upsert", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
