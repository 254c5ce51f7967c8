package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/opentally/tasklist/internal/tasklist/store"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same repository code runs inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the sqlite-backed implementation of store.Store.
type Store struct {
	db *sql.DB
	q  querier
}

// NewStore opens (or creates) the database at dsn. Pragmas belong in the
// DSN (`_pragma=foreign_keys(1)` etc.) so they apply to every pooled
// connection, not just the first one.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, q: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Users() store.Users                 { return &usersRepo{q: s.q} }
func (s *Store) SessionTokens() store.SessionTokens { return &sessionTokensRepo{q: s.q} }
func (s *Store) Tasks() store.Tasks                 { return &tasksRepo{q: s.q} }

// WithTx runs fn within a transaction, rolling back on error or panic and
// committing otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Safe to call after commit; it just returns sql.ErrTxDone.
	defer func() { _ = sqlTx.Rollback() }()

	wrapped := &txStore{Store: Store{q: sqlTx}, tx: sqlTx}
	if err := fn(wrapped); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore scopes the repositories to one transaction.
type txStore struct {
	Store

	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) ApplyMigrations() error {
	return errors.New("sqlite: migrations cannot run inside a transaction")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConflict translates sqlite unique-constraint violations into the
// driver-agnostic sentinel.
func mapConflict(err error) error {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	return err
}
