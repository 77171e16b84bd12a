package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hierdb/mptree"
)

// Driver names accepted by the store.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Store wraps one open database and knows which placeholder style its
// driver speaks.
type Store struct {
	db     *sql.DB
	driver string
}

// Open creates or opens a SQLite database at the given path and applies
// the required pragmas. Idempotent.
//
// SQLite allows one writer at a time, so the pool is pinned to a single
// connection; that also keeps :memory: databases on one connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	return &Store{db: db, driver: DriverSQLite}, nil
}

// OpenPostgres opens a Postgres database through the pgx stdlib driver.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Store{db: db, driver: DriverPostgres}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries. Statements passed
// here are not rebound; prefer Executor or Begin.
func (s *Store) DB() *sql.DB { return s.db }

// Postgres reports whether the store needs placeholder rebinding.
func (s *Store) Postgres() bool { return s.driver == DriverPostgres }

// Executor returns a non-transactional executor over the whole database,
// rebinding placeholders as the driver requires. Mutations should use
// Begin instead.
func (s *Store) Executor() mptree.Executor {
	return &execConn{q: s.db, rebind: s.Postgres()}
}

// Begin starts a transaction whose executor rebinds placeholders as the
// driver requires.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{execConn: execConn{q: tx, rebind: s.Postgres()}, tx: tx}, nil
}

// WithTx runs fn inside one transaction, committing on nil and rolling
// back on error. This is the unit every engine mutation must run in.
func (s *Store) WithTx(ctx context.Context, fn func(ex mptree.Executor) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// queryer is the subset of sql.DB/sql.Tx the executor wrappers need.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execConn adapts a sql.DB or sql.Tx into an mptree.Executor, rewriting
// `?` placeholders to $1..$N for Postgres.
type execConn struct {
	q      queryer
	rebind bool
}

func (c *execConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.maybeRebind(query), args...)
}

func (c *execConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.maybeRebind(query), args...)
}

func (c *execConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.maybeRebind(query), args...)
}

func (c *execConn) maybeRebind(query string) string {
	if !c.rebind {
		return query
	}
	return Rebind(query)
}

// Tx is a transaction-scoped executor.
type Tx struct {
	execConn
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Rebind rewrites `?` placeholders to $1..$N. Single-quoted string
// literals are skipped; the engine never emits a literal question mark
// outside of them anyway.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inString = !inString
			b.WriteByte(ch)
		case ch == '?' && !inString:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// applyPragmas sets the required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
