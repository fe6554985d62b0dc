// CLAUDE:SUMMARY Opens the archive SQLite database with per-connection pragmas, inline schema, and a BUSY-retrying transaction helper.
// Package dbopen opens SQLite databases through the pure-Go modernc.org/sqlite
// driver. Pragmas travel in the DSN as _pragma parameters so that every
// pooled connection gets them, not only the first:
//
//	foreign_keys(1) journal_mode(WAL) busy_timeout(10000) synchronous(NORMAL)
//
// In tests:
//
//	db := dbopen.OpenMemory(t, dbopen.WithSchema(schema))
package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const memory = ":memory:"

type options struct {
	busyTimeout int
	mkdirAll    bool
	schemas     []string
}

// Option customises Open.
type Option func(*options)

// WithBusyTimeout sets busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeout = ms } }

// WithMkdirAll creates the parent directories of the database file.
func WithMkdirAll() Option { return func(o *options) { o.mkdirAll = true } }

// WithSchema queues SQL to run once the database is open. Statements must
// be idempotent (CREATE ... IF NOT EXISTS).
func WithSchema(s string) Option { return func(o *options) { o.schemas = append(o.schemas, s) } }

// Open opens the database at path, or an in-memory one for ":memory:".
func Open(path string, opts ...Option) (*sql.DB, error) {
	o := options{busyTimeout: 10_000}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mkdirAll && path != memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, o))
	if err != nil {
		return nil, fmt.Errorf("dbopen: open %s: %w", path, err)
	}
	if path == memory {
		// Every connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: ping %s: %w", path, err)
	}
	for _, s := range o.schemas {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: schema: %w", err)
		}
	}
	return db, nil
}

func dsn(path string, o options) string {
	q := url.Values{}
	for _, p := range []string{
		"foreign_keys(1)",
		"journal_mode(WAL)",
		"busy_timeout(" + strconv.Itoa(o.busyTimeout) + ")",
		"synchronous(NORMAL)",
	} {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// OpenMemory opens an in-memory database closed by t.Cleanup.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(memory, opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// IsBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED, including
// their extended codes.
func IsBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// txAttempts bounds RunTx retries on BUSY.
const txAttempts = 3

// RunTx runs fn in a transaction, committing when fn returns nil. A BUSY
// failure retries the whole transaction after 100ms, then 200ms.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = runTx(ctx, db, fn); err == nil || !IsBusy(err) || attempt == txAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("dbopen: %w (last: %v)", ctx.Err(), err)
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
}

func runTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbopen: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbopen: commit: %w", err)
	}
	return nil
}
