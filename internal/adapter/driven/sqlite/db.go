// Package sqlite implements the driven persistence ports on top of SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

const (
	writerConns = 1
	readerConns = 4

	commonPragmas = "_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-16000)"
)

// DB holds separate writer and reader pools over the same database file.
// The writer pool has a single connection so SQLite never reports
// "database is locked" between our own writers.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
}

// NewDB opens the database file at dbPath in WAL mode.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	return open(ctx, "file:"+dbPath+"?_pragma=journal_mode(WAL)&"+commonPragmas)
}

// memoryDSN names a shared-cache in-memory database; every pool opened with
// the same name sees the same data.
func memoryDSN(name string) string {
	return "file:" + url.PathEscape(name) + "?mode=memory&cache=shared&" + commonPragmas
}

func open(ctx context.Context, dsn string) (*DB, error) {
	writer, err := openPool(ctx, dsn, writerConns)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader, err := openPool(ctx, dsn, readerConns)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader}, nil
}

func openPool(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Close closes both pools and returns the first error.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
