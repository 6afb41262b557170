// Package duckdb opens in-memory DuckDB databases for the sampler and the
// DuckDB conversion adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Options configures a DuckDB connection.
type Options struct {
	// MemoryLimit caps DuckDB's buffer manager, e.g. "4GB". Empty keeps the default.
	MemoryLimit string

	// Threads sets the worker thread count. Zero keeps the default.
	Threads int
}

// Open opens an in-memory DuckDB database and applies opts.
//
// The pool is pinned to a single connection: SET statements are
// per-connection and the benchmark is sequential anyway.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)

	if opts.MemoryLimit != "" {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET memory_limit = %s", Quote(opts.MemoryLimit))); err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	if opts.Threads > 0 {
		if err := SetThreads(ctx, db, opts.Threads); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// SetThreads changes the worker thread count of db.
func SetThreads(ctx context.Context, db *sql.DB, n int) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("SET threads = %d", n)); err != nil {
		return fmt.Errorf("set threads: %w", err)
	}
	return nil
}

// Quote renders s as a single-quoted SQL string literal.
//
// COPY targets and table function arguments cannot be bound as prepared
// statement parameters, so paths are inlined with this.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteList renders values as a DuckDB list literal of strings.
func QuoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Quote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// CountRows returns the row count of a table or query expression.
func CountRows(ctx context.Context, db *sql.DB, from string) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+from).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
