// Package database owns the demo relational database: opening the
// SQLite file, seeding the demo tables on first run, and executing
// generated SQL on behalf of the API layer.
package database

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/askql/askql/internal/errors"
)

// DB wraps the sql handle with the query timeout applied to every call.
type DB struct {
	conn         *sql.DB
	path         string
	queryTimeout time.Duration
}

// Row is a column-named result row from an executed query.
type Row map[string]interface{}

// QueryResult carries the rows returned by an executed statement plus
// the observed execution time.
type QueryResult struct {
	Columns  []string
	Rows     []Row
	Duration time.Duration
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string, queryTimeout time.Duration) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open database")
	}

	// SQLite is effectively single-writer.
	conn.SetMaxOpenConns(1)

	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}

	return &DB{conn: conn, path: path, queryTimeout: queryTimeout}, nil
}

// Conn exposes the underlying handle for the schema extractor.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// CheckConnection reports whether the database answers a trivial query.
func (db *DB) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	var one int

	return db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one) == nil
}

// Execute runs an arbitrary SQL statement and returns column-named rows.
// Generated SQL is trusted here; there is no statement filtering.
func (db *DB) Execute(ctx context.Context, query string) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "query execution failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "failed to read result columns")
	}

	result := &QueryResult{Columns: columns}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeExecution, "failed to scan result row")
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			// SQLite hands text back as []byte; strings are friendlier
			// for JSON responses.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExecution, "result iteration failed")
	}

	result.Duration = time.Since(start)

	return result, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.conn.Close()
}
