package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlquery "github.com/tarmac-project/sqlquery"

	_ "modernc.org/sqlite" // registers the "sqlite" driver with database/sql
)

// DriverName is the database/sql driver this package opens.
const DriverName = "sqlite"

// timeLayout renders driver-decoded timestamps back to SQLite's text form.
const timeLayout = "2006-01-02 15:04:05.999999999"

var (
	// ErrInvalidPath indicates an empty database path.
	ErrInvalidPath = errors.New("database path is invalid")
)

// Config controls how a database file is opened.
type Config struct {
	// Path is the database file, or ":memory:" for a private in-memory database.
	Path string

	// Pragmas are executed once, in order, right after opening.
	Pragmas []string
}

// DB is a sqlquery.Database backed by an embedded SQLite database.
type DB struct {
	db   *sql.DB
	path string
}

var _ sqlquery.Database = (*DB)(nil)

// Open opens (or creates) the database at cfg.Path.
//
// The pool is capped at one connection so every statement runs on the same
// SQLite handle.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, ErrInvalidPath
	}

	sqldb, err := sql.Open(DriverName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("sqlite.Open ping: %w", err)
	}

	for _, p := range cfg.Pragmas {
		if _, err := sqldb.Exec(p); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("sqlite.Open %q: %w", p, err)
		}
	}

	return &DB{db: sqldb, path: cfg.Path}, nil
}

// Path returns the path the database was opened from.
func (d *DB) Path() string { return d.path }

// Run executes a statement that does not return rows.
func (d *DB) Run(query string) (sqlquery.Mutation, error) {
	res, err := d.db.Exec(query)
	if err != nil {
		return sqlquery.Mutation{}, err
	}

	var m sqlquery.Mutation
	// SQLite always reports both; other drivers behind database/sql may not.
	if id, err := res.LastInsertId(); err == nil {
		m.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		m.RowsAffected = n
	}
	return m, nil
}

// All executes a statement and returns every row it produced.
func (d *DB) All(query string) ([]sqlquery.Row, error) {
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []sqlquery.Row{}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(sqlquery.Row, len(columns))
		for i, name := range columns {
			row[name] = native(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying database. Calls made afterwards fail with the
// database/sql "database is closed" error.
func (d *DB) Close() error {
	return d.db.Close()
}

// native keeps values in the shape the database stored them, so type coercion
// is left to the caller.
func native(v any) any {
	switch x := v.(type) {
	case []byte:
		return append([]byte(nil), x...)
	case time.Time:
		return x.Format(timeLayout)
	default:
		return v
	}
}
