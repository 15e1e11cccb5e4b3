package query

import (
	"errors"
)

var (
	// ErrDatabaseNil is returned by NewConn when no database handle is configured.
	ErrDatabaseNil = errors.New("database handle cannot be nil")

	// ErrConnClosed is returned for work submitted to a closed Conn.
	ErrConnClosed = errors.New("connection is closed")
)

// ExecError is a database failure for a submitted statement. The message is
// the driver's, unchanged; SQL carries the statement that failed.
type ExecError struct {
	SQL string
	Err error
}

func (e *ExecError) Error() string { return e.Err.Error() }

func (e *ExecError) Unwrap() error { return e.Err }
