package store

import (
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors returned by the store. Callers branch with errors.Is.
var (
	// ErrNotInitialized is returned by any primitive called before
	// Initialize has completed or after Close.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrClosed is returned by Initialize on a store that has been closed.
	// A closed store never reconnects.
	ErrClosed = errors.New("store closed")

	// ErrTransactionAlreadyOpen is returned by Begin while another span is
	// open. This is a programmer error and fails fast instead of queueing.
	ErrTransactionAlreadyOpen = errors.New("transaction already open")

	// ErrSpanClosed is returned by span operations after Commit or Rollback.
	ErrSpanClosed = errors.New("transaction span closed")

	// ErrTimeout is returned when a single statement exceeds the per-call
	// deadline. The connection remains usable for subsequent calls.
	ErrTimeout = errors.New("store timeout")
)

// PathError reports that the directory holding the database file could not
// be created. Fatal: bootstrap aborts.
type PathError struct {
	Dir string
	Err error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("create store directory %s: %v", e.Dir, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// ConnectError reports that the database file could not be opened. Fatal.
type ConnectError struct {
	Path string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("open store %s: %v", e.Path, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// BootstrapError reports a fatal failure of a structural schema statement.
// Soft failures (idempotent creates, seed constraint violations) never
// produce a BootstrapError; they are counted in the bootstrap report.
type BootstrapError struct {
	Index     int // position of the statement in the schema, 0-based
	Statement string
	Err       error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap statement %d failed: %v", e.Index+1, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// isConstraintViolation reports whether err is a typed SQLite constraint
// failure (primary result code SQLITE_CONSTRAINT, any extended code).
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
