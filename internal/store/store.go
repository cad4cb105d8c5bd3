package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// State is the lifecycle state of the store's single connection.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateReady
	// StateDegraded means bootstrap completed but some idempotent or seed
	// statements were skipped; the store is usable but may be missing
	// optional objects or seed rows.
	StateDegraded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultTimeout bounds every single statement. An unresponsive statement
// would otherwise block the one connection for every caller.
const DefaultTimeout = 30 * time.Second

// Config describes how the store opens its database file.
type Config struct {
	// Path is the SQLite database file. The containing directory is
	// created during Initialize if absent.
	Path string

	// CreateIfMissing allows Initialize to create a new database file.
	// When false, a missing file is a connect error.
	CreateIfMissing bool

	// WriteAhead enables WAL journaling.
	WriteAhead bool

	// Schema is the schema-definition text executed once at bootstrap.
	// Empty means the embedded default schema.
	Schema string

	// Timeout is the per-statement deadline. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Store owns the one physical connection to the embedded database. All
// statement execution is serialized through it; callers never see the
// connection handle itself, only the Execute/FetchOne/FetchAll/Begin
// primitives.
//
// Construct with New at the composition root and pass the handle to the
// services that need it.
type Store struct {
	cfg     Config
	timeout time.Duration

	// mu guards state, span and report.
	mu     sync.Mutex
	state  State
	span   *Span
	report BootstrapReport

	// connMu serializes statement execution on conn. Begin holds it for
	// the whole span so other callers queue until commit or rollback.
	connMu sync.Mutex
	db     *sql.DB
	conn   *sql.Conn
}

// New creates an unconnected store. Call Initialize before issuing
// primitives.
func New(cfg Config) *Store {
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{cfg: cfg, timeout: timeout}
}

// Initialize opens the connection and runs schema bootstrap exactly once.
// Calling it again on a ready store is a no-op returning nil. A concurrent
// caller blocks until the first Initialize finishes, then observes its
// outcome; two physical handles are never opened.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReady, StateDegraded:
		return nil
	case StateClosed:
		return ErrClosed
	}

	s.state = StateConnecting
	if err := s.open(ctx); err != nil {
		s.teardownLocked()
		s.state = StateUninitialized
		return err
	}

	report, err := s.bootstrap(ctx, s.cfg.Schema)
	if err != nil {
		s.teardownLocked()
		s.state = StateUninitialized
		return err
	}
	s.report = report

	if report.Skipped > 0 {
		s.state = StateDegraded
		log.Warn().
			Int("total", report.Total).
			Int("executed", report.Executed).
			Int("skipped", report.Skipped).
			Msg("Store bootstrapped in degraded state")
	} else {
		s.state = StateReady
		log.Info().
			Int("statements", report.Executed).
			Str("path", s.cfg.Path).
			Msg("Store ready")
	}
	return nil
}

func (s *Store) open(ctx context.Context) error {
	dir := filepath.Dir(s.cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PathError{Dir: dir, Err: err}
	}

	if !s.cfg.CreateIfMissing {
		if _, err := os.Stat(s.cfg.Path); err != nil {
			return &ConnectError{Path: s.cfg.Path, Err: err}
		}
	}

	dsn := s.cfg.Path + "?_busy_timeout=5000&_foreign_keys=on"
	if s.cfg.WriteAhead {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return &ConnectError{Path: s.cfg.Path, Err: err}
	}
	// One writer, one physical connection. Everything else queues.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return &ConnectError{Path: s.cfg.Path, Err: err}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return &ConnectError{Path: s.cfg.Path, Err: err}
	}

	s.db = db
	s.conn = conn
	s.applyTuning(ctx)

	log.Debug().Str("path", s.cfg.Path).Bool("wal", s.cfg.WriteAhead).Msg("Store connection established")
	return nil
}

// applyTuning issues best-effort store-level directives. Failures are
// logged, never fatal.
func (s *Store) applyTuning(ctx context.Context) {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -8000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.conn.ExecContext(ctx, p); err != nil {
			log.Warn().Err(err).Str("pragma", p).Msg("Store tuning directive failed")
		}
	}
}

func (s *Store) teardownLocked() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
}

// Close releases the connection. Safe to call on an already-closed store.
// An open span is waited for before the connection is released; after Close
// every primitive fails with ErrNotInitialized and the store never
// reconnects.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	s.mu.Unlock()

	// Queue behind any in-flight statement or open span.
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.mu.Lock()
	s.teardownLocked()
	s.mu.Unlock()

	log.Debug().Str("path", s.cfg.Path).Msg("Store closed")
	return nil
}

// State returns the current connection state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.cfg.Path
}

// Report returns the bootstrap statement counts from Initialize.
func (s *Store) Report() BootstrapReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// ready reports whether primitives may run.
func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady && s.state != StateDegraded {
		return ErrNotInitialized
	}
	return nil
}

// callContext derives the per-statement deadline.
func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// wrapTimeout maps a deadline expiry onto ErrTimeout so callers can branch
// on the taxonomy instead of context internals.
func wrapTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
