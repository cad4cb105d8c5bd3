package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Span is one open transaction. It owns the connection from Begin until
// Commit or Rollback; primitives issued through the span run inside the
// transaction, while primitives issued on the store by other callers queue
// until the span closes.
type Span struct {
	s      *Store
	owner  string
	closed bool
}

// Begin opens a transaction span. owner identifies the caller in
// diagnostics only. While another span is open, Begin fails fast with
// ErrTransactionAlreadyOpen instead of queueing: an unclosed span is a
// programmer error that must surface, not nest.
func (s *Store) Begin(ctx context.Context, owner string) (*Span, error) {
	s.mu.Lock()
	if s.state != StateReady && s.state != StateDegraded {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if s.span != nil {
		held := s.span.owner
		s.mu.Unlock()
		return nil, fmt.Errorf("%w (held by %s)", ErrTransactionAlreadyOpen, held)
	}
	sp := &Span{s: s, owner: owner}
	s.span = sp
	s.mu.Unlock()

	// Queue behind in-flight plain primitives, then hold the connection
	// for the whole span. Close may have won the connection in the
	// meantime and torn it down, so re-check state before touching it.
	s.connMu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Lock()
		s.span = nil
		s.mu.Unlock()
		s.connMu.Unlock()
		return nil, err
	}

	if _, err := s.execLocked(ctx, "BEGIN IMMEDIATE"); err != nil {
		s.mu.Lock()
		s.span = nil
		s.mu.Unlock()
		s.connMu.Unlock()
		return nil, fmt.Errorf("begin: %w", err)
	}

	log.Trace().Str("owner", owner).Msg("Transaction span opened")
	return sp, nil
}

// Owner returns the identity recorded at Begin.
func (sp *Span) Owner() string { return sp.owner }

// Execute runs an effecting statement inside the span.
func (sp *Span) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	if err := sp.open(); err != nil {
		return Result{}, err
	}
	return sp.s.execLocked(ctx, query, args...)
}

// FetchOne fetches the first matching row inside the span, nil when absent.
func (sp *Span) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	if err := sp.open(); err != nil {
		return nil, err
	}
	return sp.s.fetchOneLocked(ctx, query, args...)
}

// FetchAll fetches every matching row inside the span.
func (sp *Span) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := sp.open(); err != nil {
		return nil, err
	}
	return sp.s.fetchAllLocked(ctx, query, args...)
}

// Commit makes the span's statements durable and releases the connection.
// On commit failure the span is rolled back and closed; the commit error is
// returned.
func (sp *Span) Commit(ctx context.Context) error {
	if err := sp.open(); err != nil {
		return err
	}

	_, err := sp.s.execLocked(ctx, "COMMIT")
	if err != nil {
		if _, rbErr := sp.s.execLocked(ctx, "ROLLBACK"); rbErr != nil {
			log.Error().Err(rbErr).Str("owner", sp.owner).Msg("Rollback after failed commit failed")
		}
		sp.close()
		return fmt.Errorf("commit: %w", err)
	}

	sp.close()
	log.Trace().Str("owner", sp.owner).Msg("Transaction span committed")
	return nil
}

// Rollback discards the span's statements and releases the connection.
func (sp *Span) Rollback(ctx context.Context) error {
	if err := sp.open(); err != nil {
		return err
	}

	_, err := sp.s.execLocked(ctx, "ROLLBACK")
	sp.close()
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	log.Trace().Str("owner", sp.owner).Msg("Transaction span rolled back")
	return nil
}

func (sp *Span) open() error {
	sp.s.mu.Lock()
	defer sp.s.mu.Unlock()
	if sp.closed {
		return ErrSpanClosed
	}
	return nil
}

func (sp *Span) close() {
	sp.s.mu.Lock()
	if sp.closed {
		sp.s.mu.Unlock()
		return
	}
	sp.closed = true
	sp.s.span = nil
	sp.s.mu.Unlock()
	sp.s.connMu.Unlock()
}

// WithSpan runs fn inside one span: commit on success, rollback on any
// error. The returned error is fn's error, or the commit error.
func (s *Store) WithSpan(ctx context.Context, owner string, fn func(*Span) error) error {
	sp, err := s.Begin(ctx, owner)
	if err != nil {
		return err
	}
	if err := fn(sp); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Str("owner", owner).Msg("Failed to roll back transaction span")
		}
		return err
	}
	return sp.Commit(ctx)
}
