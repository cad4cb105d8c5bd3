// Package database is the school-domain access layer. Every query goes
// through the store's four primitives; no code here ever touches the
// underlying connection.
package database

import (
	"context"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// DB provides typed access to the school records.
type DB struct {
	store *store.Store
}

// New wraps an initialized store handle.
func New(s *store.Store) *DB {
	return &DB{store: s}
}

// Status exposes the store's operational snapshot for health checks.
func (db *DB) Status(ctx context.Context) store.Status {
	return db.store.Status(ctx)
}

// State exposes the store's connection state.
func (db *DB) State() store.State {
	return db.store.State()
}
