package store

import (
	"context"
	"fmt"
)

// Optimize refreshes SQLite's query planner statistics.
func (s *Store) Optimize(ctx context.Context) error {
	if _, err := s.Execute(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("optimize store: %w", err)
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim unused space. It cannot run
// inside a transaction span and may hold the connection for a while.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.Execute(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum store: %w", err)
	}
	return nil
}
