package store

import (
	"context"
	"os"
	"time"
)

// Status is an operational snapshot of the store, consumed by health
// checks. Degraded is distinct from ready so operators can tell a fully
// bootstrapped store from one running with missing optional objects.
type Status struct {
	State             string    `json:"state"`
	Path              string    `json:"path"`
	SizeBytes         int64     `json:"size_bytes"`
	ModTime           time.Time `json:"mod_time"`
	Objects           int       `json:"objects"`
	SkippedStatements int       `json:"skipped_statements"`
}

// Status reports the connection state, backing-file size and modification
// time, and the count of structural objects present.
func (s *Store) Status(ctx context.Context) Status {
	st := Status{
		State: s.State().String(),
		Path:  s.cfg.Path,
	}
	st.SkippedStatements = s.Report().Skipped

	if info, err := os.Stat(s.cfg.Path); err == nil {
		st.SizeBytes = info.Size()
		st.ModTime = info.ModTime()
	}

	row, err := s.FetchOne(ctx,
		"SELECT COUNT(*) AS n FROM sqlite_master WHERE type IN ('table','index','trigger','view') AND name NOT LIKE 'sqlite_%'")
	if err == nil && row != nil {
		if n, ok := row["n"].(int64); ok {
			st.Objects = int(n)
		}
	}
	return st
}
