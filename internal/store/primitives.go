package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Result reports the effect of an Execute call. LastInsertID is meaningful
// only for inserting statements and is zero otherwise.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Row is one fetched row keyed by column name. BLOB and TEXT columns are
// both surfaced as string.
type Row map[string]any

// Execute runs an INSERT/UPDATE/DELETE/DDL statement with positional
// parameters. Parameters are always bound, never concatenated.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	if err := s.ready(); err != nil {
		return Result{}, err
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.ready(); err != nil {
		return Result{}, err
	}
	return s.execLocked(ctx, query, args...)
}

// FetchOne returns the first matching row, or nil when no row matches.
// Zero rows is not an error.
func (s *Store) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.fetchOneLocked(ctx, query, args...)
}

// FetchAll returns every matching row in query order. The result is empty,
// never nil, when nothing matches.
func (s *Store) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.fetchAllLocked(ctx, query, args...)
}

// execLocked runs one effecting statement. Caller holds connMu.
func (s *Store) execLocked(ctx context.Context, query string, args ...any) (Result, error) {
	cctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.conn.ExecContext(cctx, query, args...)
	if err != nil {
		return Result{}, wrapTimeout(cctx, fmt.Errorf("execute: %w", err))
	}

	var out Result
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

func (s *Store) fetchOneLocked(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.fetchAllLocked(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *Store) fetchAllLocked(ctx context.Context, query string, args ...any) ([]Row, error) {
	cctx, cancel := s.callContext(ctx)
	defer cancel()

	rows, err := s.conn.QueryContext(cctx, query, args...)
	if err != nil {
		return nil, wrapTimeout(cctx, fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, wrapTimeout(cctx, err)
	}
	return out, nil
}

// scanRows materializes every row before the connection is released, so a
// caller can never observe another caller's partially-read result set.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = vals[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
