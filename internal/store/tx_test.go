package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

const attendanceSchema = `
	CREATE TABLE attendance (
		id INTEGER PRIMARY KEY,
		student_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'present',
		UNIQUE(student_id, date)
	);
`

func TestSpanCommit(t *testing.T) {
	s := newTestStore(t, attendanceSchema)
	ctx := context.Background()

	sp, err := s.Begin(ctx, "attendance")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if _, err := sp.Execute(ctx, "INSERT INTO attendance (student_id, date) VALUES (?, ?)", i, "2026-08-25"); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := sp.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	row, err := s.FetchOne(ctx, "SELECT COUNT(*) AS n FROM attendance")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if row["n"].(int64) != 3 {
		t.Fatalf("row count = %v, want 3", row["n"])
	}
}

func TestSpanRollbackIsAtomic(t *testing.T) {
	s := newTestStore(t, attendanceSchema)
	ctx := context.Background()

	// Student 17 already has a record for the date.
	if _, err := s.Execute(ctx, "INSERT INTO attendance (student_id, date) VALUES (17, '2026-08-25')"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Bulk-mark 30 students; the duplicate at 17 fails the batch.
	err := s.WithSpan(ctx, "bulk-mark", func(sp *Span) error {
		for i := 1; i <= 30; i++ {
			if _, err := sp.Execute(ctx, "INSERT INTO attendance (student_id, date) VALUES (?, ?)", i, "2026-08-25"); err != nil {
				return fmt.Errorf("student %d: %w", i, err)
			}
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected bulk mark to fail on duplicate")
	}
	if !strings.Contains(err.Error(), "student 17") {
		t.Fatalf("unexpected failure: %v", err)
	}

	// Students 1-16 "succeeded" before the failure but must not persist.
	row, fetchErr := s.FetchOne(ctx, "SELECT COUNT(*) AS n FROM attendance WHERE date = '2026-08-25'")
	if fetchErr != nil {
		t.Fatalf("fetch: %v", fetchErr)
	}
	if row["n"].(int64) != 1 {
		t.Fatalf("rows after rollback = %v, want only the seeded record", row["n"])
	}
}

func TestNestedBeginFailsFast(t *testing.T) {
	s := newTestStore(t, attendanceSchema)
	ctx := context.Background()

	sp, err := s.Begin(ctx, "first")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer sp.Rollback(ctx)

	_, err = s.Begin(ctx, "second")
	if !errors.Is(err, ErrTransactionAlreadyOpen) {
		t.Fatalf("nested begin: %v, want ErrTransactionAlreadyOpen", err)
	}
	if !strings.Contains(err.Error(), "first") {
		t.Errorf("error should name the holding owner: %v", err)
	}
}

func TestSpanClosedAfterCommit(t *testing.T) {
	s := newTestStore(t, attendanceSchema)
	ctx := context.Background()

	sp, err := s.Begin(ctx, "once")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := sp.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := sp.Execute(ctx, "INSERT INTO attendance (student_id, date) VALUES (1, 'x')"); !errors.Is(err, ErrSpanClosed) {
		t.Errorf("execute on closed span: %v, want ErrSpanClosed", err)
	}
	if err := sp.Commit(ctx); !errors.Is(err, ErrSpanClosed) {
		t.Errorf("second commit: %v, want ErrSpanClosed", err)
	}
	if err := sp.Rollback(ctx); !errors.Is(err, ErrSpanClosed) {
		t.Errorf("rollback after commit: %v, want ErrSpanClosed", err)
	}

	// A new span can open once the previous one closed.
	sp2, err := s.Begin(ctx, "again")
	if err != nil {
		t.Fatalf("begin after close: %v", err)
	}
	if err := sp2.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}

func TestBeginConcurrentWithClose(t *testing.T) {
	// Begin racing Close must end in either an open span or
	// ErrNotInitialized, never a panic on the torn-down connection.
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		s := newTestStore(t, minimalSchema)

		done := make(chan struct{})
		go func() {
			s.Close()
			close(done)
		}()

		sp, err := s.Begin(ctx, "shutdown-race")
		switch {
		case err == nil:
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				t.Fatalf("rollback of race winner: %v", rbErr)
			}
		case errors.Is(err, ErrNotInitialized):
		default:
			t.Fatalf("begin during close: %v, want nil or ErrNotInitialized", err)
		}
		<-done

		if _, err := s.Begin(ctx, "after-close"); !errors.Is(err, ErrNotInitialized) {
			t.Fatalf("begin after close: %v, want ErrNotInitialized", err)
		}
	}
}

func TestSpanConcurrentFinishers(t *testing.T) {
	// Commit and Rollback racing on one span: exactly one finisher wins,
	// the loser gets an error, and the store stays usable.
	s := newTestStore(t, attendanceSchema)
	ctx := context.Background()

	sp, err := s.Begin(ctx, "racy")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := sp.Execute(ctx, "INSERT INTO attendance (student_id, date) VALUES (1, '2026-08-25')"); err != nil {
		t.Fatalf("span insert: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sp.Commit(ctx)
	}()
	go func() {
		defer wg.Done()
		sp.Rollback(ctx)
	}()
	wg.Wait()

	if _, err := s.Execute(ctx, "INSERT INTO attendance (student_id, date) VALUES (2, '2026-08-26')"); err != nil {
		t.Fatalf("execute after racing finishers: %v", err)
	}
	sp2, err := s.Begin(ctx, "next")
	if err != nil {
		t.Fatalf("begin after racing finishers: %v", err)
	}
	if err := sp2.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}

func TestPrimitivesQueueBehindSpan(t *testing.T) {
	s := newTestStore(t, attendanceSchema)
	ctx := context.Background()

	sp, err := s.Begin(ctx, "holder")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := sp.Execute(ctx, "INSERT INTO attendance (student_id, date) VALUES (1, '2026-08-25')"); err != nil {
		t.Fatalf("span insert: %v", err)
	}

	// A plain fetch from another caller must queue until the span closes
	// and must not observe the span's uncommitted row mid-flight.
	var wg sync.WaitGroup
	var queued struct {
		n   int64
		err error
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		row, err := s.FetchOne(ctx, "SELECT COUNT(*) AS n FROM attendance")
		if err != nil {
			queued.err = err
			return
		}
		queued.n = row["n"].(int64)
	}()

	if err := sp.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	wg.Wait()

	if queued.err != nil {
		t.Fatalf("queued fetch: %v", queued.err)
	}
	if queued.n != 0 {
		t.Fatalf("queued fetch saw %d rows, want 0 after rollback", queued.n)
	}
}
