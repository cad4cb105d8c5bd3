package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const minimalSchema = `
	CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);
`

func TestPrimitivesBeforeInitialize(t *testing.T) {
	s := New(Config{Path: filepath.Join(t.TempDir(), "school.db"), CreateIfMissing: true})
	ctx := context.Background()

	if _, err := s.Execute(ctx, "CREATE TABLE t (id INTEGER)"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Execute before initialize: %v, want ErrNotInitialized", err)
	}
	if _, err := s.FetchOne(ctx, "SELECT 1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("FetchOne before initialize: %v, want ErrNotInitialized", err)
	}
	if _, err := s.FetchAll(ctx, "SELECT 1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("FetchAll before initialize: %v, want ErrNotInitialized", err)
	}
	if _, err := s.Begin(ctx, "test"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Begin before initialize: %v, want ErrNotInitialized", err)
	}
	if s.State() != StateUninitialized {
		t.Errorf("state = %v, want uninitialized", s.State())
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s := newTestStore(t, minimalSchema)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if s.State() != StateReady {
		t.Fatalf("state = %v, want ready", s.State())
	}
}

func TestInitializeConcurrent_OneHandle(t *testing.T) {
	dir := t.TempDir()
	s := New(Config{
		Path:            filepath.Join(dir, "school.db"),
		CreateIfMissing: true,
		Schema:          minimalSchema,
	})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Initialize(context.Background())
		}(i)
	}
	wg.Wait()
	t.Cleanup(func() { s.Close() })

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent initialize %d: %v", i, err)
		}
	}
	if s.State() != StateReady {
		t.Fatalf("state = %v, want ready", s.State())
	}
}

func TestCloseIsFinal(t *testing.T) {
	s := newTestStore(t, minimalSchema)
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("state = %v, want closed", s.State())
	}

	if _, err := s.Execute(ctx, "INSERT INTO notes (body) VALUES ('x')"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Execute after close: %v, want ErrNotInitialized", err)
	}
	if err := s.Initialize(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Initialize after close: %v, want ErrClosed", err)
	}
}

func TestMissingFileWithoutCreate(t *testing.T) {
	s := New(Config{Path: filepath.Join(t.TempDir(), "absent.db"), CreateIfMissing: false})
	err := s.Initialize(context.Background())
	var ce *ConnectError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConnectError, got %v", err)
	}
	if s.State() != StateUninitialized {
		t.Fatalf("state = %v, want uninitialized", s.State())
	}
}

func TestStatus(t *testing.T) {
	s := newTestStore(t, minimalSchema)
	st := s.Status(context.Background())

	if st.State != "ready" {
		t.Errorf("status state = %q, want ready", st.State)
	}
	if st.Objects != 1 {
		t.Errorf("status objects = %d, want 1", st.Objects)
	}
	if st.SizeBytes <= 0 {
		t.Errorf("status size = %d, want > 0", st.SizeBytes)
	}
	if st.ModTime.IsZero() {
		t.Errorf("status mod time is zero")
	}
	if time.Since(st.ModTime) > time.Minute {
		t.Errorf("status mod time too old: %v", st.ModTime)
	}
}

func TestMaintenance(t *testing.T) {
	s := newTestStore(t, minimalSchema)
	ctx := context.Background()

	if err := s.Optimize(ctx); err != nil {
		t.Errorf("optimize: %v", err)
	}
	if err := s.Vacuum(ctx); err != nil {
		t.Errorf("vacuum: %v", err)
	}
}
