package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// newTestDB bootstraps a fresh store with the full embedded schema.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	s := store.New(store.Config{
		Path:            filepath.Join(t.TempDir(), "school.db"),
		CreateIfMissing: true,
		WriteAhead:      true,
	})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if got := s.State(); got != store.StateReady {
		t.Fatalf("store state = %v, want ready", got)
	}
	return New(s)
}

// seedClass creates a class with n students and returns the class ID and
// student IDs in roster order.
func seedClass(t *testing.T, db *DB, n int) (int64, []int64) {
	t.Helper()
	ctx := context.Background()

	class := &Class{Name: "7B", Grade: 7}
	if err := db.CreateClass(ctx, class); err != nil {
		t.Fatalf("failed to create class: %v", err)
	}

	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		s := &Student{
			AdmissionNo: formatAdmissionNo(i),
			Name:        formatStudentName(i),
			ClassID:     &class.ID,
			Active:      true,
		}
		if err := db.CreateStudent(ctx, s); err != nil {
			t.Fatalf("failed to create student %d: %v", i, err)
		}
		ids = append(ids, s.ID)
	}
	return class.ID, ids
}

func formatAdmissionNo(i int) string {
	return "ADM-" + formatStudentName(i)
}

func formatStudentName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "student-" + string(letters[(i/26)%26]) + string(letters[i%26])
}

func TestSettingsDefaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.InitializeDefaults(ctx); err != nil {
		t.Fatalf("failed to initialize defaults: %v", err)
	}

	var name string
	if err := db.GetSettingJSON(ctx, "school.name", &name); err != nil {
		t.Fatalf("failed to get school.name: %v", err)
	}
	if name != "Schoolhouse" {
		t.Errorf("school.name = %q, want Schoolhouse", name)
	}

	// Defaults must not overwrite existing values.
	if err := db.SetSettingJSON(ctx, "school.name", "Hillcrest"); err != nil {
		t.Fatalf("failed to set school.name: %v", err)
	}
	if err := db.InitializeDefaults(ctx); err != nil {
		t.Fatalf("failed to re-initialize defaults: %v", err)
	}
	if err := db.GetSettingJSON(ctx, "school.name", &name); err != nil {
		t.Fatalf("failed to get school.name: %v", err)
	}
	if name != "Hillcrest" {
		t.Errorf("school.name = %q, want Hillcrest", name)
	}
}

func TestUsersAuthenticate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateUser(ctx, "head", "letmein", "admin")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected generated user id")
	}

	user, err := db.Authenticate(ctx, "head", "letmein")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user == nil || user.Role != "admin" {
		t.Fatalf("expected admin user, got %+v", user)
	}

	if user, _ := db.Authenticate(ctx, "head", "wrong"); user != nil {
		t.Error("wrong password must not authenticate")
	}
	if user, _ := db.Authenticate(ctx, "nobody", "letmein"); user != nil {
		t.Error("unknown user must not authenticate")
	}
}
