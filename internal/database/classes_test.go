package database

import (
	"context"
	"testing"
)

func TestClassRoster(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	teacher := &Teacher{Name: "R. Iyer", Subject: "Mathematics"}
	if err := db.CreateTeacher(ctx, teacher); err != nil {
		t.Fatalf("failed to create teacher: %v", err)
	}
	if teacher.ID == 0 {
		t.Fatal("expected generated teacher id")
	}

	class := &Class{Name: "8A", Grade: 8, TeacherID: &teacher.ID}
	if err := db.CreateClass(ctx, class); err != nil {
		t.Fatalf("failed to create class: %v", err)
	}

	got, err := db.GetClass(ctx, class.ID)
	if err != nil {
		t.Fatalf("failed to get class: %v", err)
	}
	if got == nil || got.TeacherID == nil || *got.TeacherID != teacher.ID {
		t.Fatalf("class should carry its homeroom teacher: %+v", got)
	}

	names := []string{"carol", "alice", "bob"}
	var lastID int64
	for i, name := range names {
		s := &Student{
			AdmissionNo: formatAdmissionNo(i + 1),
			Name:        name,
			ClassID:     &class.ID,
			Active:      true,
		}
		if err := db.CreateStudent(ctx, s); err != nil {
			t.Fatalf("failed to create student %s: %v", name, err)
		}
		lastID = s.ID
	}

	roster, err := db.ClassRoster(ctx, class.ID)
	if err != nil {
		t.Fatalf("failed to fetch roster: %v", err)
	}
	if len(roster) != 3 {
		t.Fatalf("roster size = %d, want 3", len(roster))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if roster[i].Name != want {
			t.Errorf("roster[%d] = %q, want %q", i, roster[i].Name, want)
		}
	}

	// Leavers drop off the roster but keep their record.
	if err := db.DeactivateStudent(ctx, lastID); err != nil {
		t.Fatalf("failed to deactivate student: %v", err)
	}
	roster, err = db.ClassRoster(ctx, class.ID)
	if err != nil {
		t.Fatalf("failed to re-fetch roster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster size after deactivation = %d, want 2", len(roster))
	}
	if s, err := db.GetStudent(ctx, lastID); err != nil || s == nil || s.Active {
		t.Fatalf("deactivated student should persist inactive: %+v, %v", s, err)
	}

	// A class with no students has an empty roster.
	other := &Class{Name: "8B", Grade: 8}
	if err := db.CreateClass(ctx, other); err != nil {
		t.Fatalf("failed to create class: %v", err)
	}
	roster, err = db.ClassRoster(ctx, other.ID)
	if err != nil {
		t.Fatalf("failed to fetch empty roster: %v", err)
	}
	if len(roster) != 0 {
		t.Fatalf("empty-class roster size = %d, want 0", len(roster))
	}
}
