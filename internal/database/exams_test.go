package database

import (
	"context"
	"testing"
)

func TestEnterMarksBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	classID, ids := seedClass(t, db, 3)

	exam := &Exam{Name: "Midterm", ClassID: classID, Subject: "Maths", HeldOn: "2026-08-20"}
	if err := db.CreateExam(ctx, exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}
	if exam.MaxMarks != 100 {
		t.Errorf("default max marks = %d, want 100", exam.MaxMarks)
	}

	marks := []ExamMark{
		{StudentID: ids[0], Marks: 72},
		{StudentID: ids[1], Marks: 88.5},
		{StudentID: ids[2], Marks: 64},
	}
	if err := db.EnterMarks(ctx, exam.ID, marks); err != nil {
		t.Fatalf("enter marks: %v", err)
	}

	results, err := db.ExamResults(ctx, exam.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
}

func TestEnterMarksDuplicateRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	classID, ids := seedClass(t, db, 3)

	exam := &Exam{Name: "Quiz", ClassID: classID, Subject: "History"}
	if err := db.CreateExam(ctx, exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}

	// Duplicate student in one batch trips the UNIQUE(exam_id, student_id)
	// constraint; nothing from the batch may persist.
	marks := []ExamMark{
		{StudentID: ids[0], Marks: 50},
		{StudentID: ids[1], Marks: 60},
		{StudentID: ids[0], Marks: 55},
	}
	if err := db.EnterMarks(ctx, exam.ID, marks); err == nil {
		t.Fatal("expected duplicate mark entry to fail")
	}

	results, err := db.ExamResults(ctx, exam.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results after rollback = %d, want 0", len(results))
	}
}
