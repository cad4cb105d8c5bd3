package database

import (
	"context"
	"fmt"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Exam is one scheduled assessment for a class and subject.
type Exam struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ClassID  int64  `json:"class_id"`
	Subject  string `json:"subject"`
	MaxMarks int64  `json:"max_marks"`
	HeldOn   string `json:"held_on,omitempty"` // YYYY-MM-DD
}

// ExamMark is one student's result for an exam.
type ExamMark struct {
	StudentID int64   `json:"student_id"`
	Marks     float64 `json:"marks"`
}

// CreateExam inserts an exam and sets its generated ID.
func (db *DB) CreateExam(ctx context.Context, e *Exam) error {
	if e.MaxMarks == 0 {
		e.MaxMarks = 100
	}
	res, err := db.store.Execute(ctx,
		"INSERT INTO exams (name, class_id, subject, max_marks, held_on) VALUES (?, ?, ?, ?, ?)",
		e.Name, e.ClassID, e.Subject, e.MaxMarks, e.HeldOn)
	if err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	e.ID = res.LastInsertID
	return nil
}

// EnterMarks records a batch of exam results in one transaction span. A
// failure on any row (duplicate entry, unknown student) rolls back the
// whole batch.
func (db *DB) EnterMarks(ctx context.Context, examID int64, marks []ExamMark) error {
	if len(marks) == 0 {
		return nil
	}
	return db.store.WithSpan(ctx, "exams.enter-marks", func(sp *store.Span) error {
		for _, m := range marks {
			_, err := sp.Execute(ctx,
				"INSERT INTO exam_marks (exam_id, student_id, marks) VALUES (?, ?, ?)",
				examID, m.StudentID, m.Marks)
			if err != nil {
				return fmt.Errorf("failed to enter marks for student %d: %w", m.StudentID, err)
			}
		}
		return nil
	})
}

// ExamResults returns all recorded marks for an exam ordered by student.
func (db *DB) ExamResults(ctx context.Context, examID int64) ([]ExamMark, error) {
	rows, err := db.store.FetchAll(ctx,
		"SELECT student_id, marks FROM exam_marks WHERE exam_id = ? ORDER BY student_id", examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam results: %w", err)
	}

	results := make([]ExamMark, 0, len(rows))
	for _, row := range rows {
		results = append(results, ExamMark{
			StudentID: rowInt64(row, "student_id"),
			Marks:     rowFloat64(row, "marks"),
		})
	}
	return results, nil
}
