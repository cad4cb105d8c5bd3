package database

import (
	"context"
	"fmt"
	"time"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Student is one enrolled student.
type Student struct {
	ID            int64     `json:"id"`
	AdmissionNo   string    `json:"admission_no"`
	Name          string    `json:"name"`
	ClassID       *int64    `json:"class_id,omitempty"`
	GuardianName  string    `json:"guardian_name,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	Active        bool      `json:"active"`
	EnrolledAt    time.Time `json:"enrolled_at"`
}

// CreateStudent inserts a student and sets its generated ID.
func (db *DB) CreateStudent(ctx context.Context, s *Student) error {
	res, err := db.store.Execute(ctx, `
		INSERT INTO students (admission_no, name, class_id, guardian_name, guardian_phone, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.AdmissionNo, s.Name, s.ClassID, s.GuardianName, s.GuardianPhone, s.Active)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	s.ID = res.LastInsertID
	return nil
}

// GetStudent returns a student by ID, or nil when not found.
func (db *DB) GetStudent(ctx context.Context, id int64) (*Student, error) {
	row, err := db.store.FetchOne(ctx, "SELECT * FROM students WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student %d: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return studentFromRow(row), nil
}

// GetStudentByAdmissionNo returns a student by admission number, or nil.
func (db *DB) GetStudentByAdmissionNo(ctx context.Context, admissionNo string) (*Student, error) {
	row, err := db.store.FetchOne(ctx, "SELECT * FROM students WHERE admission_no = ?", admissionNo)
	if err != nil {
		return nil, fmt.Errorf("failed to get student %s: %w", admissionNo, err)
	}
	if row == nil {
		return nil, nil
	}
	return studentFromRow(row), nil
}

// ListStudents returns active students, optionally restricted to a class.
func (db *DB) ListStudents(ctx context.Context, classID *int64) ([]Student, error) {
	var rows []store.Row
	var err error
	if classID != nil {
		rows, err = db.store.FetchAll(ctx,
			"SELECT * FROM students WHERE active AND class_id = ? ORDER BY name", *classID)
	} else {
		rows, err = db.store.FetchAll(ctx,
			"SELECT * FROM students WHERE active ORDER BY name")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	students := make([]Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, *studentFromRow(row))
	}
	return students, nil
}

// UpdateStudent rewrites a student's mutable fields.
func (db *DB) UpdateStudent(ctx context.Context, s *Student) error {
	res, err := db.store.Execute(ctx, `
		UPDATE students
		SET name = ?, class_id = ?, guardian_name = ?, guardian_phone = ?, active = ?
		WHERE id = ?
	`, s.Name, s.ClassID, s.GuardianName, s.GuardianPhone, s.Active, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update student %d: %w", s.ID, err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("student %d not found", s.ID)
	}
	return nil
}

// DeactivateStudent marks a student as no longer enrolled. Records are
// kept for history.
func (db *DB) DeactivateStudent(ctx context.Context, id int64) error {
	if _, err := db.store.Execute(ctx, "UPDATE students SET active = false WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to deactivate student %d: %w", id, err)
	}
	return nil
}

func studentFromRow(row store.Row) *Student {
	return &Student{
		ID:            rowInt64(row, "id"),
		AdmissionNo:   rowString(row, "admission_no"),
		Name:          rowString(row, "name"),
		ClassID:       rowInt64Ptr(row, "class_id"),
		GuardianName:  rowString(row, "guardian_name"),
		GuardianPhone: rowString(row, "guardian_phone"),
		Active:        rowBool(row, "active"),
		EnrolledAt:    rowTime(row, "enrolled_at"),
	}
}
