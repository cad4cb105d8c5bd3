package database

import (
	"context"
	"fmt"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Teacher is one member of the teaching staff.
type Teacher struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Class groups students under an optional homeroom teacher.
type Class struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Grade     int64  `json:"grade"`
	TeacherID *int64 `json:"teacher_id,omitempty"`
}

// CreateTeacher inserts a teacher and sets its generated ID.
func (db *DB) CreateTeacher(ctx context.Context, t *Teacher) error {
	res, err := db.store.Execute(ctx,
		"INSERT INTO teachers (name, email, phone, subject) VALUES (?, ?, ?, ?)",
		t.Name, t.Email, t.Phone, t.Subject)
	if err != nil {
		return fmt.Errorf("failed to create teacher: %w", err)
	}
	t.ID = res.LastInsertID
	return nil
}

// CreateClass inserts a class and sets its generated ID.
func (db *DB) CreateClass(ctx context.Context, c *Class) error {
	res, err := db.store.Execute(ctx,
		"INSERT INTO classes (name, grade, teacher_id) VALUES (?, ?, ?)",
		c.Name, c.Grade, c.TeacherID)
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	c.ID = res.LastInsertID
	return nil
}

// GetClass returns a class by ID, or nil when not found.
func (db *DB) GetClass(ctx context.Context, id int64) (*Class, error) {
	row, err := db.store.FetchOne(ctx, "SELECT * FROM classes WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get class %d: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return classFromRow(row), nil
}

// ListClasses returns all classes ordered by grade then name.
func (db *DB) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := db.store.FetchAll(ctx, "SELECT * FROM classes ORDER BY grade, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	classes := make([]Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, *classFromRow(row))
	}
	return classes, nil
}

// ClassRoster returns the active students of a class.
func (db *DB) ClassRoster(ctx context.Context, classID int64) ([]Student, error) {
	return db.ListStudents(ctx, &classID)
}

func classFromRow(row store.Row) *Class {
	return &Class{
		ID:        rowInt64(row, "id"),
		Name:      rowString(row, "name"),
		Grade:     rowInt64(row, "grade"),
		TeacherID: rowInt64Ptr(row, "teacher_id"),
	}
}
