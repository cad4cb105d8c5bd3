package database

import (
	"context"
	"fmt"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// AttendanceRecord is one student's attendance for one date.
type AttendanceRecord struct {
	ID         int64  `json:"id"`
	StudentID  int64  `json:"student_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	Status     string `json:"status"`
	Remark     string `json:"remark,omitempty"`
	RecordedBy *int64 `json:"recorded_by,omitempty"`
}

// Mark is one entry of a bulk attendance batch.
type Mark struct {
	StudentID int64  `json:"student_id"`
	Status    string `json:"status"`
	Remark    string `json:"remark,omitempty"`
}

// BulkMark records attendance for a whole class inside one transaction
// span. If any insert fails (for example a duplicate record for a
// student and date), the entire batch rolls back; partially-applied
// attendance never persists.
func (db *DB) BulkMark(ctx context.Context, date string, marks []Mark, recordedBy *int64) error {
	if len(marks) == 0 {
		return nil
	}
	return db.store.WithSpan(ctx, "attendance.bulk-mark", func(sp *store.Span) error {
		for _, m := range marks {
			status := m.Status
			if status == "" {
				status = AttendancePresent
			}
			_, err := sp.Execute(ctx, `
				INSERT INTO attendance (student_id, date, status, remark, recorded_by)
				VALUES (?, ?, ?, ?, ?)
			`, m.StudentID, date, status, m.Remark, recordedBy)
			if err != nil {
				return fmt.Errorf("failed to mark student %d on %s: %w", m.StudentID, date, err)
			}
		}
		return nil
	})
}

// ListAttendance returns a class's attendance records for one date.
func (db *DB) ListAttendance(ctx context.Context, classID int64, date string) ([]AttendanceRecord, error) {
	rows, err := db.store.FetchAll(ctx, `
		SELECT a.id, a.student_id, a.date, a.status, a.remark, a.recorded_by
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		WHERE s.class_id = ? AND a.date = ?
		ORDER BY s.name
	`, classID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	records := make([]AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, AttendanceRecord{
			ID:         rowInt64(row, "id"),
			StudentID:  rowInt64(row, "student_id"),
			Date:       rowString(row, "date"),
			Status:     rowString(row, "status"),
			Remark:     rowString(row, "remark"),
			RecordedBy: rowInt64Ptr(row, "recorded_by"),
		})
	}
	return records, nil
}

// AttendanceSummary counts a student's attendance by status over a date
// range (inclusive).
func (db *DB) AttendanceSummary(ctx context.Context, studentID int64, from, to string) (map[string]int64, error) {
	rows, err := db.store.FetchAll(ctx, `
		SELECT status, COUNT(*) AS n
		FROM attendance
		WHERE student_id = ? AND date >= ? AND date <= ?
		GROUP BY status
	`, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize attendance: %w", err)
	}

	summary := make(map[string]int64, len(rows))
	for _, row := range rows {
		summary[rowString(row, "status")] = rowInt64(row, "n")
	}
	return summary, nil
}
