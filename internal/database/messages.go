package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Message statuses.
const (
	MessageQueued = "queued"
	MessageSent   = "sent"
	MessageFailed = "failed"
)

// Message is one staff-to-guardian message.
type Message struct {
	UUID      string `json:"id"`
	StudentID *int64 `json:"student_id,omitempty"`
	SenderID  *int64 `json:"sender_id,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Status    string `json:"status"`
}

// QueueMessage stores a message for delivery and returns its ID.
func (db *DB) QueueMessage(ctx context.Context, m *Message) error {
	if m.UUID == "" {
		m.UUID = uuid.NewString()
	}
	m.Status = MessageQueued

	_, err := db.store.Execute(ctx, `
		INSERT INTO messages (id, student_id, sender_id, subject, body, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.UUID, m.StudentID, m.SenderID, m.Subject, m.Body, m.Status)
	if err != nil {
		return fmt.Errorf("failed to queue message: %w", err)
	}
	return nil
}

// MarkMessageSent flips a queued message to sent with a delivery timestamp.
func (db *DB) MarkMessageSent(ctx context.Context, id string) error {
	res, err := db.store.Execute(ctx,
		"UPDATE messages SET status = ?, sent_at = ? WHERE id = ? AND status = ?",
		MessageSent, time.Now().UTC(), id, MessageQueued)
	if err != nil {
		return fmt.Errorf("failed to mark message sent: %w", err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("message %s not queued", id)
	}
	return nil
}

// ListMessages returns a student's messages, newest first.
func (db *DB) ListMessages(ctx context.Context, studentID int64) ([]Message, error) {
	rows, err := db.store.FetchAll(ctx,
		"SELECT * FROM messages WHERE student_id = ? ORDER BY created_at DESC", studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, *messageFromRow(row))
	}
	return msgs, nil
}

func messageFromRow(row store.Row) *Message {
	return &Message{
		UUID:      rowString(row, "id"),
		StudentID: rowInt64Ptr(row, "student_id"),
		SenderID:  rowInt64Ptr(row, "sender_id"),
		Subject:   rowString(row, "subject"),
		Body:      rowString(row, "body"),
		Status:    rowString(row, "status"),
	}
}
