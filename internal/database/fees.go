package database

import (
	"context"
	"fmt"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Invoice statuses.
const (
	InvoiceOpen    = "open"
	InvoicePartial = "partial"
	InvoicePaid    = "paid"
)

// FeeInvoice bills one student for one term. Amounts are in cents.
type FeeInvoice struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"student_id"`
	Term        string `json:"term"`
	AmountCents int64  `json:"amount_cents"`
	PaidCents   int64  `json:"paid_cents"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date,omitempty"`
}

// CreateInvoice inserts an invoice and sets its generated ID.
func (db *DB) CreateInvoice(ctx context.Context, inv *FeeInvoice) error {
	res, err := db.store.Execute(ctx,
		"INSERT INTO fee_invoices (student_id, term, amount_cents, due_date) VALUES (?, ?, ?, ?)",
		inv.StudentID, inv.Term, inv.AmountCents, inv.DueDate)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	inv.ID = res.LastInsertID
	inv.Status = InvoiceOpen
	return nil
}

// GetInvoice returns an invoice by ID, or nil when not found.
func (db *DB) GetInvoice(ctx context.Context, id int64) (*FeeInvoice, error) {
	row, err := db.store.FetchOne(ctx, "SELECT * FROM fee_invoices WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %d: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return invoiceFromRow(row), nil
}

// ListInvoices returns a student's invoices, newest first.
func (db *DB) ListInvoices(ctx context.Context, studentID int64) ([]FeeInvoice, error) {
	rows, err := db.store.FetchAll(ctx,
		"SELECT * FROM fee_invoices WHERE student_id = ? ORDER BY id DESC", studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	invoices := make([]FeeInvoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, *invoiceFromRow(row))
	}
	return invoices, nil
}

// RecordPayment applies a payment to an invoice inside one transaction
// span: the payment row and the invoice balance update either both land or
// neither does. Overpayment is rejected.
func (db *DB) RecordPayment(ctx context.Context, invoiceID, amountCents int64, method, reference string, receivedBy *int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("payment amount must be positive")
	}
	if method == "" {
		method = "cash"
	}

	return db.store.WithSpan(ctx, "fees.record-payment", func(sp *store.Span) error {
		row, err := sp.FetchOne(ctx, "SELECT * FROM fee_invoices WHERE id = ?", invoiceID)
		if err != nil {
			return fmt.Errorf("failed to load invoice %d: %w", invoiceID, err)
		}
		if row == nil {
			return fmt.Errorf("invoice %d not found", invoiceID)
		}
		inv := invoiceFromRow(row)

		paid := inv.PaidCents + amountCents
		if paid > inv.AmountCents {
			return fmt.Errorf("payment of %d exceeds outstanding balance %d", amountCents, inv.AmountCents-inv.PaidCents)
		}
		status := InvoicePartial
		if paid == inv.AmountCents {
			status = InvoicePaid
		}

		_, err = sp.Execute(ctx, `
			INSERT INTO fee_payments (invoice_id, amount_cents, method, reference, received_by)
			VALUES (?, ?, ?, ?, ?)
		`, invoiceID, amountCents, method, reference, receivedBy)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		_, err = sp.Execute(ctx,
			"UPDATE fee_invoices SET paid_cents = ?, status = ? WHERE id = ?",
			paid, status, invoiceID)
		if err != nil {
			return fmt.Errorf("failed to update invoice balance: %w", err)
		}
		return nil
	})
}

func invoiceFromRow(row store.Row) *FeeInvoice {
	return &FeeInvoice{
		ID:          rowInt64(row, "id"),
		StudentID:   rowInt64(row, "student_id"),
		Term:        rowString(row, "term"),
		AmountCents: rowInt64(row, "amount_cents"),
		PaidCents:   rowInt64(row, "paid_cents"),
		Status:      rowString(row, "status"),
		DueDate:     rowString(row, "due_date"),
	}
}
