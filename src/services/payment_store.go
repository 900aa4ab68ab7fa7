// backend/src/services/payment_store.go
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/asakim/backend/src/database"
)

// PaymentRecord is the persistence shape of one payment row.
type PaymentRecord struct {
	BusinessID  int64
	SupplierID  int64
	PaymentDate string
	TotalAmount float64
	Notes       string
	ReceiptURL  string
	CreatedBy   int64
}

// SplitRecord is the persistence shape of one payment_splits row. Optional
// fields are stored as NULL when empty.
type SplitRecord struct {
	PaymentMethod     string
	Amount            float64
	InstallmentsCount int
	InstallmentNumber int
	DueDate           string
	ReferenceNumber   string
	CheckNumber       string
	CreditCardID      string
}

// PaymentStore persists one payment together with its splits. The store
// guarantees the payment and its splits land atomically; nothing spans
// multiple payments.
type PaymentStore interface {
	InsertPaymentWithSplits(ctx context.Context, payment PaymentRecord, splits []SplitRecord) (int64, error)
}

type sqlitePaymentStore struct {
	db *sql.DB
}

// NewPaymentStore returns the sqlite-backed payment store over the global
// database connection.
func NewPaymentStore() PaymentStore {
	return &sqlitePaymentStore{db: database.DB}
}

func (s *sqlitePaymentStore) InsertPaymentWithSplits(ctx context.Context, payment PaymentRecord, splits []SplitRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning payment transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO payments (business_id, supplier_id, payment_date, total_amount, notes, receipt_url, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.BusinessID, payment.SupplierID, payment.PaymentDate, payment.TotalAmount,
		nullIfEmpty(payment.Notes), nullIfEmpty(payment.ReceiptURL), payment.CreatedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("error inserting payment: %w", err)
	}
	paymentID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading payment id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO payment_splits
			(payment_id, payment_method, amount, installments_count, installment_number,
			 due_date, reference_number, check_number, credit_card_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing split insert: %w", err)
	}
	defer stmt.Close()

	for _, split := range splits {
		_, err := stmt.ExecContext(ctx,
			paymentID, split.PaymentMethod, split.Amount, split.InstallmentsCount, split.InstallmentNumber,
			nullIfEmpty(split.DueDate), nullIfEmpty(split.ReferenceNumber),
			nullIfEmpty(split.CheckNumber), nullIfEmpty(split.CreditCardID),
		)
		if err != nil {
			return 0, fmt.Errorf("error inserting payment split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing payment: %w", err)
	}
	return paymentID, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
