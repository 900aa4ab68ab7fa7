// backend/src/models/payment.go
package models

// ParsedSplit is one actual money movement belonging to a merged payment:
// an installment, or a partial payment by a specific method. It is built once
// during reconciliation and never mutated afterwards.
type ParsedSplit struct {
	PaymentMethod     string  `json:"payment_method"`
	Amount            float64 `json:"amount"`
	InstallmentNumber int     `json:"installment_number"`
	InstallmentsCount int     `json:"installments_count"`
	ReferenceNumber   string  `json:"reference_number,omitempty"`
	CheckNumber       string  `json:"check_number,omitempty"`
	DueDate           string  `json:"due_date,omitempty"` // ISO YYYY-MM-DD, may be empty
	Notes             string  `json:"notes,omitempty"`
	CreditCardID      string  `json:"credit_card_id,omitempty"`
}

// MergedPayment is a logical payment to a supplier on a date, reconciled from
// one or more CSV rows across the main and sub-payments files. After the
// finalization pass every surviving payment has at least one split and its
// total equals the sum of its splits.
type MergedPayment struct {
	SupplierName string        `json:"supplier_name"`
	PaymentDate  string        `json:"payment_date"` // ISO YYYY-MM-DD
	TotalAmount  float64       `json:"total_amount"`
	ExpenseType  string        `json:"expense_type,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	ReceiptURL   string        `json:"receipt_url,omitempty"`
	Splits       []ParsedSplit `json:"splits"`
}

// Business is a tenant record. Read-only to the payment import core.
type Business struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Supplier belongs to a business. The reconciliation engine only reads these
// to resolve supplier names; supplier creation happens in a separate importer.
type Supplier struct {
	ID         int64  `json:"id"`
	BusinessID int64  `json:"business_id"`
	Name       string `json:"name"`
}

// Invoice is scoped to a business, read-only to the core.
type Invoice struct {
	ID            int64   `json:"id"`
	InvoiceNumber string  `json:"invoice_number"`
	SupplierID    int64   `json:"supplier_id"`
	TotalAmount   float64 `json:"total_amount"`
}

// ImportResult reports what a single import run actually wrote. A run halts
// on the first write error, so these counts describe a possibly partial state.
type ImportResult struct {
	InsertedPayments int    `json:"inserted_payments"`
	InsertedSplits   int    `json:"inserted_splits"`
	SkippedUnmatched int    `json:"skipped_unmatched"`
	FailedSupplier   string `json:"failed_supplier,omitempty"`
	Message          string `json:"message,omitempty"`
}
