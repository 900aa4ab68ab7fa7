// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/processors"
)

// ReconcileOutput is the result of one reconciliation run over the two
// uploaded files: the merged payments for preview, the operator summary and
// the non-fatal warnings collected along the way.
type ReconcileOutput struct {
	Payments []models.MergedPayment      `json:"payments"`
	Summary  processors.ReconcileSummary `json:"summary"`
	Warnings []string                    `json:"warnings"`
}

// SupplierImportResult reports a supplier roster import.
type SupplierImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"` // already present, case-insensitively
	Names    []string `json:"names,omitempty"`
}

// Define common service errors
var (
	ErrParsingFailed      = errors.New("csv parsing failed")
	ErrUnmatchedSuppliers = errors.New("payments reference suppliers missing from the business roster")
	ErrBusinessNotFound   = errors.New("business not found")
)

// PaymentImportService is the core of the back office: it reconciles the two
// payment CSV exports into merged payments and, in a separate step, persists
// an operator-approved list.
type PaymentImportService interface {
	// Reconcile parses and merges both files against the business's live
	// supplier roster. It never fails over row-level problems; those are
	// reported in the output warnings.
	Reconcile(mainFile, subFile io.Reader, businessID int64) (*ReconcileOutput, error)

	// Import persists the approved payments one at a time, halting on the
	// first write error. It performs zero writes while any payment
	// references an unmatched supplier (ErrUnmatchedSuppliers).
	Import(ctx context.Context, businessID, createdBy int64, payments []models.MergedPayment) (*models.ImportResult, error)
}

// SupplierImportService imports the supplier roster of a business from a
// single CSV. Running it is a precondition for importing payments: the
// payment importer refuses to write against names missing from the roster.
type SupplierImportService interface {
	ImportSuppliers(file io.Reader, businessID int64) (*SupplierImportResult, error)
}

// RosterProvider supplies the per-business supplier snapshot consumed by
// reconciliation and import.
type RosterProvider interface {
	GetRoster(businessID int64) (*SupplierRoster, error)
	Invalidate(businessID int64)
}
