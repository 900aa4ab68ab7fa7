// backend/src/services/payment_import_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/asakim/backend/src/logger"
	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/parsers/paymentcsv"
	"github.com/username/asakim/backend/src/processors"
	"github.com/username/asakim/backend/src/security/validation"
)

type paymentImportServiceImpl struct {
	reconciler *processors.PaymentReconciler
	rosters    RosterProvider
	store      PaymentStore
}

func NewPaymentImportService(
	reconciler *processors.PaymentReconciler,
	rosters RosterProvider,
	store PaymentStore,
) PaymentImportService {
	return &paymentImportServiceImpl{
		reconciler: reconciler,
		rosters:    rosters,
		store:      store,
	}
}

// Reconcile parses both uploaded files, runs the merge passes and annotates
// the result with the supplier-match status for the selected business.
func (s *paymentImportServiceImpl) Reconcile(mainFile, subFile io.Reader, businessID int64) (*ReconcileOutput, error) {
	overallStartTime := time.Now()
	logger.L.Info("Reconcile START", "businessID", businessID)

	parsedMain, err := paymentcsv.Parse(mainFile)
	if err != nil {
		return nil, fmt.Errorf("%w: main file: %v", ErrParsingFailed, err)
	}
	parsedSub, err := paymentcsv.Parse(subFile)
	if err != nil {
		return nil, fmt.Errorf("%w: sub-payments file: %v", ErrParsingFailed, err)
	}

	payments, warnings := s.reconciler.Reconcile(parsedMain, parsedSub)

	roster, err := s.rosters.GetRoster(businessID)
	if err != nil {
		return nil, err
	}
	unmatched := UnmatchedSuppliers(payments, roster)

	if warnings == nil {
		warnings = []string{}
	}
	if payments == nil {
		payments = []models.MergedPayment{}
	}

	logger.L.Info("Reconcile END",
		"businessID", businessID,
		"payments", len(payments),
		"unmatchedSuppliers", len(unmatched),
		"warnings", len(warnings),
		"duration", time.Since(overallStartTime),
	)
	return &ReconcileOutput{
		Payments: payments,
		Summary:  processors.BuildSummary(payments, unmatched),
		Warnings: warnings,
	}, nil
}

// Import persists the operator-approved payments sequentially, one payment
// (with its splits) per store call. It is fail-closed: while any payment
// references a supplier missing from the roster nothing is written at all.
// A write error halts the run; prior payments in the same run stay committed
// and the result reports exactly what landed.
func (s *paymentImportServiceImpl) Import(ctx context.Context, businessID, createdBy int64, payments []models.MergedPayment) (*models.ImportResult, error) {
	roster, err := s.rosters.GetRoster(businessID)
	if err != nil {
		return nil, err
	}

	if unmatched := UnmatchedSuppliers(payments, roster); len(unmatched) > 0 {
		logger.L.Warn("Import blocked on unmatched suppliers", "businessID", businessID, "unmatched", unmatched)
		return nil, fmt.Errorf("%w: %s", ErrUnmatchedSuppliers, strings.Join(unmatched, ", "))
	}

	result := &models.ImportResult{}
	for _, payment := range payments {
		// Defense in depth: the roster may have changed between the
		// pre-check above and this iteration.
		supplier, ok := roster.Match(payment.SupplierName)
		if !ok {
			logger.L.Warn("Skipping payment for supplier that vanished from roster", "businessID", businessID, "supplier", payment.SupplierName)
			result.SkippedUnmatched++
			continue
		}

		record := PaymentRecord{
			BusinessID:  businessID,
			SupplierID:  supplier.ID,
			PaymentDate: payment.PaymentDate,
			TotalAmount: payment.TotalAmount,
			Notes:       validation.SanitizeText(payment.Notes),
			ReceiptURL:  payment.ReceiptURL,
			CreatedBy:   createdBy,
		}
		splits := make([]SplitRecord, 0, len(payment.Splits))
		for _, split := range payment.Splits {
			splits = append(splits, SplitRecord{
				PaymentMethod:     split.PaymentMethod,
				Amount:            split.Amount,
				InstallmentsCount: split.InstallmentsCount,
				InstallmentNumber: split.InstallmentNumber,
				DueDate:           split.DueDate,
				ReferenceNumber:   split.ReferenceNumber,
				CheckNumber:       split.CheckNumber,
				CreditCardID:      validCreditCardID(split.CreditCardID),
			})
		}

		paymentID, err := s.store.InsertPaymentWithSplits(ctx, record, splits)
		if err != nil {
			logger.L.Error("Import halted on write error",
				"businessID", businessID,
				"supplier", payment.SupplierName,
				"insertedSoFar", result.InsertedPayments,
				"error", err,
			)
			result.FailedSupplier = payment.SupplierName
			result.Message = fmt.Sprintf("הייבוא נעצר עקב שגיאה בשמירת תשלום לספק %s", payment.SupplierName)
			return result, fmt.Errorf("import halted at supplier %q: %w", payment.SupplierName, err)
		}

		result.InsertedPayments++
		result.InsertedSplits += len(splits)
		logger.L.Debug("Payment imported", "businessID", businessID, "paymentID", paymentID, "supplier", payment.SupplierName, "splits", len(splits))
	}

	result.Message = fmt.Sprintf("הייבוא הושלם: %d תשלומים ו-%d פיצולים נקלטו", result.InsertedPayments, result.InsertedSplits)
	logger.L.Info("Import END", "businessID", businessID, "insertedPayments", result.InsertedPayments, "insertedSplits", result.InsertedSplits, "skipped", result.SkippedUnmatched)
	return result, nil
}

// validCreditCardID keeps a credit card reference only when it is
// syntactically a UUID. Format-validated, not existence-validated.
func validCreditCardID(id string) string {
	if id == "" {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}
