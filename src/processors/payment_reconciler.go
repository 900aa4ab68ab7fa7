// backend/src/processors/payment_reconciler.go
package processors

import (
	"fmt"

	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/parsers/paymentcsv"
	"github.com/username/asakim/backend/src/utils"
)

// MainRecord is one normalized row of the main payments file.
type MainRecord struct {
	SupplierName      string
	UniqueID          string
	PaymentDate       string // ISO or ""
	ReceivedDate      string // ISO or ""
	ExpenseType       string
	PaymentMethod     string // canonical
	SplitAmount       float64
	InstallmentsCount int
	InstallmentNumber int
	CheckNumber       string
	ReferenceNumber   string
	Notes             string
	ReceiptURL        string
}

// SubRecord is one normalized row of the sub-payments (installments) file.
type SubRecord struct {
	SupplierName      string
	ParentID          string
	PaymentDate       string // ISO or ""
	PaymentMethod     string // canonical
	Amount            float64
	InstallmentNumber int
	ReferenceNumber   string
	CheckNumber       string
	CreditCardID      string
	Bank              string
	Notes             string
}

// PaymentReconciler correlates rows from the two uploaded files into logical
// merged payments. It runs three ordered passes and a finalization filter;
// reconciliation always completes with best-effort output and a list of
// per-supplier diagnostics, it never fails a whole run over a bad row.
type PaymentReconciler struct {
	groupKey InstallmentGroupKeyFunc
}

func NewPaymentReconciler() *PaymentReconciler {
	return &PaymentReconciler{groupKey: InstallmentGroupKey}
}

// NewPaymentReconcilerWithPolicy allows swapping the installment grouping
// heuristic.
func NewPaymentReconcilerWithPolicy(groupKey InstallmentGroupKeyFunc) *PaymentReconciler {
	return &PaymentReconciler{groupKey: groupKey}
}

// Reconcile extracts normalized records from both parsed files and merges
// them. Rows without a supplier name are skipped during extraction.
func (p *PaymentReconciler) Reconcile(mainFile, subFile *paymentcsv.ParsedFile) ([]models.MergedPayment, []string) {
	var mains []MainRecord
	var subs []SubRecord
	if mainFile != nil {
		mains = ExtractMainRecords(mainFile)
	}
	if subFile != nil {
		subs = ExtractSubRecords(subFile)
	}
	return p.ReconcileRecords(mains, subs)
}

// ExtractMainRecords builds normalized main-file records through a freshly
// built header accessor. Rows with no supplier name are silently dropped.
func ExtractMainRecords(file *paymentcsv.ParsedFile) []MainRecord {
	acc := paymentcsv.BuildAccessor(file.Headers, paymentcsv.MainFileAliases)
	var records []MainRecord
	for _, row := range file.Rows {
		supplier := acc.Get(row, paymentcsv.FieldSupplierName)
		if supplier == "" {
			continue
		}
		records = append(records, MainRecord{
			SupplierName:      supplier,
			UniqueID:          acc.Get(row, paymentcsv.FieldUniqueID),
			PaymentDate:       paymentcsv.ParseDate(acc.Get(row, paymentcsv.FieldPaymentDate)),
			ReceivedDate:      paymentcsv.ParseDate(acc.Get(row, paymentcsv.FieldReceivedDate)),
			ExpenseType:       acc.Get(row, paymentcsv.FieldExpenseType),
			PaymentMethod:     paymentcsv.ResolveMethod(acc.Get(row, paymentcsv.FieldPaymentMethod)),
			SplitAmount:       paymentcsv.ParseAmount(acc.Get(row, paymentcsv.FieldSplitAmount)),
			InstallmentsCount: paymentcsv.ParseIntField(acc.Get(row, paymentcsv.FieldInstallmentsCount)),
			InstallmentNumber: paymentcsv.ParseIntField(acc.Get(row, paymentcsv.FieldInstallmentNumber)),
			CheckNumber:       acc.Get(row, paymentcsv.FieldCheckNumber),
			ReferenceNumber:   acc.Get(row, paymentcsv.FieldReferenceNumber),
			Notes:             acc.Get(row, paymentcsv.FieldNotes),
			ReceiptURL:        acc.Get(row, paymentcsv.FieldImages),
		})
	}
	return records
}

// ExtractSubRecords builds normalized sub-payment records. Rows with no
// supplier name are silently dropped.
func ExtractSubRecords(file *paymentcsv.ParsedFile) []SubRecord {
	acc := paymentcsv.BuildAccessor(file.Headers, paymentcsv.SubFileAliases)
	var records []SubRecord
	for _, row := range file.Rows {
		supplier := acc.Get(row, paymentcsv.FieldSupplierName)
		if supplier == "" {
			continue
		}
		records = append(records, SubRecord{
			SupplierName:      supplier,
			ParentID:          acc.Get(row, paymentcsv.FieldParentID),
			PaymentDate:       paymentcsv.ParseDate(acc.Get(row, paymentcsv.FieldPaymentDate)),
			PaymentMethod:     paymentcsv.ResolveMethod(acc.Get(row, paymentcsv.FieldPaymentMethod)),
			Amount:            paymentcsv.ParseAmount(acc.Get(row, paymentcsv.FieldAmount)),
			InstallmentNumber: paymentcsv.ParseIntField(acc.Get(row, paymentcsv.FieldInstallmentNumber)),
			ReferenceNumber:   acc.Get(row, paymentcsv.FieldReferenceNumber),
			CheckNumber:       acc.Get(row, paymentcsv.FieldCheckNumber),
			CreditCardID:      acc.Get(row, paymentcsv.FieldCreditCardID),
			Bank:              acc.Get(row, paymentcsv.FieldBank),
			Notes:             acc.Get(row, paymentcsv.FieldNotes),
		})
	}
	return records
}

// mainGroup is one logical group of main-file rows after pass 1.
type mainGroup struct {
	id      string // unique_id of the group (or synthetic key for id-less rows)
	rows    []MainRecord
	claimed bool // some sub-payment row references this id as its parent
}

// ReconcileRecords runs the three merge passes plus finalization over
// already-normalized records and returns the surviving payments and the
// operator-facing diagnostics collected along the way.
func (p *PaymentReconciler) ReconcileRecords(mains []MainRecord, subs []SubRecord) ([]models.MergedPayment, []string) {
	var diagnostics []string

	claimedIDs := make(map[string]bool)
	subsByParent := make(map[string][]SubRecord)
	var orphanSubs []SubRecord
	for _, sub := range subs {
		if sub.ParentID == "" {
			orphanSubs = append(orphanSubs, sub)
			continue
		}
		claimedIDs[sub.ParentID] = true
		subsByParent[sub.ParentID] = append(subsByParent[sub.ParentID], sub)
	}

	groups := p.groupMainRows(mains, claimedIDs)

	// Pass 2: one merged payment per main-group.
	var payments []models.MergedPayment
	bareBySupplier := make(map[string]int) // supplier -> index into payments
	for _, group := range groups {
		first := group.rows[0]
		mainDate := first.PaymentDate
		if mainDate == "" {
			mainDate = first.ReceivedDate
		}

		payment := models.MergedPayment{
			SupplierName: first.SupplierName,
			ExpenseType:  first.ExpenseType,
			Notes:        first.Notes,
			ReceiptURL:   first.ReceiptURL,
		}

		switch {
		case group.claimed:
			splits := buildSubSplits(subsByParent[group.id], first.InstallmentsCount)
			if len(splits) == 0 {
				continue // nothing with a positive amount survived
			}
			date := earliestDueDate(splits)
			if date == "" {
				date = mainDate
			}
			if date == "" {
				diagnostics = append(diagnostics, missingDateDiagnostic(first.SupplierName))
				continue
			}
			payment.PaymentDate = date
			payment.Splits = splits

		case len(group.rows) > 1:
			splits := buildInstallmentSplits(group.rows)
			if len(splits) == 0 {
				continue
			}
			date := earliestDueDate(splits)
			if date == "" {
				date = mainDate
			}
			if date == "" {
				diagnostics = append(diagnostics, missingDateDiagnostic(first.SupplierName))
				continue
			}
			payment.PaymentDate = date
			payment.Splits = splits

		default:
			if first.SplitAmount > 0 {
				if mainDate == "" {
					diagnostics = append(diagnostics, missingDateDiagnostic(first.SupplierName))
					continue
				}
				count := first.InstallmentsCount
				if count < 1 {
					count = 1
				}
				number := first.InstallmentNumber
				if number < 1 {
					number = 1
				}
				payment.PaymentDate = mainDate
				payment.Splits = []models.ParsedSplit{{
					PaymentMethod:     first.PaymentMethod,
					Amount:            first.SplitAmount,
					InstallmentNumber: number,
					InstallmentsCount: count,
					ReferenceNumber:   first.ReferenceNumber,
					CheckNumber:       first.CheckNumber,
					DueDate:           mainDate,
				}}
			} else {
				// Bare payment: no inline amount. It exists only as an
				// attachment target for pass 3 and is discarded by the
				// final filter if nothing attaches.
				payment.PaymentDate = mainDate
				if _, exists := bareBySupplier[first.SupplierName]; !exists {
					bareBySupplier[first.SupplierName] = len(payments)
				}
			}
		}
		payments = append(payments, payment)
	}

	// Pass 3: absorb standalone sub-payment rows, correlated by supplier name.
	supplierOrder, orphansBySupplier := groupOrphansBySupplier(orphanSubs)
	for _, supplier := range supplierOrder {
		splits := buildSubSplits(orphansBySupplier[supplier], 0)
		if len(splits) == 0 {
			continue
		}
		date := earliestDueDate(splits)

		if idx, ok := bareBySupplier[supplier]; ok {
			target := &payments[idx]
			if len(target.Splits) == 0 {
				if target.PaymentDate == "" && date == "" {
					// Neither the bare main row nor any sub row carries a
					// usable date; the bare row stays empty and is discarded
					// by the final filter.
					diagnostics = append(diagnostics, missingDateDiagnostic(supplier))
					continue
				}
				target.Splits = splits
				target.TotalAmount = sumSplits(splits)
				if target.PaymentDate == "" {
					target.PaymentDate = date
				}
				continue
			}
		}

		if date == "" {
			diagnostics = append(diagnostics, missingDateDiagnostic(supplier))
			continue
		}
		payments = append(payments, models.MergedPayment{
			SupplierName: supplier,
			PaymentDate:  date,
			Splits:       splits,
			Notes:        orphansBySupplier[supplier][0].Notes,
		})
	}

	return finalizePayments(payments), diagnostics
}

// groupMainRows is pass 1: group main rows by unique_id, then merge unclaimed
// multi-installment rows that share the grouping key. Claimed ids always
// stand alone; their splits come from the sub-payments file.
func (p *PaymentReconciler) groupMainRows(mains []MainRecord, claimedIDs map[string]bool) []mainGroup {
	var groups []mainGroup
	groupIdx := make(map[string]int) // unique_id -> index in groups
	mergeIdx := make(map[string]int) // installment group key -> index in groups
	syntheticSeq := 0

	for _, row := range mains {
		id := row.UniqueID
		if id == "" {
			// An id-less row can never be claimed or merged by id; give it
			// a synthetic standalone identity.
			syntheticSeq++
			id = fmt.Sprintf("\x00row-%d", syntheticSeq)
		} else if idx, ok := groupIdx[id]; ok {
			groups[idx].rows = append(groups[idx].rows, row)
			continue
		}

		if !claimedIDs[row.UniqueID] {
			if key, ok := p.groupKey(row); ok {
				if idx, merged := mergeIdx[key]; merged {
					groups[idx].rows = append(groups[idx].rows, row)
					groupIdx[id] = idx
					continue
				}
				mergeIdx[key] = len(groups)
			}
		}

		groupIdx[id] = len(groups)
		groups = append(groups, mainGroup{
			id:      row.UniqueID,
			rows:    []MainRecord{row},
			claimed: row.UniqueID != "" && claimedIDs[row.UniqueID],
		})
	}
	return groups
}

// buildSubSplits converts sub-payment rows into splits, dropping rows whose
// amount is not positive. installmentsCount comes from the owning main row
// when it declares one, otherwise it defaults to the number of kept splits.
func buildSubSplits(rows []SubRecord, installmentsCount int) []models.ParsedSplit {
	var splits []models.ParsedSplit
	for _, row := range rows {
		if row.Amount <= 0 {
			continue
		}
		number := row.InstallmentNumber
		if number < 1 {
			number = len(splits) + 1
		}
		splits = append(splits, models.ParsedSplit{
			PaymentMethod:     row.PaymentMethod,
			Amount:            row.Amount,
			InstallmentNumber: number,
			ReferenceNumber:   row.ReferenceNumber,
			CheckNumber:       row.CheckNumber,
			DueDate:           row.PaymentDate,
			Notes:             row.Notes,
			CreditCardID:      row.CreditCardID,
		})
	}
	count := installmentsCount
	if count < 1 {
		count = len(splits)
	}
	for i := range splits {
		splits[i].InstallmentsCount = count
	}
	return splits
}

// buildInstallmentSplits converts merged main-file installment rows into
// splits, one per row, with the same positive-amount filter.
func buildInstallmentSplits(rows []MainRecord) []models.ParsedSplit {
	var splits []models.ParsedSplit
	var declaredCounts []int
	for _, row := range rows {
		if row.SplitAmount <= 0 {
			continue
		}
		due := row.PaymentDate
		if due == "" {
			due = row.ReceivedDate
		}
		number := row.InstallmentNumber
		if number < 1 {
			number = len(splits) + 1
		}
		splits = append(splits, models.ParsedSplit{
			PaymentMethod:     row.PaymentMethod,
			Amount:            row.SplitAmount,
			InstallmentNumber: number,
			ReferenceNumber:   row.ReferenceNumber,
			CheckNumber:       row.CheckNumber,
			DueDate:           due,
		})
		declaredCounts = append(declaredCounts, row.InstallmentsCount)
	}
	for i := range splits {
		count := declaredCounts[i]
		if count < 1 {
			count = len(splits) // default to group size when the row declares none
		}
		splits[i].InstallmentsCount = count
	}
	return splits
}

func groupOrphansBySupplier(orphans []SubRecord) ([]string, map[string][]SubRecord) {
	var order []string
	grouped := make(map[string][]SubRecord)
	for _, sub := range orphans {
		if _, seen := grouped[sub.SupplierName]; !seen {
			order = append(order, sub.SupplierName)
		}
		grouped[sub.SupplierName] = append(grouped[sub.SupplierName], sub)
	}
	return order, grouped
}

// earliestDueDate returns the lexicographic minimum of the non-empty split
// due dates, which for ISO strings is also the calendar minimum. The payment
// date reflects the first money movement, not whatever a human wrote in the
// summary row.
func earliestDueDate(splits []models.ParsedSplit) string {
	earliest := ""
	for _, s := range splits {
		if s.DueDate == "" {
			continue
		}
		if earliest == "" || s.DueDate < earliest {
			earliest = s.DueDate
		}
	}
	return earliest
}

func sumSplits(splits []models.ParsedSplit) float64 {
	var total float64
	for _, s := range splits {
		total += s.Amount
	}
	return utils.RoundFloat(total, 2)
}

// finalizePayments drops pure-noise payments (no splits, no amount) and
// enforces the two persistence invariants: the total equals the sum of the
// splits, and every payment carries at least one split. A payment that has an
// amount but no splits gets a single synthesized "other" split so no false
// method or date precision is invented.
func finalizePayments(payments []models.MergedPayment) []models.MergedPayment {
	var finalized []models.MergedPayment
	for _, payment := range payments {
		if len(payment.Splits) == 0 && payment.TotalAmount <= 0 {
			continue
		}
		if len(payment.Splits) > 0 {
			payment.TotalAmount = sumSplits(payment.Splits)
		} else {
			payment.Splits = []models.ParsedSplit{{
				PaymentMethod:     paymentcsv.MethodOther,
				Amount:            payment.TotalAmount,
				InstallmentNumber: 1,
				InstallmentsCount: 1,
				DueDate:           payment.PaymentDate,
			}}
		}
		finalized = append(finalized, payment)
	}
	return finalized
}

func missingDateDiagnostic(supplier string) string {
	return fmt.Sprintf("ספק %s: לא נמצא תאריך תשלום תקין - הרשומה דולגה", supplier)
}
