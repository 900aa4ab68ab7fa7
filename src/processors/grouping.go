// backend/src/processors/grouping.go
package processors

// InstallmentGroupKeyFunc decides whether a main-file row is eligible to be
// merged with sibling rows into one logical installment payment, and if so
// under which key. It is a named, tunable policy rather than inline string
// concatenation so it can be swapped or tested on its own.
type InstallmentGroupKeyFunc func(r MainRecord) (string, bool)

// InstallmentGroupKey is the default policy: rows that declare more than one
// installment and carry a receipt image are merged with other unclaimed rows
// sharing the same (supplier, receipt, reference) triple. A shared receipt
// photo is the strongest signal two main-file lines describe one payment;
// the triple is still a heuristic and can over-merge genuinely distinct
// payments that reuse a receipt.
func InstallmentGroupKey(r MainRecord) (string, bool) {
	if r.InstallmentsCount <= 1 || r.ReceiptURL == "" {
		return "", false
	}
	return r.SupplierName + "\x1f" + r.ReceiptURL + "\x1f" + r.ReferenceNumber, true
}
