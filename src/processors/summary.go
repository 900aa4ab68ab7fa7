// backend/src/processors/summary.go
package processors

import (
	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/utils"
)

// ReconcileSummary is what the operator reviews before deciding to import:
// totals, per-method breakdown and the supplier-match status.
type ReconcileSummary struct {
	PaymentCount       int                `json:"payment_count"`
	SplitCount         int                `json:"split_count"`
	TotalAmount        float64            `json:"total_amount"`
	AmountByMethod     map[string]float64 `json:"amount_by_method"`
	MatchedSuppliers   int                `json:"matched_suppliers"`
	UnmatchedSuppliers []string           `json:"unmatched_suppliers"`
}

// BuildSummary aggregates finalized payments for operator review. The
// unmatched list comes from the supplier matcher; suppliers are counted once
// per distinct name, not once per payment.
func BuildSummary(payments []models.MergedPayment, unmatched []string) ReconcileSummary {
	summary := ReconcileSummary{
		PaymentCount:       len(payments),
		AmountByMethod:     make(map[string]float64),
		UnmatchedSuppliers: unmatched,
	}
	if summary.UnmatchedSuppliers == nil {
		summary.UnmatchedSuppliers = []string{}
	}

	unmatchedSet := make(map[string]bool, len(unmatched))
	for _, name := range unmatched {
		unmatchedSet[name] = true
	}

	matchedSet := make(map[string]bool)
	for _, payment := range payments {
		summary.SplitCount += len(payment.Splits)
		summary.TotalAmount += payment.TotalAmount
		for _, split := range payment.Splits {
			summary.AmountByMethod[split.PaymentMethod] += split.Amount
		}
		if !unmatchedSet[payment.SupplierName] {
			matchedSet[payment.SupplierName] = true
		}
	}
	summary.MatchedSuppliers = len(matchedSet)

	summary.TotalAmount = utils.RoundFloat(summary.TotalAmount, 2)
	for method, amount := range summary.AmountByMethod {
		summary.AmountByMethod[method] = utils.RoundFloat(amount, 2)
	}
	return summary
}
