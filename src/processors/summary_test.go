// backend/src/processors/summary_test.go
package processors

import (
	"testing"

	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/parsers/paymentcsv"
)

func TestBuildSummary(t *testing.T) {
	payments := []models.MergedPayment{
		{
			SupplierName: "מוסך הצפון",
			TotalAmount:  500,
			Splits: []models.ParsedSplit{
				{PaymentMethod: paymentcsv.MethodCash, Amount: 300},
				{PaymentMethod: paymentcsv.MethodBit, Amount: 200},
			},
		},
		{
			SupplierName: "מוסך הצפון",
			TotalAmount:  100,
			Splits: []models.ParsedSplit{
				{PaymentMethod: paymentcsv.MethodCash, Amount: 100},
			},
		},
		{
			SupplierName: "ספק חדש",
			TotalAmount:  50,
			Splits: []models.ParsedSplit{
				{PaymentMethod: paymentcsv.MethodCheck, Amount: 50},
			},
		},
	}

	summary := BuildSummary(payments, []string{"ספק חדש"})

	if summary.PaymentCount != 3 {
		t.Errorf("payment count = %d, want 3", summary.PaymentCount)
	}
	if summary.SplitCount != 4 {
		t.Errorf("split count = %d, want 4", summary.SplitCount)
	}
	if summary.TotalAmount != 650 {
		t.Errorf("total = %v, want 650", summary.TotalAmount)
	}
	if summary.AmountByMethod[paymentcsv.MethodCash] != 400 {
		t.Errorf("cash total = %v, want 400", summary.AmountByMethod[paymentcsv.MethodCash])
	}
	if summary.AmountByMethod[paymentcsv.MethodBit] != 200 {
		t.Errorf("bit total = %v, want 200", summary.AmountByMethod[paymentcsv.MethodBit])
	}
	// Two payments to the same matched supplier count once.
	if summary.MatchedSuppliers != 1 {
		t.Errorf("matched suppliers = %d, want 1", summary.MatchedSuppliers)
	}
	if len(summary.UnmatchedSuppliers) != 1 || summary.UnmatchedSuppliers[0] != "ספק חדש" {
		t.Errorf("unmatched = %v", summary.UnmatchedSuppliers)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	summary := BuildSummary(nil, nil)
	if summary.PaymentCount != 0 || summary.SplitCount != 0 || summary.TotalAmount != 0 {
		t.Errorf("empty summary = %+v", summary)
	}
	if summary.UnmatchedSuppliers == nil {
		t.Error("unmatched list should be empty, not nil, for JSON output")
	}
}
