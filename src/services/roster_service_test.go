// backend/src/services/roster_service_test.go
package services

import (
	"testing"

	"github.com/username/asakim/backend/src/models"
)

func TestSupplierRosterMatch(t *testing.T) {
	roster := NewSupplierRoster([]models.Supplier{
		{ID: 1, BusinessID: 10, Name: "מוסך הצפון"},
		{ID: 2, BusinessID: 10, Name: "Office Depot"},
	})

	testCases := []struct {
		name     string
		query    string
		wantID   int64
		wantFind bool
	}{
		{"exact hebrew", "מוסך הצפון", 1, true},
		{"surrounding whitespace", "  מוסך הצפון ", 1, true},
		{"case insensitive english", "office depot", 2, true},
		{"unknown supplier", "ספק זר", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			supplier, found := roster.Match(tc.query)
			if found != tc.wantFind {
				t.Fatalf("found = %v, want %v", found, tc.wantFind)
			}
			if found && supplier.ID != tc.wantID {
				t.Errorf("supplier id = %d, want %d", supplier.ID, tc.wantID)
			}
		})
	}
}

func TestSupplierRosterCollisionFirstWins(t *testing.T) {
	roster := NewSupplierRoster([]models.Supplier{
		{ID: 1, Name: "Acme"},
		{ID: 2, Name: "ACME"},
	})
	if roster.Len() != 1 {
		t.Fatalf("len = %d, want 1 after case-folded collision", roster.Len())
	}
	supplier, _ := roster.Match("acme")
	if supplier.ID != 1 {
		t.Errorf("supplier id = %d, want the first entry to win", supplier.ID)
	}
}

func TestSupplierRosterSuppliersSorted(t *testing.T) {
	roster := NewSupplierRoster([]models.Supplier{
		{ID: 1, Name: "ג"},
		{ID: 2, Name: "א"},
		{ID: 3, Name: "ב"},
	})
	suppliers := roster.Suppliers()
	if len(suppliers) != 3 {
		t.Fatalf("len = %d, want 3", len(suppliers))
	}
	for i := 1; i < len(suppliers); i++ {
		if suppliers[i-1].Name > suppliers[i].Name {
			t.Fatalf("suppliers not sorted: %q before %q", suppliers[i-1].Name, suppliers[i].Name)
		}
	}
}

func TestUnmatchedSuppliers(t *testing.T) {
	roster := NewSupplierRoster([]models.Supplier{
		{ID: 1, Name: "מוסך הצפון"},
	})
	payments := []models.MergedPayment{
		{SupplierName: "ספק חדש"},
		{SupplierName: "מוסך הצפון"},
		{SupplierName: "ספק חדש"}, // duplicate, reported once
		{SupplierName: "ספק נוסף"},
	}

	unmatched := UnmatchedSuppliers(payments, roster)
	if len(unmatched) != 2 {
		t.Fatalf("unmatched = %v, want 2 distinct names", unmatched)
	}
	if unmatched[0] != "ספק חדש" || unmatched[1] != "ספק נוסף" {
		t.Errorf("unmatched = %v, want first-appearance order", unmatched)
	}
}

func TestUnmatchedSuppliersAllMatched(t *testing.T) {
	roster := NewSupplierRoster([]models.Supplier{{ID: 1, Name: "מוסך הצפון"}})
	payments := []models.MergedPayment{{SupplierName: "מוסך הצפון"}}
	if unmatched := UnmatchedSuppliers(payments, roster); len(unmatched) != 0 {
		t.Errorf("unmatched = %v, want none", unmatched)
	}
}
