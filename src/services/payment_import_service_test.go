// backend/src/services/payment_import_service_test.go
package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/parsers/paymentcsv"
	"github.com/username/asakim/backend/src/processors"
)

type fakeRosterProvider struct {
	roster *SupplierRoster
}

func (f *fakeRosterProvider) GetRoster(businessID int64) (*SupplierRoster, error) {
	return f.roster, nil
}

func (f *fakeRosterProvider) Invalidate(businessID int64) {}

type storedPayment struct {
	record PaymentRecord
	splits []SplitRecord
}

type fakePaymentStore struct {
	stored    []storedPayment
	failAfter int // fail the call with this zero-based index; -1 never fails
}

func (f *fakePaymentStore) InsertPaymentWithSplits(ctx context.Context, payment PaymentRecord, splits []SplitRecord) (int64, error) {
	if f.failAfter >= 0 && len(f.stored) == f.failAfter {
		return 0, errors.New("disk full")
	}
	f.stored = append(f.stored, storedPayment{record: payment, splits: splits})
	return int64(len(f.stored)), nil
}

func newTestService(roster *SupplierRoster, store *fakePaymentStore) PaymentImportService {
	return NewPaymentImportService(
		processors.NewPaymentReconciler(),
		&fakeRosterProvider{roster: roster},
		store,
	)
}

func testRoster(names ...string) *SupplierRoster {
	suppliers := make([]models.Supplier, len(names))
	for i, name := range names {
		suppliers[i] = models.Supplier{ID: int64(i + 1), BusinessID: 10, Name: name}
	}
	return NewSupplierRoster(suppliers)
}

func TestImportBlockedOnUnmatchedSupplier(t *testing.T) {
	store := &fakePaymentStore{failAfter: -1}
	svc := newTestService(testRoster("מוסך הצפון"), store)

	payments := []models.MergedPayment{
		{SupplierName: "מוסך הצפון", PaymentDate: "2025-01-15", TotalAmount: 100,
			Splits: []models.ParsedSplit{{PaymentMethod: paymentcsv.MethodCash, Amount: 100}}},
		{SupplierName: "ספק זר", PaymentDate: "2025-01-16", TotalAmount: 50,
			Splits: []models.ParsedSplit{{PaymentMethod: paymentcsv.MethodCash, Amount: 50}}},
	}

	_, err := svc.Import(context.Background(), 10, 1, payments)
	if !errors.Is(err, ErrUnmatchedSuppliers) {
		t.Fatalf("err = %v, want ErrUnmatchedSuppliers", err)
	}
	if !strings.Contains(err.Error(), "ספק זר") {
		t.Errorf("err %q should name the unmatched supplier", err)
	}
	if len(store.stored) != 0 {
		t.Fatalf("stored = %d payments, want zero writes when the import is blocked", len(store.stored))
	}
}

func TestImportPersistsAllPayments(t *testing.T) {
	store := &fakePaymentStore{failAfter: -1}
	svc := newTestService(testRoster("מוסך הצפון", "דפוס אור"), store)

	payments := []models.MergedPayment{
		{SupplierName: "מוסך הצפון", PaymentDate: "2025-01-15", TotalAmount: 100,
			Splits: []models.ParsedSplit{{PaymentMethod: paymentcsv.MethodCash, Amount: 100, InstallmentNumber: 1, InstallmentsCount: 1}}},
		{SupplierName: "דפוס אור", PaymentDate: "2025-01-20", TotalAmount: 500,
			Splits: []models.ParsedSplit{
				{PaymentMethod: paymentcsv.MethodCreditCard, Amount: 250, InstallmentNumber: 1, InstallmentsCount: 2},
				{PaymentMethod: paymentcsv.MethodCreditCard, Amount: 250, InstallmentNumber: 2, InstallmentsCount: 2},
			}},
	}

	result, err := svc.Import(context.Background(), 10, 7, payments)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if result.InsertedPayments != 2 || result.InsertedSplits != 3 {
		t.Errorf("result = %+v, want 2 payments and 3 splits", result)
	}
	if result.Message == "" {
		t.Error("result message should describe the completed import")
	}
	if len(store.stored) != 2 {
		t.Fatalf("stored = %d, want 2", len(store.stored))
	}

	first := store.stored[0].record
	if first.SupplierID != 1 || first.BusinessID != 10 || first.CreatedBy != 7 {
		t.Errorf("first stored record = %+v", first)
	}
}

func TestImportHaltsOnFirstWriteError(t *testing.T) {
	store := &fakePaymentStore{failAfter: 1}
	svc := newTestService(testRoster("מוסך הצפון", "דפוס אור", "חשמל כהן"), store)

	payments := []models.MergedPayment{
		{SupplierName: "מוסך הצפון", PaymentDate: "2025-01-15", TotalAmount: 100,
			Splits: []models.ParsedSplit{{PaymentMethod: paymentcsv.MethodCash, Amount: 100}}},
		{SupplierName: "דפוס אור", PaymentDate: "2025-01-16", TotalAmount: 200,
			Splits: []models.ParsedSplit{{PaymentMethod: paymentcsv.MethodCash, Amount: 200}}},
		{SupplierName: "חשמל כהן", PaymentDate: "2025-01-17", TotalAmount: 300,
			Splits: []models.ParsedSplit{{PaymentMethod: paymentcsv.MethodCash, Amount: 300}}},
	}

	result, err := svc.Import(context.Background(), 10, 1, payments)
	if err == nil {
		t.Fatal("expected an error when the store fails")
	}
	if result == nil {
		t.Fatal("expected a partial result alongside the error")
	}
	if result.InsertedPayments != 1 {
		t.Errorf("inserted payments = %d, want 1 before the halt", result.InsertedPayments)
	}
	if result.FailedSupplier != "דפוס אור" {
		t.Errorf("failed supplier = %q, want the supplier of the failing payment", result.FailedSupplier)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored = %d, want the run halted after the first success", len(store.stored))
	}
}

func TestImportFiltersMalformedCreditCardID(t *testing.T) {
	store := &fakePaymentStore{failAfter: -1}
	svc := newTestService(testRoster("מוסך הצפון"), store)

	const validID = "7f9c24e5-2f31-4a0b-bd3e-5de3462913f4"
	payments := []models.MergedPayment{
		{SupplierName: "מוסך הצפון", PaymentDate: "2025-01-15", TotalAmount: 300,
			Splits: []models.ParsedSplit{
				{PaymentMethod: paymentcsv.MethodCreditCard, Amount: 100, CreditCardID: validID},
				{PaymentMethod: paymentcsv.MethodCreditCard, Amount: 200, CreditCardID: "not-a-uuid"},
			}},
	}

	if _, err := svc.Import(context.Background(), 10, 1, payments); err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	splits := store.stored[0].splits
	if splits[0].CreditCardID != validID {
		t.Errorf("valid credit card id was dropped: %+v", splits[0])
	}
	if splits[1].CreditCardID != "" {
		t.Errorf("malformed credit card id should be cleared, got %q", splits[1].CreditCardID)
	}
}

func TestReconcileEndToEnd(t *testing.T) {
	store := &fakePaymentStore{failAfter: -1}
	svc := newTestService(testRoster("מוסך הצפון"), store)

	mainCSV := "ספק,תאריך תשלום,סכום,אמצעי תשלום\nמוסך הצפון,15/01/2025,₪350,מזומן\nספק זר,16/01/2025,100,ביט\n"
	subCSV := "ספק,מזהה אב,סכום,תאריך פרעון\nספק בלי שורה ראשית,,0,\n"

	output, err := svc.Reconcile(strings.NewReader(mainCSV), strings.NewReader(subCSV), 10)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	if len(output.Payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(output.Payments))
	}
	if output.Summary.PaymentCount != 2 {
		t.Errorf("summary payment count = %d, want 2", output.Summary.PaymentCount)
	}
	if len(output.Summary.UnmatchedSuppliers) != 1 || output.Summary.UnmatchedSuppliers[0] != "ספק זר" {
		t.Errorf("unmatched = %v, want just the foreign supplier", output.Summary.UnmatchedSuppliers)
	}
	if output.Warnings == nil {
		t.Error("warnings should be an empty slice, not nil")
	}
	if len(store.stored) != 0 {
		t.Fatal("reconcile must not write anything")
	}
}

func TestReconcileRejectsEmptyFile(t *testing.T) {
	svc := newTestService(testRoster(), &fakePaymentStore{failAfter: -1})

	_, err := svc.Reconcile(strings.NewReader("ספק,סכום\n"), strings.NewReader("ספק,סכום\nx,1\n"), 10)
	if !errors.Is(err, ErrParsingFailed) {
		t.Fatalf("err = %v, want ErrParsingFailed", err)
	}
}
