// backend/src/parsers/paymentcsv/headers.go
package paymentcsv

import "strings"

// Field is a canonical column name. The two uploaded files each carry their
// own set of localized headers which are resolved to these names.
type Field string

// Canonical fields of the main payments file.
const (
	FieldSupplierName      Field = "supplier_name"
	FieldBusinessName      Field = "business_name"
	FieldUniqueID          Field = "unique_id"
	FieldPaymentDate       Field = "payment_date"
	FieldReceivedDate      Field = "received_date"
	FieldExpenseType       Field = "expense_type"
	FieldPaymentMethod     Field = "payment_method"
	FieldSplitAmount       Field = "split_amount"
	FieldInstallmentsCount Field = "installments_count"
	FieldInstallmentNumber Field = "installment_number"
	FieldCheckNumber       Field = "check_number"
	FieldReferenceNumber   Field = "reference_number"
	FieldNotes             Field = "notes"
	FieldImages            Field = "images"
	FieldIsPaid            Field = "is_paid"
)

// Canonical fields specific to the sub-payments (installments) file.
const (
	FieldParentID     Field = "parent_id"
	FieldAmount       Field = "amount"
	FieldCreditCardID Field = "credit_card_id"
	FieldBank         Field = "bank"
)

// MainFileAliases maps each canonical field of the main payments file to the
// literal header strings accepted for it, Hebrew and English variants both.
var MainFileAliases = map[Field][]string{
	FieldSupplierName:      {"ספק", "שם ספק", "שם הספק", "supplier", "supplier name", "supplier_name"},
	FieldBusinessName:      {"עסק", "שם עסק", "שם העסק", "business", "business name", "business_name"},
	FieldUniqueID:          {"מזהה", "מזהה ייחודי", "מספר מזהה", "id", "unique id", "unique_id"},
	FieldPaymentDate:       {"תאריך תשלום", "תאריך התשלום", "תאריך", "payment date", "payment_date", "date"},
	FieldReceivedDate:      {"תאריך קבלה", "תאריך קבלת חשבונית", "received date", "received_date"},
	FieldExpenseType:       {"סוג הוצאה", "סוג ההוצאה", "expense type", "expense_type"},
	FieldPaymentMethod:     {"אמצעי תשלום", "צורת תשלום", "אופן תשלום", "payment method", "payment_method", "method"},
	FieldSplitAmount:       {"סכום", "סכום תשלום", "סכום לתשלום", "amount", "split amount", "split_amount"},
	FieldInstallmentsCount: {"מספר תשלומים", "מס' תשלומים", "תשלומים", "installments", "installments count", "installments_count"},
	FieldInstallmentNumber: {"תשלום מספר", "מספר תשלום", "installment", "installment number", "installment_number"},
	FieldCheckNumber:       {"מספר צ'ק", "מס' צ'ק", "מספר שיק", "check number", "check_number"},
	FieldReferenceNumber:   {"אסמכתא", "מספר אסמכתא", "מס' אסמכתא", "reference", "reference number", "reference_number"},
	FieldNotes:             {"הערות", "הערה", "notes", "note"},
	FieldImages:            {"תמונות", "קבלה", "קבלות", "images", "receipt", "receipts"},
	FieldIsPaid:            {"שולם", "האם שולם", "paid", "is paid", "is_paid"},
}

// SubFileAliases maps each canonical field of the sub-payments file to its
// accepted header strings.
var SubFileAliases = map[Field][]string{
	FieldSupplierName:      {"ספק", "שם ספק", "שם הספק", "supplier", "supplier name", "supplier_name"},
	FieldBusinessName:      {"עסק", "שם עסק", "שם העסק", "business", "business name", "business_name"},
	FieldParentID:          {"מזהה אב", "מזהה הורה", "מזהה תשלום", "parent id", "parent_id", "payment id", "payment_id"},
	FieldPaymentDate:       {"תאריך תשלום", "תאריך פרעון", "תאריך", "payment date", "payment_date", "due date", "due_date", "date"},
	FieldPaymentMethod:     {"אמצעי תשלום", "צורת תשלום", "אופן תשלום", "payment method", "payment_method", "method"},
	FieldAmount:            {"סכום", "סכום תשלום", "amount"},
	FieldInstallmentNumber: {"תשלום מספר", "מספר תשלום", "installment", "installment number", "installment_number"},
	FieldReferenceNumber:   {"אסמכתא", "מספר אסמכתא", "מס' אסמכתא", "reference", "reference number", "reference_number"},
	FieldCheckNumber:       {"מספר צ'ק", "מס' צ'ק", "מספר שיק", "check number", "check_number"},
	FieldCreditCardID:      {"כרטיס אשראי", "מזהה כרטיס אשראי", "credit card", "credit card id", "credit_card_id"},
	FieldBank:              {"בנק", "שם בנק", "bank"},
	FieldNotes:             {"הערות", "הערה", "notes", "note"},
}

// Accessor resolves canonical fields to column positions for one parsed file.
// Building it is pure and stateless; it must be rebuilt whenever a new file
// (and therefore a new header set) is uploaded.
type Accessor struct {
	index map[Field]int
}

// BuildAccessor walks the headers in file order and binds each one to the
// canonical field it aliases, exact match first, then case-insensitive.
// The first header claiming a field wins; headers matching no alias are
// ignored on purpose, to tolerate exports with extra operator columns.
func BuildAccessor(headers []string, aliases map[Field][]string) Accessor {
	exact := make(map[string]Field)
	folded := make(map[string]Field)
	for field, names := range aliases {
		for _, name := range names {
			if _, taken := exact[name]; !taken {
				exact[name] = field
			}
			lower := strings.ToLower(name)
			if _, taken := folded[lower]; !taken {
				folded[lower] = field
			}
		}
	}

	index := make(map[Field]int)
	for i, header := range headers {
		h := strings.TrimSpace(header)
		field, ok := exact[h]
		if !ok {
			field, ok = folded[strings.ToLower(h)]
		}
		if !ok {
			continue
		}
		if _, taken := index[field]; taken {
			continue // first occurrence wins
		}
		index[field] = i
	}
	return Accessor{index: index}
}

// Get returns the trimmed value of the canonical field in the given row, or
// an empty string when the field is unmapped or the row is short.
func (a Accessor) Get(row []string, field Field) string {
	i, ok := a.index[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Has reports whether the file's headers mapped the given canonical field.
func (a Accessor) Has(field Field) bool {
	_, ok := a.index[field]
	return ok
}
