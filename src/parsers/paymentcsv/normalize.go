// backend/src/parsers/paymentcsv/normalize.go
package paymentcsv

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical payment methods. ResolveMethod maps free text onto these;
// anything unrecognized becomes MethodOther.
const (
	MethodBankTransfer  = "bank_transfer"
	MethodCash          = "cash"
	MethodCheck         = "check"
	MethodBit           = "bit"
	MethodPaybox        = "paybox"
	MethodCreditCard    = "credit_card"
	MethodCreditCompany = "credit_company"
	MethodStandingOrder = "standing_order"
	MethodOther         = "other"
)

// methodAliases maps lower-cased free text to a canonical method. Canonical
// names map to themselves so resolution is idempotent.
var methodAliases = map[string]string{
	MethodBankTransfer:  MethodBankTransfer,
	MethodCash:          MethodCash,
	MethodCheck:         MethodCheck,
	MethodBit:           MethodBit,
	MethodPaybox:        MethodPaybox,
	MethodCreditCard:    MethodCreditCard,
	MethodCreditCompany: MethodCreditCompany,
	MethodStandingOrder: MethodStandingOrder,
	MethodOther:         MethodOther,

	"העברה בנקאית": MethodBankTransfer,
	"העברה":        MethodBankTransfer,
	"bank transfer": MethodBankTransfer,
	"transfer":      MethodBankTransfer,
	"wire":          MethodBankTransfer,

	"מזומן": MethodCash,

	"צ'ק":    MethodCheck,
	"שיק":    MethodCheck,
	"צק":     MethodCheck,
	"cheque": MethodCheck,

	"ביט": MethodBit,

	"פייבוקס": MethodPaybox,
	"pay box":  MethodPaybox,

	"כרטיס אשראי": MethodCreditCard,
	"אשראי":       MethodCreditCard,
	"credit card": MethodCreditCard,
	"card":        MethodCreditCard,

	"חברת אשראי":    MethodCreditCompany,
	"credit company": MethodCreditCompany,

	"הוראת קבע":      MethodStandingOrder,
	"standing order": MethodStandingOrder,

	"אחר": MethodOther,
}

// ResolveMethod maps free payment-method text to a canonical method, trying
// the raw string first and then its lower-cased form. Unrecognized text maps
// to MethodOther; the method is often optional metadata, so this is the
// universal fallback rather than an error.
func ResolveMethod(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return MethodOther
	}
	if method, ok := methodAliases[trimmed]; ok {
		return method
	}
	if method, ok := methodAliases[strings.ToLower(trimmed)]; ok {
		return method
	}
	return MethodOther
}

var trailingTimeRe = regexp.MustCompile(`[ T]\d{1,2}:\d{2}(:\d{2})?$`)

// ParseDate accepts D/M/YYYY, D-M-YYYY, D.M.YYYY and YYYY-M-D (with `.`/`/`
// separator variants), with an optional trailing time-of-day that is stripped
// before matching. It returns a canonical "YYYY-MM-DD" string, or "" for
// unparseable input. Dates are calendar dates; there is no timezone handling.
func ParseDate(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	s = trailingTimeRe.ReplaceAllString(s, "")

	// Normalize every supported separator to a dash.
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ".", "-")

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return ""
	}

	var layout string
	if len(parts[0]) == 4 {
		layout = "2006-1-2"
	} else {
		layout = "2-1-2006"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

var amountStripper = strings.NewReplacer("₪", "", "$", "", "€", "", ",", "", " ", "", "\u00A0", "")

// ParseAmount strips currency symbols, thousands separators and whitespace
// and parses the remainder as a float. Empty or unparseable input yields 0;
// callers reject rows by checking for amount <= 0, not by error.
func ParseAmount(text string) float64 {
	cleaned := amountStripper.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// ParseIntField parses a positive integer column (installment counters).
// Anything unparseable or non-positive yields 0 so callers can default it.
func ParseIntField(text string) int {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return 0
	}
	value, err := strconv.Atoi(cleaned)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
