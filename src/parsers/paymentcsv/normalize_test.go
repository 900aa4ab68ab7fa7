// backend/src/parsers/paymentcsv/normalize_test.go
package paymentcsv

import "testing"

func TestResolveMethod(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"hebrew bank transfer", "העברה בנקאית", MethodBankTransfer},
		{"hebrew short transfer", "העברה", MethodBankTransfer},
		{"hebrew cash", "מזומן", MethodCash},
		{"hebrew check with apostrophe", "צ'ק", MethodCheck},
		{"hebrew check variant", "שיק", MethodCheck},
		{"hebrew bit", "ביט", MethodBit},
		{"hebrew credit card", "כרטיס אשראי", MethodCreditCard},
		{"hebrew credit company", "חברת אשראי", MethodCreditCompany},
		{"hebrew standing order", "הוראת קבע", MethodStandingOrder},
		{"english mixed case", "Bank Transfer", MethodBankTransfer},
		{"surrounding whitespace", "  מזומן  ", MethodCash},
		{"canonical is idempotent", MethodCreditCard, MethodCreditCard},
		{"empty falls back to other", "", MethodOther},
		{"unknown falls back to other", "שובר מתנה", MethodOther},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveMethod(tc.input); got != tc.expected {
				t.Errorf("ResolveMethod(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestResolveMethodIdempotentForAllCanonicals(t *testing.T) {
	canonicals := []string{
		MethodBankTransfer, MethodCash, MethodCheck, MethodBit, MethodPaybox,
		MethodCreditCard, MethodCreditCompany, MethodStandingOrder, MethodOther,
	}
	for _, method := range canonicals {
		if got := ResolveMethod(method); got != method {
			t.Errorf("ResolveMethod(%q) = %q, want it unchanged", method, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"slash day first", "15/01/2025", "2025-01-15"},
		{"dot day first", "15.01.2025", "2025-01-15"},
		{"dash day first", "15-01-2025", "2025-01-15"},
		{"single digit day and month", "5/1/2025", "2025-01-05"},
		{"iso year first", "2025-01-15", "2025-01-15"},
		{"iso single digits", "2025-1-5", "2025-01-05"},
		{"iso with slash", "2025/01/15", "2025-01-15"},
		{"trailing time stripped", "2025-01-15 22:12", "2025-01-15"},
		{"trailing time with seconds", "15/01/2025 08:30:45", "2025-01-15"},
		{"t separator time", "2025-01-15T09:05", "2025-01-15"},
		{"empty", "", ""},
		{"garbage", "מחר בבוקר", ""},
		{"impossible month", "15/13/2025", ""},
		{"two parts only", "01/2025", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseDate(tc.input); got != tc.expected {
				t.Errorf("ParseDate(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
	}{
		{"plain", "1180.50", 1180.50},
		{"shekel symbol and thousands separator", "₪1,180.50", 1180.50},
		{"internal space", "1 234.5", 1234.5},
		{"integer", "250", 250},
		{"empty yields zero", "", 0},
		{"garbage yields zero", "abc", 0},
		{"currency only yields zero", "₪", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseAmount(tc.input); got != tc.expected {
				t.Errorf("ParseAmount(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseIntField(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
	}{
		{"3", 3},
		{" 12 ", 12},
		{"", 0},
		{"-2", 0},
		{"abc", 0},
	}

	for _, tc := range testCases {
		if got := ParseIntField(tc.input); got != tc.expected {
			t.Errorf("ParseIntField(%q) = %d, want %d", tc.input, got, tc.expected)
		}
	}
}
