// backend/src/parsers/paymentcsv/parser_test.go
package paymentcsv

import (
	"strings"
	"testing"
)

func TestParseCommaDelimited(t *testing.T) {
	input := "ספק,סכום\nמוסך הצפון,100\nדפוס אור,250\n"
	parsed, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(parsed.Headers) != 2 {
		t.Fatalf("headers = %d, want 2", len(parsed.Headers))
	}
	if len(parsed.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(parsed.Rows))
	}
	if parsed.Rows[0][0] != "מוסך הצפון" {
		t.Errorf("first cell = %q, want %q", parsed.Rows[0][0], "מוסך הצפון")
	}
}

func TestParseTabDelimited(t *testing.T) {
	input := "ספק\tסכום\nמוסך הצפון\t100\n"
	parsed, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(parsed.Headers) != 2 {
		t.Fatalf("headers = %v, want 2 columns", parsed.Headers)
	}
	if parsed.Rows[0][1] != "100" {
		t.Errorf("amount cell = %q, want %q", parsed.Rows[0][1], "100")
	}
}

func TestParseStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFספק,סכום\nמוסך הצפון,100\n"
	parsed, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if parsed.Headers[0] != "ספק" {
		t.Errorf("first header = %q, want %q without BOM", parsed.Headers[0], "ספק")
	}
}

func TestParseSkipsBlankRows(t *testing.T) {
	input := "ספק,סכום\nמוסך הצפון,100\n,\n  ,  \nדפוס אור,250\n"
	parsed, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(parsed.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 after skipping blanks", len(parsed.Rows))
	}
}

func TestParseHeaderOnlyFails(t *testing.T) {
	input := "ספק,סכום\n"
	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for a file with no data rows")
	}
}

func TestParseVariableFieldCounts(t *testing.T) {
	input := "ספק,סכום,הערות\nמוסך הצפון,100\nדפוס אור,250,דחוף,עמודה עודפת\n"
	parsed, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(parsed.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(parsed.Rows))
	}
}
