package validation

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestValidateClientContentType(t *testing.T) {
	allowed := []string{"text/csv", "application/csv", "text/plain", "application/vnd.ms-excel"}
	for _, ct := range allowed {
		if err := ValidateClientContentType(ct); err != nil {
			t.Errorf("ValidateClientContentType(%q) = %v, want nil", ct, err)
		}
	}

	disallowed := []string{"application/pdf", "image/png", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ""}
	for _, ct := range disallowed {
		if err := ValidateClientContentType(ct); err == nil {
			t.Errorf("ValidateClientContentType(%q) = nil, want error", ct)
		}
	}
}

func TestValidateFileContentCSV(t *testing.T) {
	reader := strings.NewReader("ספק,סכום\nמוסך הצפון,100\n")
	detected, err := ValidateFileContentByMagicBytes(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detected != "text/plain" && detected != "text/csv" {
		t.Errorf("detected type = %q", detected)
	}

	// The reader must be reset so the parser can read from the start.
	rest, _ := io.ReadAll(reader)
	if !strings.HasPrefix(string(rest), "ספק") {
		t.Error("read pointer was not reset to the start of the file")
	}
}

func TestValidateFileContentRejectsBinary(t *testing.T) {
	payload := append([]byte{0x7F, 'E', 'L', 'F', 0x00, 0x00}, []byte("rest of binary")...)
	if _, err := ValidateFileContentByMagicBytes(bytes.NewReader(payload)); err == nil {
		t.Fatal("expected binary content to be rejected")
	}
}

func TestValidateFileContentRejectsEmpty(t *testing.T) {
	if _, err := ValidateFileContentByMagicBytes(strings.NewReader("")); err == nil {
		t.Fatal("expected an empty file to be rejected")
	}
}

func TestValidateFileContentLargeHebrewFile(t *testing.T) {
	// A file longer than the 1KB sniff window whose 1024th byte may land in
	// the middle of a multi-byte rune.
	var sb strings.Builder
	sb.WriteString("ספק,סכום\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("מאפיית הדגן והשקד,1180.50\n")
	}
	if _, err := ValidateFileContentByMagicBytes(strings.NewReader(sb.String())); err != nil {
		t.Fatalf("unexpected error for a large Hebrew CSV: %v", err)
	}
}
