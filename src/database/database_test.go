// backend/src/database/database_test.go
package database

import (
	"strings"
	"testing"
)

func TestDSNCarriesAllPragmas(t *testing.T) {
	got := dsn("./asakim.db")

	if !strings.HasPrefix(got, "./asakim.db?") {
		t.Fatalf("dsn = %q, want it rooted at the database path", got)
	}
	for _, pragma := range []string{"journal_mode(WAL)", "busy_timeout(5000)", "foreign_keys(on)"} {
		if !strings.Contains(got, "_pragma="+pragma) {
			t.Errorf("dsn = %q, missing pragma %q", got, pragma)
		}
	}
}
