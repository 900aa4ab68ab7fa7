// backend/src/services/supplier_import_service.go
package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/asakim/backend/src/database"
	"github.com/username/asakim/backend/src/logger"
	"github.com/username/asakim/backend/src/parsers/paymentcsv"
	"github.com/username/asakim/backend/src/security/validation"
)

type supplierImportServiceImpl struct {
	rosters RosterProvider
}

func NewSupplierImportService(rosters RosterProvider) SupplierImportService {
	return &supplierImportServiceImpl{rosters: rosters}
}

// ImportSuppliers loads a single-column (or wider) supplier CSV into the
// business roster. Names already present, compared case-insensitively, are
// skipped; the roster snapshot is invalidated on any change.
func (s *supplierImportServiceImpl) ImportSuppliers(file io.Reader, businessID int64) (*SupplierImportResult, error) {
	parsed, err := paymentcsv.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: suppliers file: %v", ErrParsingFailed, err)
	}

	acc := paymentcsv.BuildAccessor(parsed.Headers, paymentcsv.MainFileAliases)

	roster, err := s.rosters.GetRoster(businessID)
	if err != nil {
		return nil, err
	}

	result := &SupplierImportResult{}
	seen := make(map[string]bool)
	for _, row := range parsed.Rows {
		name := acc.Get(row, paymentcsv.FieldSupplierName)
		if name == "" && len(row) > 0 {
			// Tolerate headerless single-column exports: fall back to the
			// first cell when no supplier column mapped.
			if !acc.Has(paymentcsv.FieldSupplierName) {
				name = strings.TrimSpace(row[0])
			}
		}
		if name == "" {
			continue
		}
		name = validation.SanitizeText(name)

		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		if _, exists := roster.Match(name); exists {
			result.Skipped++
			continue
		}

		_, err := database.DB.Exec(`
			INSERT INTO suppliers (business_id, name) VALUES (?, ?)`,
			businessID, name,
		)
		if err != nil {
			return result, fmt.Errorf("error inserting supplier %q: %w", name, err)
		}
		result.Inserted++
		result.Names = append(result.Names, name)
	}

	if result.Inserted > 0 {
		s.rosters.Invalidate(businessID)
	}
	logger.L.Info("Supplier import finished", "businessID", businessID, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}
