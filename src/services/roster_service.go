// backend/src/services/roster_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/asakim/backend/src/database"
	"github.com/username/asakim/backend/src/logger"
	"github.com/username/asakim/backend/src/models"
)

const (
	ckSupplierRoster       = "roster_business_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// SupplierRoster is an immutable in-memory snapshot of a business's supplier
// list, held for the duration of one reconciliation session. Lookups are
// case-insensitive exact-name matches.
type SupplierRoster struct {
	byName map[string]models.Supplier
}

// NewSupplierRoster builds a roster snapshot from a supplier list. When two
// suppliers collide on a case-folded name, the first one wins.
func NewSupplierRoster(suppliers []models.Supplier) *SupplierRoster {
	byName := make(map[string]models.Supplier, len(suppliers))
	for _, s := range suppliers {
		key := foldName(s.Name)
		if _, taken := byName[key]; !taken {
			byName[key] = s
		}
	}
	return &SupplierRoster{byName: byName}
}

// Match resolves a free-text supplier name against the roster.
func (r *SupplierRoster) Match(name string) (models.Supplier, bool) {
	s, ok := r.byName[foldName(name)]
	return s, ok
}

// Len returns the number of distinct suppliers in the snapshot.
func (r *SupplierRoster) Len() int {
	return len(r.byName)
}

// Suppliers returns the snapshot's suppliers sorted by name.
func (r *SupplierRoster) Suppliers() []models.Supplier {
	out := make([]models.Supplier, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UnmatchedSuppliers returns the distinct payment supplier names that do not
// resolve against the roster, in first-appearance order.
func UnmatchedSuppliers(payments []models.MergedPayment, roster *SupplierRoster) []string {
	var unmatched []string
	seen := make(map[string]bool)
	for _, p := range payments {
		key := foldName(p.SupplierName)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := roster.Match(p.SupplierName); !ok {
			unmatched = append(unmatched, p.SupplierName)
		}
	}
	return unmatched
}

// RosterService loads supplier rosters from the database and caches one
// snapshot per business. Switching the selected business simply reads a
// different key; importing suppliers invalidates the cached snapshot.
type RosterService struct {
	rosterCache *cache.Cache
}

func NewRosterService(rosterCache *cache.Cache) *RosterService {
	return &RosterService{rosterCache: rosterCache}
}

// GetRoster returns the cached snapshot for a business, loading it from the
// database on a miss. An unknown business id is ErrBusinessNotFound, distinct
// from a business that simply has no suppliers yet.
func (s *RosterService) GetRoster(businessID int64) (*SupplierRoster, error) {
	cacheKey := fmt.Sprintf(ckSupplierRoster, businessID)
	if cached, found := s.rosterCache.Get(cacheKey); found {
		return cached.(*SupplierRoster), nil
	}

	var one int
	err := database.DB.QueryRow(`SELECT 1 FROM businesses WHERE id = ?`, businessID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrBusinessNotFound, businessID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up business %d: %w", businessID, err)
	}

	suppliers, err := s.loadSuppliers(businessID)
	if err != nil {
		return nil, err
	}
	roster := NewSupplierRoster(suppliers)
	s.rosterCache.Set(cacheKey, roster, DefaultCacheExpiration)
	logger.L.Debug("Supplier roster loaded", "businessID", businessID, "suppliers", roster.Len())
	return roster, nil
}

// Invalidate drops the cached snapshot for a business.
func (s *RosterService) Invalidate(businessID int64) {
	s.rosterCache.Delete(fmt.Sprintf(ckSupplierRoster, businessID))
}

func (s *RosterService) loadSuppliers(businessID int64) ([]models.Supplier, error) {
	rows, err := database.DB.Query(`
		SELECT id, business_id, name
		FROM suppliers
		WHERE business_id = ? AND deleted_at IS NULL
		ORDER BY id`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers for business %d: %w", businessID, err)
	}
	defer rows.Close()

	var suppliers []models.Supplier
	for rows.Next() {
		var supplier models.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.BusinessID, &supplier.Name); err != nil {
			return nil, fmt.Errorf("failed to scan supplier row: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate supplier rows: %w", err)
	}
	return suppliers, nil
}

// ListBusinesses returns all tenant businesses, for the operator's business
// selector.
func ListBusinesses() ([]models.Business, error) {
	rows, err := database.DB.Query(`SELECT id, name FROM businesses ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load businesses: %w", err)
	}
	defer rows.Close()

	var businesses []models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan business row: %w", err)
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

// ListInvoices returns the invoices of a business, read-only reference data
// for the operator preview.
func ListInvoices(businessID int64) ([]models.Invoice, error) {
	rows, err := database.DB.Query(`
		SELECT i.id, i.invoice_number, i.supplier_id, i.total_amount
		FROM invoices i
		JOIN suppliers s ON s.id = i.supplier_id
		WHERE s.business_id = ? AND i.deleted_at IS NULL
		ORDER BY i.id`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for business %d: %w", businessID, err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.SupplierID, &inv.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}
