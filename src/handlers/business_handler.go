// backend/src/handlers/business_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/asakim/backend/src/logger"
	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/services"
	"github.com/username/asakim/backend/src/utils"
)

// BusinessHandler serves the read-only tenant data the operator UI needs:
// the business selector and the per-business supplier and invoice lists.
type BusinessHandler struct {
	rosters *services.RosterService
}

func NewBusinessHandler(rosters *services.RosterService) *BusinessHandler {
	return &BusinessHandler{rosters: rosters}
}

func businessIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
}

func (h *BusinessHandler) HandleListBusinesses(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	businesses, err := services.ListBusinesses()
	if err != nil {
		ctxLogger.Error("Failed to list businesses", "error", err)
		utils.SendJSONError(w, "Failed to list businesses", http.StatusInternalServerError)
		return
	}
	if businesses == nil {
		businesses = []models.Business{}
	}
	utils.SendJSON(w, businesses, http.StatusOK)
}

func (h *BusinessHandler) HandleListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	businessID, err := businessIDFromURL(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid business ID", http.StatusBadRequest)
		return
	}

	roster, err := h.rosters.GetRoster(businessID)
	if err != nil {
		if errors.Is(err, services.ErrBusinessNotFound) {
			utils.SendJSONError(w, "העסק המבוקש לא נמצא", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Failed to load supplier roster", "businessID", businessID, "error", err)
		utils.SendJSONError(w, "Failed to load suppliers", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]any{
		"business_id": businessID,
		"suppliers":   roster.Suppliers(),
		"count":       roster.Len(),
	}, http.StatusOK)
}

func (h *BusinessHandler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	businessID, err := businessIDFromURL(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid business ID", http.StatusBadRequest)
		return
	}

	invoices, err := services.ListInvoices(businessID)
	if err != nil {
		ctxLogger.Error("Failed to list invoices", "businessID", businessID, "error", err)
		utils.SendJSONError(w, "Failed to list invoices", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, invoices, http.StatusOK)
}
