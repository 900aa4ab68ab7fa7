// backend/src/handlers/supplier_import_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/username/asakim/backend/src/config"
	"github.com/username/asakim/backend/src/logger"
	"github.com/username/asakim/backend/src/services"
	"github.com/username/asakim/backend/src/utils"
)

// SupplierImportHandler uploads a business's supplier roster from a CSV.
// Operators run it before payment import so supplier matching can succeed.
type SupplierImportHandler struct {
	importService services.SupplierImportService
}

func NewSupplierImportHandler(importService services.SupplierImportService) *SupplierImportHandler {
	return &SupplierImportHandler{importService: importService}
}

func (h *SupplierImportHandler) HandleImportSuppliers(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Supplier import: failed to parse multipart form", "error", err)
		utils.SendJSONError(w, "הקובץ גדול מדי או שהבקשה אינה תקינה", http.StatusBadRequest)
		return
	}

	businessID, err := strconv.ParseInt(r.FormValue("business_id"), 10, 64)
	if err != nil || businessID <= 0 {
		utils.SendJSONError(w, "יש לבחור עסק", http.StatusBadRequest)
		return
	}

	file, err := openValidatedCSV(r, "file")
	if err != nil {
		ctxLogger.Warn("Supplier import: file rejected", "error", err)
		utils.SendJSONError(w, "קובץ הספקים חסר או אינו קובץ CSV תקין", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.importService.ImportSuppliers(file, businessID)
	if err != nil {
		if errors.Is(err, services.ErrBusinessNotFound) {
			utils.SendJSONError(w, "העסק המבוקש לא נמצא", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Supplier import failed", "businessID", businessID, "error", err)
		utils.SendJSONError(w, "ייבוא הספקים נכשל", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Suppliers imported", "businessID", businessID, "inserted", result.Inserted, "skipped", result.Skipped)
	utils.SendJSON(w, result, http.StatusOK)
}
