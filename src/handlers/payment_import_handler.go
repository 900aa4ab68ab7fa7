// backend/src/handlers/payment_import_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/username/asakim/backend/src/config"
	"github.com/username/asakim/backend/src/logger"
	"github.com/username/asakim/backend/src/models"
	"github.com/username/asakim/backend/src/security/validation"
	"github.com/username/asakim/backend/src/services"
	"github.com/username/asakim/backend/src/utils"
)

// PaymentImportHandler exposes the two-step payment flow: reconcile the two
// uploaded CSV exports into a preview, then import an operator-approved list.
type PaymentImportHandler struct {
	importService services.PaymentImportService
}

func NewPaymentImportHandler(importService services.PaymentImportService) *PaymentImportHandler {
	return &PaymentImportHandler{importService: importService}
}

// openValidatedCSV pulls one multipart file field and runs the client
// content-type and magic-byte checks before handing the reader on.
func openValidatedCSV(r *http.Request, field string) (multipart.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateClientContentType(header.Header.Get("Content-Type")); err != nil {
		file.Close()
		return nil, err
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

// HandleReconcile takes business_id, main_file and sub_file as multipart form
// data and returns the merged payments with their summary. Nothing is written.
func (h *PaymentImportHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Reconcile: failed to parse multipart form", "error", err)
		utils.SendJSONError(w, "הקבצים גדולים מדי או שהבקשה אינה תקינה", http.StatusBadRequest)
		return
	}

	businessID, err := strconv.ParseInt(r.FormValue("business_id"), 10, 64)
	if err != nil || businessID <= 0 {
		utils.SendJSONError(w, "יש לבחור עסק", http.StatusBadRequest)
		return
	}

	mainFile, err := openValidatedCSV(r, "main_file")
	if err != nil {
		ctxLogger.Warn("Reconcile: main file rejected", "error", err)
		utils.SendJSONError(w, "קובץ התשלומים הראשי חסר או אינו קובץ CSV תקין", http.StatusBadRequest)
		return
	}
	defer mainFile.Close()

	subFile, err := openValidatedCSV(r, "sub_file")
	if err != nil {
		ctxLogger.Warn("Reconcile: sub-payments file rejected", "error", err)
		utils.SendJSONError(w, "קובץ תתי-התשלומים חסר או אינו קובץ CSV תקין", http.StatusBadRequest)
		return
	}
	defer subFile.Close()

	output, err := h.importService.Reconcile(mainFile, subFile, businessID)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			ctxLogger.Warn("Reconcile: parsing failed", "businessID", businessID, "error", err)
			utils.SendJSONError(w, "לא ניתן לקרוא את הקבצים. יש לוודא שמדובר בקובצי CSV תקינים", http.StatusBadRequest)
			return
		}
		if errors.Is(err, services.ErrBusinessNotFound) {
			utils.SendJSONError(w, "העסק המבוקש לא נמצא", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Reconcile failed", "businessID", businessID, "error", err)
		utils.SendJSONError(w, "עיבוד הקבצים נכשל", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, output, http.StatusOK)
}

// HandleImport persists a reconciled payment list the operator approved in the
// preview step. The body is JSON, not a re-upload of the CSV files.
func (h *PaymentImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		BusinessID int64                  `json:"business_id"`
		Payments   []models.MergedPayment `json:"payments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.BusinessID <= 0 {
		utils.SendJSONError(w, "יש לבחור עסק", http.StatusBadRequest)
		return
	}
	if len(payload.Payments) == 0 {
		utils.SendJSONError(w, "אין תשלומים לייבוא", http.StatusBadRequest)
		return
	}

	result, err := h.importService.Import(r.Context(), payload.BusinessID, userID, payload.Payments)
	if err != nil {
		if errors.Is(err, services.ErrBusinessNotFound) {
			utils.SendJSONError(w, "העסק המבוקש לא נמצא", http.StatusNotFound)
			return
		}
		if errors.Is(err, services.ErrUnmatchedSuppliers) {
			ctxLogger.Warn("Import rejected: unmatched suppliers", "businessID", payload.BusinessID, "error", err)
			utils.SendJSONError(w, "לא ניתן לייבא: קיימים ספקים שאינם ברשימת הספקים של העסק. יש לייבא את הספקים תחילה.", http.StatusUnprocessableEntity)
			return
		}
		ctxLogger.Error("Import halted", "businessID", payload.BusinessID, "error", err)
		// The run may have written part of the list before halting; return
		// the partial result so the operator knows what landed.
		if result != nil {
			utils.SendJSON(w, result, http.StatusInternalServerError)
			return
		}
		utils.SendJSONError(w, "הייבוא נכשל", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}
