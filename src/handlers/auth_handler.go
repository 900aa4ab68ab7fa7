// backend/src/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/username/asakim/backend/src/config"
	"github.com/username/asakim/backend/src/database"
	"github.com/username/asakim/backend/src/logger"
	"github.com/username/asakim/backend/src/model"
	"github.com/username/asakim/backend/src/security"
	"github.com/username/asakim/backend/src/security/validation"
	"github.com/username/asakim/backend/src/services"
	"github.com/username/asakim/backend/src/utils"
)

// UserHandler owns authentication, sessions and admin MFA.
type UserHandler struct {
	authService *security.AuthService
	mfaService  *services.MFAService
}

func NewUserHandler(authService *security.AuthService, mfaService *services.MFAService) *UserHandler {
	return &UserHandler{
		authService: authService,
		mfaService:  mfaService,
	}
}

// Helper function to check if an email belongs to an admin.
func isAdmin(email string) bool {
	for _, adminEmail := range config.Cfg.AdminEmails {
		if strings.EqualFold(email, adminEmail) {
			return true
		}
	}
	return false
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		MfaCode  string `json:"mfa_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Email = strings.ToLower(validation.SanitizeText(strings.TrimSpace(credentials.Email)))
	credentials.Password = strings.TrimSpace(credentials.Password)
	if credentials.Email == "" || credentials.Password == "" {
		utils.SendJSONError(w, "יש להזין דוא\"ל וסיסמה", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(database.DB, credentials.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "דוא\"ל או סיסמה שגויים", http.StatusUnauthorized)
			return
		}
		logger.L.Error("Login: failed to load user", "email", credentials.Email, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	if err := user.CheckPassword(credentials.Password); err != nil {
		logger.L.Warn("Login: wrong password", "userID", user.ID)
		utils.SendJSONError(w, "דוא\"ל או סיסמה שגויים", http.StatusUnauthorized)
		return
	}

	if user.MfaEnabled {
		if credentials.MfaCode == "" {
			utils.SendJSONError(w, "נדרש קוד אימות דו-שלבי", http.StatusUnauthorized)
			return
		}
		if !h.mfaService.ValidateToken(user.MfaSecret, credentials.MfaCode) {
			logger.L.Warn("Login: invalid MFA code", "userID", user.ID)
			utils.SendJSONError(w, "קוד אימות שגוי", http.StatusUnauthorized)
			return
		}
	}

	token, err := h.authService.GenerateToken(user.ID, config.Cfg.AccessTokenExpiry)
	if err != nil {
		logger.L.Error("Login: failed to generate token", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	session := &model.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(config.Cfg.AccessTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		logger.L.Error("Login: failed to create session", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	if err := user.RecordLogin(database.DB); err != nil {
		logger.L.Error("Login: failed to record login", "userID", user.ID, "error", err)
	}

	logger.L.Info("User logged in", "userID", user.ID, "isAdmin", isAdmin(user.Email))
	utils.SendJSON(w, map[string]any{
		"token":    token,
		"is_admin": isAdmin(user.Email),
		"username": user.Username,
	}, http.StatusOK)
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
		return
	}

	if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
		logger.L.Error("Logout: failed to delete session", "error", err)
		utils.SendJSONError(w, "Logout failed", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "התנתקת בהצלחה"}, http.StatusOK)
}

// HandleGenerateMfaSecret creates a new TOTP secret for the calling admin
// and returns it with a QR code. The secret only becomes active after
// HandleEnableMfa verifies a code against it.
func (h *UserHandler) HandleGenerateMfaSecret(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		utils.SendJSONError(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	secret, qrCode, err := h.mfaService.GenerateMFASecret(user.Username)
	if err != nil {
		logger.L.Error("Failed to generate MFA secret", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to generate MFA secret", http.StatusInternalServerError)
		return
	}
	if err := user.UpdateMfaSecret(database.DB, secret); err != nil {
		logger.L.Error("Failed to store MFA secret", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to store MFA secret", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"secret": secret, "qr_code": qrCode}, http.StatusOK)
}

// HandleEnableMfa turns MFA on after the admin proves possession of the
// secret by submitting one valid code.
func (h *UserHandler) HandleEnableMfa(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		utils.SendJSONError(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if user.MfaSecret == "" {
		utils.SendJSONError(w, "No MFA secret generated yet", http.StatusBadRequest)
		return
	}
	if !h.mfaService.ValidateToken(user.MfaSecret, payload.Code) {
		utils.SendJSONError(w, "קוד אימות שגוי", http.StatusBadRequest)
		return
	}
	if err := user.UpdateMfaEnabled(database.DB, true); err != nil {
		logger.L.Error("Failed to enable MFA", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to enable MFA", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"message": "אימות דו-שלבי הופעל"}, http.StatusOK)
}
