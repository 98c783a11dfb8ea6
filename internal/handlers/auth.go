package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/auth/mfa"
	"github.com/charlesng35/termfolio/internal/models"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/metrics"
	"github.com/charlesng35/termfolio/pkg/response"
)

// AuthHandler manages authentication flows (login/refresh/logout/me) and MFA
// enrollment for the single admin account.
type AuthHandler struct {
	db            *gorm.DB
	sessions      *iauth.SessionService
	authenticator *iauth.LocalAuthenticator
	mfa           *mfa.TOTPService
}

func NewAuthHandler(db *gorm.DB, sessions *iauth.SessionService, authenticator *iauth.LocalAuthenticator, totp *mfa.TOTPService) *AuthHandler {
	return &AuthHandler{db: db, sessions: sessions, authenticator: authenticator, mfa: totp}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.authenticator.Authenticate(iauth.AuthenticateInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		// Normalise auth errors to 401
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	if user.MFAEnabled {
		if !h.verifyMFA(user.ID, req.OTP) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			if strings.TrimSpace(req.OTP) == "" {
				response.Error(c, errors.ErrMFARequired)
			} else {
				response.Error(c, errors.ErrMFAInvalid)
			}
			return
		}
	}

	pair, _, err := h.sessions.CreateSession(user.ID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Claims:    map[string]any{"role": user.Role},
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"tokens": tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"user":   userPayload(user),
	})
}

// verifyMFA accepts either a TOTP code or a one-shot backup code.
func (h *AuthHandler) verifyMFA(userID, code string) bool {
	code = strings.TrimSpace(code)
	if h.mfa == nil || code == "" {
		return false
	}

	if valid, err := h.mfa.VerifyCode(userID, code); err == nil && valid {
		return true
	}
	used, err := h.mfa.UseBackupCode(userID, code)
	return err == nil && used
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, _, err := h.sessions.RefreshSession(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	value, ok := c.Get("sessionID")
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	sessionID, _ := value.(string)
	if sessionID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(sessionID); err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := contextUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var user models.User
	if err := h.db.Take(&user, "id = ?", userID).Error; err != nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, userPayload(&user))
}

// GET /api/auth/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	userID := contextUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	sessions, err := h.sessions.ListUserSessions(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	payload := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		payload = append(payload, gin.H{
			"id":           session.ID,
			"ip_address":   session.IPAddress,
			"user_agent":   session.UserAgent,
			"created_at":   session.CreatedAt,
			"last_used_at": session.LastUsedAt,
			"expires_at":   session.ExpiresAt,
			"revoked":      session.RevokedAt != nil,
		})
	}

	response.Success(c, http.StatusOK, payload)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=12"`
}

// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := contextUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.authenticator.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	// Password changes invalidate every other session.
	_ = h.sessions.RevokeUserSessions(userID)

	response.Success(c, http.StatusOK, gin.H{"changed": true})
}

// POST /api/auth/mfa/setup
func (h *AuthHandler) MFASetup(c *gin.Context) {
	userID := contextUserID(c)
	if userID == "" || h.mfa == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var user models.User
	if err := h.db.Take(&user, "id = ?", userID).Error; err != nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	key, backupCodes, err := h.mfa.GenerateSecret(user.ID, user.Email)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	qr, err := h.mfa.GenerateQRCode(key)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"secret":       key.Secret(),
		"otpauth_url":  key.String(),
		"qr_png":       base64.StdEncoding.EncodeToString(qr),
		"backup_codes": backupCodes,
	})
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// POST /api/auth/mfa/confirm
func (h *AuthHandler) MFAConfirm(c *gin.Context) {
	userID := contextUserID(c)
	if userID == "" || h.mfa == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req mfaCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.mfa.Confirm(userID, req.Code); err != nil {
		response.Error(c, errors.ErrMFAInvalid)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enabled": true})
}

// POST /api/auth/mfa/disable
func (h *AuthHandler) MFADisable(c *gin.Context) {
	userID := contextUserID(c)
	if userID == "" || h.mfa == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req mfaCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if !h.verifyMFA(userID, req.Code) {
		response.Error(c, errors.ErrMFAInvalid)
		return
	}

	if err := h.mfa.Disable(userID); err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enabled": false})
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"role":         user.Role,
		"is_root":      user.IsRoot,
		"is_active":    user.IsActive,
		"mfa_enabled":  user.MFAEnabled,
		"last_login":   user.LastLoginAt,
	}
}
