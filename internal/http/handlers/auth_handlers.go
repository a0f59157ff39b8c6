package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"carburapp/internal/http/middleware"
	"carburapp/internal/mail"
	"carburapp/internal/repository"
	"carburapp/internal/service"
)

// AuthHandlers exposes signup, login and account lifecycle endpoints.
type AuthHandlers struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandlers builds handlers.
func NewAuthHandlers(auth *service.AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{auth: auth, logger: logger}
}

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PrivacyAccepted bool   `json:"privacy_accepted"`
}

// Signup registers a new contributor.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Email, req.Password, req.PrivacyAccepted)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailInUse):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrPrivacyNotAccepted):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("signup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "signup failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and returns a token bundle.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// SendVerification mails a fresh verification code to the caller.
func (h *AuthHandlers) SendVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := h.auth.SendVerification(r.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("send verification failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not send verification email")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

type confirmVerificationRequest struct {
	Code string `json:"code"`
}

// ConfirmVerification consumes the emailed code.
func (h *AuthHandlers) ConfirmVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req confirmVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.ConfirmVerification(r.Context(), userID, req.Code); err != nil {
		switch {
		case errors.Is(err, mail.ErrCodeMismatch):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("confirm verification failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// DeleteAccount removes the caller's profile.
func (h *AuthHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := h.auth.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("delete account failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Me returns the caller's profile with the derived level.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	user, level, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("profile lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"level": level,
	})
}
