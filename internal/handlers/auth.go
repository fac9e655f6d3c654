package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carbon-tracker/internal/auth"
	"github.com/ukydev/carbon-tracker/internal/models"
)

// AuthHandler handles device token requests
type AuthHandler struct {
	authService *auth.Service
	log         log.FieldLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, logger log.FieldLogger) *AuthHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &AuthHandler{
		authService: authService,
		log:         logger,
	}
}

// IssueToken exchanges a device id and the tracker passcode for a token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var req models.TokenRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.DeviceID == "" || req.Passcode == "" {
		http.Error(w, "Device id and passcode are required", http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.authService.IssueToken(req.DeviceID, req.Passcode)
	switch {
	case errors.Is(err, auth.ErrInvalidDeviceID):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrInvalidPasscode):
		h.log.WithField("device", req.DeviceID).Warn("Rejected token request")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	case err != nil:
		h.log.WithError(err).Error("Failed to generate token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	})
}
