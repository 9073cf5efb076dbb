// internal/handlers/session/session_handler.go
package session

import (
	"errors"
	"net/http"
	"strconv"

	sessiondom "sentinel-service/internal/domain/session"
	"sentinel-service/internal/middleware"
	xerrors "sentinel-service/internal/pkg/errors"
	"sentinel-service/internal/pkg/fingerprint"
	"sentinel-service/internal/pkg/response"
	sessionService "sentinel-service/internal/service/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessions *sessionService.Service
	logger   *zap.Logger
}

func NewSessionHandler(sessions *sessionService.Service, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ========== Refresh ==========

// Refresh rotates an access credential against a refresh credential (public
// endpoint). Every failure yields the same generic response: the endpoint
// must not help enumerate valid accounts or tokens.
func (h *SessionHandler) Refresh(c *gin.Context) {
	var req sessiondom.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	meta := fingerprint.FromRequest(c.Request)

	resp, err := h.sessions.RefreshAndRotate(c.Request.Context(), req.RefreshToken, meta)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidCredential) || errors.Is(err, xerrors.ErrInvalidInput) {
			response.Error(c, http.StatusUnauthorized, "invalid or expired refresh credential", nil)
			return
		}

		h.logger.Error("refresh failed", zap.Error(err), zap.String("ip", c.ClientIP()))
		response.Error(c, http.StatusInternalServerError, "refresh failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "credential rotated", resp)
}

// ========== Session Management ==========

// ListSessions returns the caller's active sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)
	currentID, _ := middleware.GetSessionID(c)

	infos, err := h.sessions.ListSessions(c.Request.Context(), accountID, currentID)
	if err != nil {
		h.logger.Error("failed to list sessions",
			zap.Int64("account_id", accountID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list sessions", nil)
		return
	}

	response.Success(c, http.StatusOK, "active sessions", infos)
}

// GetStats returns aggregate session statistics for the caller
func (h *SessionHandler) GetStats(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	stats, err := h.sessions.GetSessionStats(c.Request.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to aggregate session stats",
			zap.Int64("account_id", accountID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to aggregate session stats", nil)
		return
	}

	response.Success(c, http.StatusOK, "session stats", stats)
}

// RevokeSession revokes one of the caller's sessions
func (h *SessionHandler) RevokeSession(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)
	sessionID := c.Param("session_id")

	resp, err := h.sessions.RevokeSession(c.Request.Context(), accountID, sessionID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "session not found")
			return
		}

		h.logger.Error("failed to revoke session",
			zap.Int64("account_id", accountID),
			zap.String("session_id", sessionID),
			zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to revoke session", nil)
		return
	}

	response.Success(c, http.StatusOK, "session revoked", resp)
}

// RevokeAllSessions revokes every session of the caller except the current one
func (h *SessionHandler) RevokeAllSessions(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)
	currentID, _ := middleware.GetSessionID(c)

	resp, err := h.sessions.RevokeAllSessions(c.Request.Context(), accountID, currentID)
	if err != nil {
		h.logger.Error("failed to revoke sessions",
			zap.Int64("account_id", accountID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to revoke sessions", nil)
		return
	}

	response.Success(c, http.StatusOK, "sessions revoked", resp)
}

// FindSuspicious returns sessions with anomalous regions inside the window
func (h *SessionHandler) FindSuspicious(c *gin.Context) {
	accountID := middleware.MustGetAccountID(c)

	windowHours := 24
	if raw := c.Query("window_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.ValidationError(c, "invalid window_hours", err)
			return
		}
		windowHours = parsed
	}

	infos, err := h.sessions.FindSuspiciousSessions(c.Request.Context(), accountID, windowHours)
	if err != nil {
		h.logger.Error("suspicious session scan failed",
			zap.Int64("account_id", accountID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "suspicious session scan failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "suspicious sessions", infos)
}
