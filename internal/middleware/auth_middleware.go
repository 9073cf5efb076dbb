// internal/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"sentinel-service/internal/pkg/response"
	"sentinel-service/internal/pkg/token"
	sessionService "sentinel-service/internal/service/session"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	codec    *token.Codec
	sessions *sessionService.Service
}

func NewAuthMiddleware(codec *token.Codec, sessions *sessionService.Service) *AuthMiddleware {
	return &AuthMiddleware{
		codec:    codec,
		sessions: sessions,
	}
}

// Auth is the request-time guard: it verifies the bearer access credential
// and attaches the decoded identity to the request context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			response.Error(c, http.StatusUnauthorized, "authorization credential required", nil)
			return
		}

		claims, err := m.codec.VerifyAccess(raw)
		if err != nil {
			// Opaque by contract: no hint of which check failed.
			response.Error(c, http.StatusUnauthorized, "invalid or expired credential", nil)
			return
		}

		c.Set("account_id", claims.AccountID)
		c.Set("email", claims.Email)
		c.Set("verified", claims.Verified)
		c.Set("jti", claims.ID)

		c.Next()
	}
}

// OptionalAuth attaches identity when a valid credential is present but never
// rejects, for endpoints with mixed public/private behavior.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := m.codec.VerifyAccess(raw)
		if err != nil {
			c.Next()
			return
		}

		c.Set("account_id", claims.AccountID)
		c.Set("email", claims.Email)
		c.Set("verified", claims.Verified)
		c.Set("jti", claims.ID)
		c.Set("authenticated", true)

		c.Next()
	}
}

// WithSessionContext best-effort attaches the backing session for downstream
// anomaly context. The bearer's class marker is read with a non-verifying
// decode; only refresh-class tokens can be resolved to a session, since
// access credentials carry no session reference. Any failure is swallowed and
// the request proceeds without session context. This is an enrichment, not a
// security boundary.
func (m *AuthMiddleware) WithSessionContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			c.Next()
			return
		}

		if token.ExtractClass(raw) != token.ClassRefresh {
			c.Next()
			return
		}

		sess, err := m.sessions.FindSessionByRefreshRef(c.Request.Context(), raw)
		if err != nil {
			c.Next()
			return
		}

		c.Set("session", sess)
		c.Set("session_id", sess.ID)

		c.Next()
	}
}

// extractToken extracts the bearer token from the Authorization header, with
// a query-param fallback for websocket upgrades.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	if tok := c.Query("token"); tok != "" {
		return tok
	}

	return ""
}

// GetAccountID gets the authenticated account ID from context.
func GetAccountID(c *gin.Context) (int64, bool) {
	accountID, exists := c.Get("account_id")
	if !exists {
		return 0, false
	}

	id, ok := accountID.(int64)
	return id, ok
}

// GetSessionID gets the resolved session ID from context, if any.
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get("session_id")
	if !exists {
		return "", false
	}

	id, ok := sessionID.(string)
	return id, ok
}
