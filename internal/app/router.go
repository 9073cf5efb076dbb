// internal/app/router.go
package app

import (
	"net/http"

	sessionHandler "sentinel-service/internal/handlers/session"
	wsHandler "sentinel-service/internal/handlers/websocket"
	"sentinel-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	SessionHandler *sessionHandler.SessionHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			// Refresh-and-rotate is authenticated by the refresh credential
			// carried in the body, not by the access credential.
			auth.POST("/refresh", h.SessionHandler.Refresh)
		}

		sessions := auth.Group("/sessions")
		sessions.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.WithSessionContext())
		{
			sessions.GET("", h.SessionHandler.ListSessions)
			sessions.GET("/stats", h.SessionHandler.GetStats)
			sessions.GET("/suspicious", h.SessionHandler.FindSuspicious)
			sessions.DELETE("/:session_id", h.SessionHandler.RevokeSession)
			sessions.POST("/revoke-all", h.SessionHandler.RevokeAllSessions)
		}
	}

	// Security event stream. The access credential is verified inside the
	// handler so it can travel in the query string for browser clients.
	r.GET("/ws", h.WSHandler.HandleConnection)
}
