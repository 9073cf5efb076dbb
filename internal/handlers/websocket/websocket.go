// internal/handlers/websocket/websocket.go
package websocket

import (
	"net/http"
	"strings"

	"sentinel-service/internal/pkg/response"
	"sentinel-service/internal/pkg/token"
	ws "sentinel-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the dashboard domain is fixed
		return true
	},
}

type WebSocketHandler struct {
	hub    *ws.Hub
	codec  *token.Codec
	logger *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, codec *token.Codec, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		codec:  codec,
		logger: logger,
	}
}

// HandleConnection authenticates the caller and upgrades to a websocket
// carrying the account's session security events.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	raw := h.extractToken(c)
	if raw == "" {
		response.Error(c, http.StatusUnauthorized, "authorization credential required", nil)
		return
	}

	claims, err := h.codec.VerifyAccess(raw)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid or expired credential", nil)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.AccountID, h.logger)
	h.hub.Register <- client
	client.Start()

	h.logger.Info("websocket client connected",
		zap.Int64("account_id", claims.AccountID),
	)
}

// extractToken extracts the credential from query param or Authorization header
func (h *WebSocketHandler) extractToken(c *gin.Context) string {
	if tok := c.Query("token"); tok != "" {
		return tok
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return ""
}
