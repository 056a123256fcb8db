package handler

import (
	"context"

	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/internal/pkg/serverutils"
	internalWS "mistral-thing-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type SyncHandler struct {
	// ctx outlives single requests; sessions end when it is cancelled.
	ctx    context.Context
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewSyncHandler(ctx context.Context, hub *internalWS.Hub, log logger.ILogger) *SyncHandler {
	return &SyncHandler{
		ctx:    ctx,
		hub:    hub,
		logger: log,
	}
}

// bearerToken prefers the query parameter, which is all a browser can send
// on a websocket handshake.
func bearerToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// ServeWs authenticates the handshake and hands the connection to the hub.
func (h *SyncHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
	}

	userID, err := serverutils.ParseUserToken(tokenStr)
	if err != nil {
		h.logger.Warn("SyncHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SyncHandler", "Starting websocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.ctx, h.hub, conn, userID)
		h.logger.Info("SyncHandler", "Websocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *SyncHandler) RegisterRoutes(router fiber.Router) {
	sync := router.Group("/sync/v1")
	sync.Get("/ws", h.ServeWs)
}
