package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/adapter/api/middleware"
	ws "aeroclassifieds/internal/infrastructure/websocket"
	"aeroclassifieds/pkg/logger"
	"aeroclassifieds/pkg/response"
)

type WebSocketHandler struct {
	ctx            context.Context
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler ties every connection to ctx so the server can close
// them all on shutdown. allowedOrigins empty accepts any origin.
func NewWebSocketHandler(ctx context.Context, wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &WebSocketHandler{
		ctx:            ctx,
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// HandleWebSocket authenticates the handshake with a bearer header or a
// ?token= query parameter, then hands the connection to the manager.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), middleware.TokenFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the failure response
		logger.Warn("WebSocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(h.ctx, userID, conn)
	h.wsManager.Register(client)

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}
