package router

import (
	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	// auth happens inside the handler; browsers cannot set headers on the handshake
	e.GET("/ws", wsHandler.HandleWebSocket)
}
