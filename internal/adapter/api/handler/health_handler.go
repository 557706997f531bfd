package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "aeroclassifieds/internal/infrastructure/websocket"
)

type HealthHandler struct {
	wsManager *ws.Manager
}

func NewHealthHandler(wsManager *ws.Manager) *HealthHandler {
	return &HealthHandler{
		wsManager: wsManager,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	if h.wsManager != nil {
		body["websocket_connections"] = h.wsManager.ConnectionCount()
	}
	return c.JSON(http.StatusOK, body)
}
