package router

import (
	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/adapter/api/handler"
	"aeroclassifieds/internal/adapter/api/middleware"
	"aeroclassifieds/internal/infrastructure/ratelimit"
)

func SetupFileRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	fileHandler := handler.GetFileHandler()

	attachments := e.Group("/v1/attachments")
	attachments.Use(authMiddleware.Authenticate)
	if limiter != nil {
		attachments.Use(middleware.RateLimit(limiter, "stage_attachment"))
	}

	attachments.POST("", fileHandler.StageAttachment)
}
