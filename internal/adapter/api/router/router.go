package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aeroclassifieds/internal/adapter/api/middleware"
	"aeroclassifieds/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter, gatherer prometheus.Gatherer) {
	SetupConversationRouter(e, authMiddleware)
	SetupFileRouter(e, authMiddleware, limiter)
	SetupHealthRouter(e)

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
