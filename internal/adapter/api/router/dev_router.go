package router

import (
	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/adapter/api/handler"
)

func SetupDevRouter(e *echo.Echo, environment string) {
	if environment != "development" && environment != "local" {
		return
	}
	devTokenHandler := handler.GetDevTokenHandler()
	if devTokenHandler == nil {
		return
	}

	e.GET("/_dev/token/:uid", devTokenHandler.GenerateUserToken)
}
