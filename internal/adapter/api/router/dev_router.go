package router

import (
	"findit/internal/adapter/api/handler"
	"findit/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SetupDevRouter wires the token tooling. Callers must only invoke this in
// development; the endpoints mint credentials without any auth.
func SetupDevRouter(e *echo.Echo) {
	devTokenHandler := handler.GetDevTokenHandler()

	logger.Warn("Development token endpoints are enabled")

	dev := e.Group("/v1/dev")
	dev.POST("/token", devTokenHandler.GenerateToken)
	dev.GET("/token/decode", devTokenHandler.DecodeToken)
}
