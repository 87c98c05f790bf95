package router

import (
	"findit/internal/adapter/api/handler"

	"github.com/labstack/echo/v4"
)

func SetupWebSocketRouter(e *echo.Echo) {
	wsHandler := handler.GetWebSocketHandler()

	// Auth happens inside the handler via the token query parameter.
	e.GET("/v1/ws", wsHandler.HandleWebSocket)
}
