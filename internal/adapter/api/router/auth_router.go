package router

import (
	"findit/internal/adapter/api/handler"
	"findit/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	authHandler := handler.GetAuthHandler()

	auth := e.Group("/v1/auth")
	auth.Use(authMiddleware.Authenticate)
	auth.POST("/sync", authHandler.SyncProfile)
	auth.GET("/me", authHandler.GetProfile)
}
