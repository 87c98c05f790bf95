package router

import (
	"findit/internal/adapter/api/handler"
	"findit/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupItemRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	itemHandler := handler.GetItemHandler()

	// Browsing the board requires no account.
	items := e.Group("/v1/items")
	items.GET("", itemHandler.ListItems)
	items.GET("/categories", itemHandler.GetCategories)
	items.GET("/:id", itemHandler.GetItem)
	items.GET("/:id/matches", itemHandler.GetItemMatches)

	authed := e.Group("/v1/items")
	authed.Use(authMiddleware.Authenticate)
	authed.POST("", itemHandler.CreateItem)
	authed.POST("/matches", itemHandler.FindMatches)
	authed.PATCH("/:id/status", itemHandler.UpdateStatus)
	authed.DELETE("/:id", itemHandler.DeleteItem)

	admin := e.Group("/v1/admin/items")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)
	admin.DELETE("/:id", itemHandler.DeleteItem)
}
