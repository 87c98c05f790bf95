package router

import (
	"findit/internal/adapter/api/handler"
	"findit/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)
	chats.POST("", chatHandler.StartSession)
	chats.GET("", chatHandler.ListSessions)
	chats.GET("/:id", chatHandler.GetSession)
	chats.GET("/:id/messages", chatHandler.GetMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
}
