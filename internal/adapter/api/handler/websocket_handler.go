package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"findit/internal/adapter/api/middleware"
	ws "findit/internal/infrastructure/websocket"
	"findit/pkg/errors"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	frameHandler   *ws.FrameHandler
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

var webSocketHandler *WebSocketHandler

func NewWebSocketHandler(wsManager *ws.Manager, frameHandler *ws.FrameHandler, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		frameHandler:   frameHandler,
		authMiddleware: authMiddleware,
	}
}

func SetupWebSocketHandler(wsManager *ws.Manager, frameHandler *ws.FrameHandler, authMiddleware *middleware.AuthMiddleware) {
	webSocketHandler = NewWebSocketHandler(wsManager, frameHandler, authMiddleware)
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

// HandleWebSocket authenticates via a token query parameter (browsers cannot
// set headers on a WebSocket dial), upgrades the connection, and starts the
// read/write pumps.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication token is required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(userID, conn)

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager, h.frameHandler)
	go client.WritePump()

	return nil
}
