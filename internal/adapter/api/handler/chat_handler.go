package handler

import (
	"github.com/labstack/echo/v4"

	"findit/internal/usecase"
	"findit/pkg/response"
	"findit/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startSessionRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// StartSession opens (or returns) the conversation between the caller and a
// report's author. Calling it again for the same report always yields the
// same session.
func (h *ChatHandler) StartSession(c echo.Context) error {
	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	session, err := h.chatUseCase.GetOrCreateSession(c.Request().Context(), uid, usecase.StartSessionInput{
		ItemID: req.ItemID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session)
}

func (h *ChatHandler) ListSessions(c echo.Context) error {
	uid := c.Get("uid").(string)

	sessions, err := h.chatUseCase.ListSessions(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, sessions)
}

func (h *ChatHandler) GetSession(c echo.Context) error {
	uid := c.Get("uid").(string)

	session, err := h.chatUseCase.GetSession(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session)
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	uid := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c, 50)

	messages, total, err := h.chatUseCase.GetSessionMessages(c.Request().Context(), uid, c.Param("id"), pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, pagination.Limit, pagination.Offset)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), uid, usecase.SendMessageInput{
		SessionID: c.Param("id"),
		Text:      req.Text,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}
