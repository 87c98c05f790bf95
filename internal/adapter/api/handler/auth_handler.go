package handler

import (
	"github.com/labstack/echo/v4"

	"findit/internal/usecase"
	"findit/pkg/response"
)

type AuthHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewAuthHandler(userUseCase *usecase.UserUseCase) *AuthHandler {
	return &AuthHandler{
		userUseCase: userUseCase,
	}
}

// SyncProfile upserts the caller's profile from their verified token claims.
// Clients call this once after sign-in so chat sessions can snapshot a
// display name at creation time.
func (h *AuthHandler) SyncProfile(c echo.Context) error {
	uid := c.Get("uid").(string)
	email, _ := c.Get("email").(string)
	displayName, _ := c.Get("display_name").(string)

	user, err := h.userUseCase.SyncProfile(c.Request().Context(), uid, email, displayName)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *AuthHandler) GetProfile(c echo.Context) error {
	uid := c.Get("uid").(string)

	user, err := h.userUseCase.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
