package handler

import (
	"github.com/labstack/echo/v4"

	"findit/internal/domain/entity"
	"findit/internal/domain/repository"
	"findit/internal/usecase"
	"findit/pkg/response"
	"findit/pkg/utils"
)

type ItemHandler struct {
	itemUseCase *usecase.ItemUseCase
	userUseCase *usecase.UserUseCase
}

func NewItemHandler(itemUseCase *usecase.ItemUseCase, userUseCase *usecase.UserUseCase) *ItemHandler {
	return &ItemHandler{
		itemUseCase: itemUseCase,
		userUseCase: userUseCase,
	}
}

type createItemRequest struct {
	Type        string   `json:"type" validate:"required,oneof=lost found"`
	Category    string   `json:"category" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Date        string   `json:"date"`
	Contact     string   `json:"contact"`
	Image       string   `json:"image"`
}

type matchCandidateRequest struct {
	Type     string `json:"type" validate:"required,oneof=lost found"`
	Category string `json:"category" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open resolved"`
}

// reportResponse pairs a freshly created report with the counterpart matches
// found at submission time. MatchesDegraded is set when the match lookup
// failed; the report itself is already stored.
type reportResponse struct {
	Item            *entity.ItemReport   `json:"item"`
	Matches         []*entity.ItemReport `json:"matches"`
	MatchesDegraded bool                 `json:"matches_degraded,omitempty"`
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)
	userName, _ := c.Get("display_name").(string)
	if userName == "" {
		if profile, err := h.userUseCase.GetProfile(c.Request().Context(), uid); err == nil {
			userName = profile.DisplayName
		}
	}

	item, err := h.itemUseCase.CreateItem(c.Request().Context(), uid, userName, usecase.CreateItemInput{
		Type:        req.Type,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Date:        req.Date,
		Contact:     req.Contact,
		Image:       req.Image,
	})
	if err != nil {
		return response.Error(c, err)
	}

	matches, matchErr := h.itemUseCase.FindMatches(c.Request().Context(), item)
	if matches == nil {
		matches = []*entity.ItemReport{}
	}

	return response.Created(c, reportResponse{
		Item:            item,
		Matches:         matches,
		MatchesDegraded: matchErr != nil,
	})
}

// GetCategories returns the suggested category tags clients offer in the
// report form. Category stays free-form; this is a hint, not an enum.
func (h *ItemHandler) GetCategories(c echo.Context) error {
	return response.Success(c, entity.SuggestedCategories)
}

func (h *ItemHandler) ListItems(c echo.Context) error {
	pagination := utils.GetPaginationParams(c, 20)

	filter := repository.ItemFilter{
		Type:     c.QueryParam("type"),
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
	}

	items, total, err := h.itemUseCase.ListItems(c.Request().Context(), filter, pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, items, total, pagination.Limit, pagination.Offset)
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	item, err := h.itemUseCase.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, item)
}

func (h *ItemHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	item, err := h.itemUseCase.UpdateStatus(c.Request().Context(), uid, c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	uid := c.Get("uid").(string)
	isAdmin, _ := c.Get("is_admin").(bool)

	if err := h.itemUseCase.DeleteItem(c.Request().Context(), uid, isAdmin, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

// FindMatches previews counterpart reports for a draft that has not been
// submitted yet, so the composer can show matches while the user types.
func (h *ItemHandler) FindMatches(c echo.Context) error {
	var req matchCandidateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	candidate := &entity.ItemReport{
		Type:     req.Type,
		Category: req.Category,
	}

	matches, err := h.itemUseCase.FindMatches(c.Request().Context(), candidate)
	if err != nil {
		return response.Success(c, reportResponse{
			Matches:         []*entity.ItemReport{},
			MatchesDegraded: true,
		})
	}
	if matches == nil {
		matches = []*entity.ItemReport{}
	}

	return response.Success(c, reportResponse{Matches: matches})
}

// GetItemMatches re-runs matching for an existing report.
func (h *ItemHandler) GetItemMatches(c echo.Context) error {
	item, err := h.itemUseCase.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	matches, matchErr := h.itemUseCase.FindMatches(c.Request().Context(), item)
	if matches == nil {
		matches = []*entity.ItemReport{}
	}

	return response.Success(c, reportResponse{
		Item:            item,
		Matches:         matches,
		MatchesDegraded: matchErr != nil,
	})
}
