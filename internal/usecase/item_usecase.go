package usecase

import (
	"context"
	"sort"
	"strings"

	"findit/internal/domain/entity"
	"findit/internal/domain/repository"
	"findit/internal/infrastructure/ratelimit"
	"findit/pkg/errors"
	"findit/pkg/logger"
)

type ItemUseCase struct {
	itemRepo      repository.ItemRepository
	rateLimiter   *ratelimit.RateLimiter
	maxImageBytes int64
}

func NewItemUseCase(itemRepo repository.ItemRepository, rateLimiter *ratelimit.RateLimiter, maxImageBytes int64) *ItemUseCase {
	return &ItemUseCase{
		itemRepo:      itemRepo,
		rateLimiter:   rateLimiter,
		maxImageBytes: maxImageBytes,
	}
}

type CreateItemInput struct {
	Type        string
	Category    string
	Title       string
	Description string
	Location    string
	Lat         *float64
	Lng         *float64
	Date        string
	Contact     string
	Image       string
}

func (uc *ItemUseCase) CreateItem(ctx context.Context, userID, userName string, input CreateItemInput) (*entity.ItemReport, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "report_item")
	if !allowed {
		logger.Warn("CreateItem rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Too many reports. Please wait before posting another item")
	}

	if input.Type != entity.ItemTypeLost && input.Type != entity.ItemTypeFound {
		return nil, errors.BadRequest("Item type must be lost or found", nil)
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, errors.BadRequest("Category is required", nil)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.BadRequest("Title is required", nil)
	}
	if int64(len(input.Image)) > uc.maxImageBytes {
		return nil, errors.BadRequest("Image exceeds the maximum inline size", nil)
	}

	item := &entity.ItemReport{
		Type:        input.Type,
		Category:    strings.TrimSpace(input.Category),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Location:    input.Location,
		Lat:         input.Lat,
		Lng:         input.Lng,
		Date:        input.Date,
		Contact:     input.Contact,
		Image:       input.Image,
		Status:      entity.ItemStatusOpen,
		AuthorID:    userID,
		AuthorName:  userName,
	}

	if err := uc.itemRepo.Create(ctx, item); err != nil {
		logger.Error("CreateItem: failed to create report for user %s: %v", userID, err)
		return nil, err
	}

	return item, nil
}

func (uc *ItemUseCase) GetItem(ctx context.Context, id string) (*entity.ItemReport, error) {
	return uc.itemRepo.GetByID(ctx, id)
}

func (uc *ItemUseCase) ListItems(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.ItemReport, int64, error) {
	return uc.itemRepo.List(ctx, filter, limit, offset)
}

func (uc *ItemUseCase) UpdateStatus(ctx context.Context, userID, itemID, status string) (*entity.ItemReport, error) {
	if status != entity.ItemStatusOpen && status != entity.ItemStatusResolved {
		return nil, errors.BadRequest("Status must be open or resolved", nil)
	}

	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.AuthorID != userID {
		return nil, errors.Forbidden("Only the author can update a report's status", nil)
	}

	if err := uc.itemRepo.UpdateStatus(ctx, itemID, status); err != nil {
		logger.Error("UpdateStatus: failed to update item %s: %v", itemID, err)
		return nil, err
	}

	item.Status = status
	return item, nil
}

func (uc *ItemUseCase) DeleteItem(ctx context.Context, userID string, isAdmin bool, itemID string) error {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.AuthorID != userID && !isAdmin {
		return errors.Forbidden("Only the author or an administrator can delete a report", nil)
	}

	if err := uc.itemRepo.SoftDelete(ctx, itemID); err != nil {
		logger.Error("DeleteItem: failed to delete item %s: %v", itemID, err)
		return err
	}

	return nil
}

// FindMatches returns existing counterpart reports for a candidate: same
// category, opposite type, not resolved. Matching is assistive, never gating;
// a store failure yields an empty result alongside the error so callers can
// degrade instead of blocking submission.
func (uc *ItemUseCase) FindMatches(ctx context.Context, candidate *entity.ItemReport) ([]*entity.ItemReport, error) {
	category := strings.TrimSpace(candidate.Category)
	counterpart := candidate.CounterpartType()
	if category == "" || counterpart == "" {
		// An unset match key must never produce false positives.
		return nil, nil
	}

	items, err := uc.itemRepo.ListByTypeAndCategory(ctx, counterpart, category)
	if err != nil {
		logger.Warn("FindMatches: store query failed for %s/%s: %v", counterpart, category, err)
		return nil, err
	}

	matches := make([]*entity.ItemReport, 0, len(items))
	for _, item := range items {
		if item.ID == candidate.ID || item.Status == entity.ItemStatusResolved {
			continue
		}
		matches = append(matches, item)
	}

	// Recency ordering is a UX nicety, not a ranking.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	return matches, nil
}

func (uc *ItemUseCase) SubscribeItems(ctx context.Context) (repository.ItemSubscription, error) {
	return uc.itemRepo.SubscribeAll(ctx)
}
