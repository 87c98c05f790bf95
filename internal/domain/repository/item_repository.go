package repository

import (
	"context"

	"findit/internal/domain/entity"
)

type ItemFilter struct {
	Type     string
	Category string
	Status   string
}

type ItemRepository interface {
	Create(ctx context.Context, item *entity.ItemReport) error
	GetByID(ctx context.Context, id string) (*entity.ItemReport, error)
	List(ctx context.Context, filter ItemFilter, limit, offset int) ([]*entity.ItemReport, int64, error)
	// ListByTypeAndCategory is the one-shot equality query used by matching.
	// Soft-deleted reports are never returned.
	ListByTypeAndCategory(ctx context.Context, itemType, category string) ([]*entity.ItemReport, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SoftDelete(ctx context.Context, id string) error
	SubscribeAll(ctx context.Context) (ItemSubscription, error)
}
