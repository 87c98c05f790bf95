package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"findit/internal/domain/entity"
	"findit/internal/domain/repository"
	"findit/pkg/errors"
	"findit/pkg/logger"
)

// Collection name kept from the original deployment so existing documents
// stay readable.
const itemsCollection = "lost-found-items"

type firestoreItemRepository struct {
	client *firestore.Client
}

func NewFirestoreItemRepository(client *firestore.Client) repository.ItemRepository {
	return &firestoreItemRepository{
		client: client,
	}
}

func (r *firestoreItemRepository) Create(ctx context.Context, item *entity.ItemReport) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Status == "" {
		item.Status = entity.ItemStatusOpen
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.client.Collection(itemsCollection).Doc(item.ID).Set(ctx, item)
	if err != nil {
		return errors.Internal("Failed to create item report", err)
	}

	return nil
}

func (r *firestoreItemRepository) GetByID(ctx context.Context, id string) (*entity.ItemReport, error) {
	doc, err := r.client.Collection(itemsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Item report", err)
		}
		return nil, errors.Internal("Failed to get item report", err)
	}

	var item entity.ItemReport
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse item report data", err)
	}
	item.ID = doc.Ref.ID

	if item.DeletedAt != nil {
		return nil, errors.NotFound("Item report", nil)
	}

	return &item, nil
}

func (r *firestoreItemRepository) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.ItemReport, int64, error) {
	query := r.client.Collection(itemsCollection).Query
	if filter.Type != "" {
		query = query.Where("type", "==", filter.Type)
	}
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status", "==", filter.Status)
	}

	all, err := r.collectItems(ctx, query)
	if err != nil {
		logger.Error("Firestore error while listing item reports: %v", err)
		return nil, 0, errors.Internal("Failed to list item reports", err)
	}

	total := int64(len(all))

	// Pagination in-memory, same as the chat listing: the collection is small
	// and avoids composite index requirements.
	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return all[start:end], total, nil
}

func (r *firestoreItemRepository) ListByTypeAndCategory(ctx context.Context, itemType, category string) ([]*entity.ItemReport, error) {
	query := r.client.Collection(itemsCollection).
		Where("type", "==", itemType).
		Where("category", "==", category)

	items, err := r.collectItems(ctx, query)
	if err != nil {
		logger.Error("Firestore error while querying %s/%s reports: %v", itemType, category, err)
		return nil, errors.Internal("Failed to query item reports", err)
	}

	return items, nil
}

func (r *firestoreItemRepository) UpdateStatus(ctx context.Context, id, newStatus string) error {
	_, err := r.client.Collection(itemsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: newStatus},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Item report", err)
		}
		return errors.Internal("Failed to update item status", err)
	}

	return nil
}

func (r *firestoreItemRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.client.Collection(itemsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "deletedAt", Value: now},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Item report", err)
		}
		return errors.Internal("Failed to delete item report", err)
	}

	return nil
}

func (r *firestoreItemRepository) SubscribeAll(ctx context.Context) (repository.ItemSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	snaps := r.client.Collection(itemsCollection).Snapshots(ctx)

	sub := &itemSubscription{
		updates: make(chan []*entity.ItemReport, 1),
		stop:    cancel,
	}

	go func() {
		defer close(sub.updates)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Item subscription terminated: %v", err)
				}
				return
			}

			items, err := itemsFromDocs(snap.Documents)
			if err != nil {
				logger.Error("Failed to decode item snapshot: %v", err)
				continue
			}

			select {
			case sub.updates <- items:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func (r *firestoreItemRepository) collectItems(ctx context.Context, query firestore.Query) ([]*entity.ItemReport, error) {
	return itemsFromDocs(query.Documents(ctx))
}

// itemsFromDocs decodes an iterator, dropping soft-deleted reports.
func itemsFromDocs(iter *firestore.DocumentIterator) ([]*entity.ItemReport, error) {
	var items []*entity.ItemReport
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var item entity.ItemReport
		if err := doc.DataTo(&item); err != nil {
			logger.Warn("Skipping malformed item document %s: %v", doc.Ref.ID, err)
			continue
		}
		item.ID = doc.Ref.ID

		if item.DeletedAt != nil {
			continue
		}
		items = append(items, &item)
	}
	return items, nil
}

type itemSubscription struct {
	updates chan []*entity.ItemReport
	stop    context.CancelFunc
}

func (s *itemSubscription) Updates() <-chan []*entity.ItemReport {
	return s.updates
}

func (s *itemSubscription) Close() {
	s.stop()
}
