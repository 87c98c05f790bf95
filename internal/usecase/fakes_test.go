package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"findit/internal/domain/entity"
	"findit/internal/domain/repository"
	"findit/pkg/errors"
)

// In-memory repositories backing the use case tests. They mirror the store
// adapters' observable behavior: ids and timestamps are assigned on create,
// session creation is conditional on the id, and touch only rewrites the
// recency fields.

type memoryItemRepo struct {
	mu      sync.Mutex
	items   map[string]*entity.ItemReport
	seq     int
	listErr error
}

func newMemoryItemRepo() *memoryItemRepo {
	return &memoryItemRepo{items: make(map[string]*entity.ItemReport)}
}

func (r *memoryItemRepo) Create(ctx context.Context, item *entity.ItemReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		r.seq++
		item.ID = fmt.Sprintf("item-%d", r.seq)
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memoryItemRepo) GetByID(ctx context.Context, id string) (*entity.ItemReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.DeletedAt != nil {
		return nil, errors.NotFound("Item", nil)
	}
	copied := *item
	return &copied, nil
}

func (r *memoryItemRepo) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.ItemReport, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ItemReport
	for _, item := range r.items {
		if item.DeletedAt != nil {
			continue
		}
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *memoryItemRepo) ListByTypeAndCategory(ctx context.Context, itemType, category string) ([]*entity.ItemReport, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ItemReport
	for _, item := range r.items {
		if item.DeletedAt != nil || item.Type != itemType || item.Category != category {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryItemRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return errors.NotFound("Item", nil)
	}
	item.Status = status
	item.UpdatedAt = time.Now()
	return nil
}

func (r *memoryItemRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return errors.NotFound("Item", nil)
	}
	now := time.Now()
	item.DeletedAt = &now
	return nil
}

func (r *memoryItemRepo) SubscribeAll(ctx context.Context) (repository.ItemSubscription, error) {
	return newFakeItemSubscription(), nil
}

type memoryChatRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.ChatSession
	messages map[string][]*entity.Message
	seq      int

	onCreateSession func(*entity.ChatSession) error
	createMsgErr    error
	touchErr        error
	touchCalls      int
}

func newMemoryChatRepo() *memoryChatRepo {
	return &memoryChatRepo{
		sessions: make(map[string]*entity.ChatSession),
		messages: make(map[string][]*entity.Message),
	}
}

func (r *memoryChatRepo) CreateSession(ctx context.Context, session *entity.ChatSession) error {
	if r.onCreateSession != nil {
		if err := r.onCreateSession(session); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return errors.Conflict("Session already exists")
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *memoryChatRepo) GetSessionByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.NotFound("Session", nil)
	}
	copied := *session
	return &copied, nil
}

func (r *memoryChatRepo) ListSessionsByUserID(ctx context.Context, userID string) ([]*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ChatSession
	for _, session := range r.sessions {
		if session.HasParticipant(userID) {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memoryChatRepo) TouchSession(ctx context.Context, id, lastMessage string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchCalls++
	if r.touchErr != nil {
		return r.touchErr
	}
	session, ok := r.sessions[id]
	if !ok {
		return errors.NotFound("Session", nil)
	}
	session.LastMessage = lastMessage
	session.UpdatedAt = at
	return nil
}

func (r *memoryChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	if r.createMsgErr != nil {
		return r.createMsgErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == "" {
		r.seq++
		message.ID = fmt.Sprintf("msg-%d", r.seq)
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	copied := *message
	r.messages[message.SessionID] = append(r.messages[message.SessionID], &copied)
	return nil
}

func (r *memoryChatRepo) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Same keyed order the store adapter queries by: createdAt, then id.
	all := append([]*entity.Message(nil), r.messages[sessionID]...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	out := make([]*entity.Message, 0, end-offset)
	for _, message := range all[offset:end] {
		copied := *message
		out = append(out, &copied)
	}
	return out, total, nil
}

func (r *memoryChatRepo) SubscribeMessages(ctx context.Context, sessionID string) (repository.MessageSubscription, error) {
	return newFakeMessageSubscription(), nil
}

func (r *memoryChatRepo) SubscribeSessions(ctx context.Context, userID string) (repository.SessionSubscription, error) {
	return newFakeSessionSubscription(), nil
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*entity.User)}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errors.NotFound("User", nil)
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type fakeMessageSubscription struct {
	updates   chan []*entity.Message
	closeOnce sync.Once
}

func newFakeMessageSubscription() *fakeMessageSubscription {
	return &fakeMessageSubscription{updates: make(chan []*entity.Message, 4)}
}

func (s *fakeMessageSubscription) Updates() <-chan []*entity.Message { return s.updates }

func (s *fakeMessageSubscription) Close() {
	s.closeOnce.Do(func() { close(s.updates) })
}

type fakeSessionSubscription struct {
	updates   chan []*entity.ChatSession
	closeOnce sync.Once
}

func newFakeSessionSubscription() *fakeSessionSubscription {
	return &fakeSessionSubscription{updates: make(chan []*entity.ChatSession, 4)}
}

func (s *fakeSessionSubscription) Updates() <-chan []*entity.ChatSession { return s.updates }

func (s *fakeSessionSubscription) Close() {
	s.closeOnce.Do(func() { close(s.updates) })
}

type fakeItemSubscription struct {
	updates   chan []*entity.ItemReport
	closeOnce sync.Once
}

func newFakeItemSubscription() *fakeItemSubscription {
	return &fakeItemSubscription{updates: make(chan []*entity.ItemReport, 4)}
}

func (s *fakeItemSubscription) Updates() <-chan []*entity.ItemReport { return s.updates }

func (s *fakeItemSubscription) Close() {
	s.closeOnce.Do(func() { close(s.updates) })
}
