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

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	itemRepo    repository.ItemRepository
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
	}
}

type StartSessionInput struct {
	ItemID string
}

type SendMessageInput struct {
	SessionID string
	Text      string
}

type SessionResponse struct {
	*entity.ChatSession
	OtherName string `json:"other_name,omitempty"`
}

// GetOrCreateSession returns the one session for (item, initiator), creating
// it on first contact. The session id is derived before any store access, so
// concurrent first contacts race only on the conditional create; the loser
// re-reads the winner's document. An existing session is returned untouched:
// its lastMessage/updatedAt are never rewritten here.
func (uc *ChatUseCase) GetOrCreateSession(ctx context.Context, initiatorID string, input StartSessionInput) (*SessionResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		logger.Warn("GetOrCreateSession: item %s not found: %v", input.ItemID, err)
		return nil, err
	}

	if item.AuthorID == initiatorID {
		return nil, errors.BadRequest("You cannot start a conversation about your own report", nil)
	}

	sessionID := entity.SessionID(item.ID, initiatorID)

	existing, err := uc.chatRepo.GetSessionByID(ctx, sessionID)
	if err == nil {
		return uc.sessionResponse(existing, initiatorID), nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	allowed, waitTime := uc.rateLimiter.Allow(initiatorID, "start_session")
	if !allowed {
		logger.Warn("GetOrCreateSession rate limited: user %s must wait %v", initiatorID, waitTime)
		return nil, errors.TooManyRequests("Too many new conversations. Please wait before contacting another owner")
	}

	initiatorName := ""
	if initiator, uErr := uc.userRepo.GetByID(ctx, initiatorID); uErr == nil {
		initiatorName = initiator.DisplayName
	} else {
		logger.Warn("GetOrCreateSession: no profile for initiator %s: %v", initiatorID, uErr)
	}

	session := &entity.ChatSession{
		ID:           sessionID,
		Participants: []string{initiatorID, item.AuthorID},
		ParticipantNames: map[string]string{
			initiatorID:   initiatorName,
			item.AuthorID: item.AuthorName,
		},
		ItemID:      item.ID,
		ItemTitle:   item.Title,
		LastMessage: "",
	}

	if err := uc.chatRepo.CreateSession(ctx, session); err != nil {
		if errors.Is(err, "CONFLICT") {
			// Lost the benign duplicate-create race; the stored document is
			// the same deterministic initial state (or already carries newer
			// messages), so read it back.
			winner, gErr := uc.chatRepo.GetSessionByID(ctx, sessionID)
			if gErr != nil {
				return nil, gErr
			}
			return uc.sessionResponse(winner, initiatorID), nil
		}
		logger.Error("GetOrCreateSession: failed to create session %s: %v", sessionID, err)
		return nil, err
	}

	return uc.sessionResponse(session, initiatorID), nil
}

// SendMessage appends to the session log, then advances the session's
// denormalized recency fields. The append is the source of truth: a metadata
// failure is logged and the message still stands.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down")
	}

	session, err := uc.chatRepo.GetSessionByID(ctx, input.SessionID)
	if err != nil {
		logger.Warn("SendMessage: session %s not found: %v", input.SessionID, err)
		return nil, err
	}

	if !session.HasParticipant(senderID) {
		logger.Warn("SendMessage: user %s is not a participant in session %s", senderID, input.SessionID)
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	message := &entity.Message{
		SessionID: input.SessionID,
		SenderID:  senderID,
		Text:      text,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("SendMessage: failed to append message to session %s: %v", input.SessionID, err)
		return nil, err
	}

	if err := uc.chatRepo.TouchSession(ctx, input.SessionID, text, message.CreatedAt); err != nil {
		logger.Warn("SendMessage: failed to touch session %s after append: %v", input.SessionID, err)
	}

	return message, nil
}

func (uc *ChatUseCase) GetSession(ctx context.Context, userID, sessionID string) (*SessionResponse, error) {
	session, err := uc.chatRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	return uc.sessionResponse(session, userID), nil
}

func (uc *ChatUseCase) GetSessionMessages(ctx context.Context, userID, sessionID string, limit, offset int) ([]*entity.Message, int64, error) {
	session, err := uc.chatRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if !session.HasParticipant(userID) {
		return nil, 0, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	messages, total, err := uc.chatRepo.ListMessages(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	sortMessages(messages)
	return messages, total, nil
}

func (uc *ChatUseCase) ListSessions(ctx context.Context, userID string) ([]*SessionResponse, error) {
	sessions, err := uc.chatRepo.ListSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sortSessions(sessions)

	responses := make([]*SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, uc.sessionResponse(session, userID))
	}
	return responses, nil
}

// SubscribeMessages opens a live ordered view of a session's log. The caller
// owns the returned handle and must Close it when the view is torn down.
func (uc *ChatUseCase) SubscribeMessages(ctx context.Context, userID, sessionID string) (repository.MessageSubscription, error) {
	session, err := uc.chatRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	inner, err := uc.chatRepo.SubscribeMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return newOrderedMessageSubscription(inner), nil
}

// SubscribeSessions opens a live view of all of a user's sessions, most
// recently active first.
func (uc *ChatUseCase) SubscribeSessions(ctx context.Context, userID string) (repository.SessionSubscription, error) {
	inner, err := uc.chatRepo.SubscribeSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return newSortedSessionSubscription(inner), nil
}

func (uc *ChatUseCase) sessionResponse(session *entity.ChatSession, userID string) *SessionResponse {
	return &SessionResponse{
		ChatSession: session,
		OtherName:   session.OtherParticipantName(userID),
	}
}

// sortMessages enforces the delivery order: createdAt ascending, ties broken
// by the store-assigned document id.
func sortMessages(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

// sortSessions orders by updatedAt descending; sessions that have never been
// touched sort last.
func sortSessions(sessions []*entity.ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		ti, tj := sessions[i].UpdatedAt, sessions[j].UpdatedAt
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.After(tj)
	})
}

// orderedMessageSubscription re-sorts every snapshot before delivery so
// consumers observe the log in non-decreasing createdAt order regardless of
// transport arrival order.
type orderedMessageSubscription struct {
	inner   repository.MessageSubscription
	updates chan []*entity.Message
}

func newOrderedMessageSubscription(inner repository.MessageSubscription) *orderedMessageSubscription {
	sub := &orderedMessageSubscription{
		inner:   inner,
		updates: make(chan []*entity.Message, 1),
	}
	go func() {
		defer close(sub.updates)
		for snapshot := range inner.Updates() {
			sortMessages(snapshot)
			sub.updates <- snapshot
		}
	}()
	return sub
}

func (s *orderedMessageSubscription) Updates() <-chan []*entity.Message {
	return s.updates
}

func (s *orderedMessageSubscription) Close() {
	s.inner.Close()
}

type sortedSessionSubscription struct {
	inner   repository.SessionSubscription
	updates chan []*entity.ChatSession
}

func newSortedSessionSubscription(inner repository.SessionSubscription) *sortedSessionSubscription {
	sub := &sortedSessionSubscription{
		inner:   inner,
		updates: make(chan []*entity.ChatSession, 1),
	}
	go func() {
		defer close(sub.updates)
		for snapshot := range inner.Updates() {
			sortSessions(snapshot)
			sub.updates <- snapshot
		}
	}()
	return sub
}

func (s *sortedSessionSubscription) Updates() <-chan []*entity.ChatSession {
	return s.updates
}

func (s *sortedSessionSubscription) Close() {
	s.inner.Close()
}
