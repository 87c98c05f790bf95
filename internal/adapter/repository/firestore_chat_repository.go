package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"findit/internal/domain/entity"
	"findit/internal/domain/repository"
	"findit/pkg/errors"
	"findit/pkg/logger"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// CreateSession relies on Firestore's conditional create: the write fails with
// ALREADY_EXISTS when the document is present, which turns the
// check-then-write race into a detectable no-op instead of an overwrite.
func (r *firestoreChatRepository) CreateSession(ctx context.Context, session *entity.ChatSession) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.client.Collection(chatsCollection).Doc(session.ID).Create(ctx, session)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Chat session already exists")
		}
		return errors.Internal("Failed to create chat session", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetSessionByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	doc, err := r.client.Collection(chatsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat session", err)
		}
		return nil, errors.Internal("Failed to get chat session", err)
	}

	var session entity.ChatSession
	if err := doc.DataTo(&session); err != nil {
		return nil, errors.Internal("Failed to parse chat session data", err)
	}
	session.ID = doc.Ref.ID

	return &session, nil
}

func (r *firestoreChatRepository) ListSessionsByUserID(ctx context.Context, userID string) ([]*entity.ChatSession, error) {
	query := r.client.Collection(chatsCollection).Where("participants", "array-contains", userID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching sessions for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch chat sessions", err)
	}

	var sessions []*entity.ChatSession
	for _, doc := range docs {
		var session entity.ChatSession
		if err := doc.DataTo(&session); err != nil {
			logger.Warn("Skipping malformed session document %s: %v", doc.Ref.ID, err)
			continue
		}
		session.ID = doc.Ref.ID
		sessions = append(sessions, &session)
	}

	return sessions, nil
}

// TouchSession updates only the denormalized recency fields. A field-level
// update can never clobber participants or name snapshots written by a
// concurrent creation.
func (r *firestoreChatRepository) TouchSession(ctx context.Context, id, lastMessage string, at time.Time) error {
	_, err := r.client.Collection(chatsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: lastMessage},
		{Path: "updatedAt", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat session", err)
		}
		return errors.Internal("Failed to update chat session", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	_, err := r.client.Collection(chatsCollection).Doc(message.SessionID).
		Collection(messagesCollection).Doc(message.ID).Create(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

// ListMessages orders by createdAt with the document id as secondary key, so
// timestamp ties keep a stable order across page boundaries.
func (r *firestoreChatRepository) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection(chatsCollection).Doc(sessionID).
		Collection(messagesCollection).
		OrderBy("createdAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for session %s: %v", sessionID, err)
		return nil, 0, errors.Internal("Failed to fetch messages", err)
	}

	all := messagesFromSnapshots(docs)
	total := int64(len(all))

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

func (r *firestoreChatRepository) SubscribeMessages(ctx context.Context, sessionID string) (repository.MessageSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	query := r.client.Collection(chatsCollection).Doc(sessionID).
		Collection(messagesCollection).
		OrderBy("createdAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)
	snaps := query.Snapshots(ctx)

	sub := &messageSubscription{
		updates: make(chan []*entity.Message, 1),
		stop:    cancel,
	}

	go func() {
		defer close(sub.updates)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Message subscription for session %s terminated: %v", sessionID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("Failed to read message snapshot for session %s: %v", sessionID, err)
				continue
			}

			select {
			case sub.updates <- messagesFromSnapshots(docs):
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func (r *firestoreChatRepository) SubscribeSessions(ctx context.Context, userID string) (repository.SessionSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	query := r.client.Collection(chatsCollection).Where("participants", "array-contains", userID)
	snaps := query.Snapshots(ctx)

	sub := &sessionSubscription{
		updates: make(chan []*entity.ChatSession, 1),
		stop:    cancel,
	}

	go func() {
		defer close(sub.updates)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Session subscription for user %s terminated: %v", userID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("Failed to read session snapshot for user %s: %v", userID, err)
				continue
			}

			var sessions []*entity.ChatSession
			for _, doc := range docs {
				var session entity.ChatSession
				if err := doc.DataTo(&session); err != nil {
					logger.Warn("Skipping malformed session document %s: %v", doc.Ref.ID, err)
					continue
				}
				session.ID = doc.Ref.ID
				sessions = append(sessions, &session)
			}

			select {
			case sub.updates <- sessions:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func messagesFromSnapshots(docs []*firestore.DocumentSnapshot) []*entity.Message {
	var messages []*entity.Message
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message document %s: %v", doc.Ref.ID, err)
			continue
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}
	return messages
}

type messageSubscription struct {
	updates chan []*entity.Message
	stop    context.CancelFunc
}

func (s *messageSubscription) Updates() <-chan []*entity.Message {
	return s.updates
}

func (s *messageSubscription) Close() {
	s.stop()
}

type sessionSubscription struct {
	updates chan []*entity.ChatSession
	stop    context.CancelFunc
}

func (s *sessionSubscription) Updates() <-chan []*entity.ChatSession {
	return s.updates
}

func (s *sessionSubscription) Close() {
	s.stop()
}
