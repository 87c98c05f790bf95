package repository

import (
	"context"
	"time"

	"findit/internal/domain/entity"
)

type ChatRepository interface {
	// CreateSession is a conditional create keyed on session.ID: it fails with
	// CONFLICT when the document already exists instead of overwriting it.
	CreateSession(ctx context.Context, session *entity.ChatSession) error
	GetSessionByID(ctx context.Context, id string) (*entity.ChatSession, error)
	ListSessionsByUserID(ctx context.Context, userID string) ([]*entity.ChatSession, error)
	// TouchSession advances lastMessage/updatedAt only; it must not rewrite any
	// other session field.
	TouchSession(ctx context.Context, id, lastMessage string, at time.Time) error

	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]*entity.Message, int64, error)

	SubscribeMessages(ctx context.Context, sessionID string) (MessageSubscription, error)
	SubscribeSessions(ctx context.Context, userID string) (SessionSubscription, error)
}
