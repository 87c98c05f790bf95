package repository

import "findit/internal/domain/entity"

// Live-push subscriptions deliver a full snapshot on open, then a fresh
// snapshot after every change. Close releases the underlying stream; the
// updates channel is closed afterwards and no further delivery happens.

type ItemSubscription interface {
	Updates() <-chan []*entity.ItemReport
	Close()
}

type SessionSubscription interface {
	Updates() <-chan []*entity.ChatSession
	Close()
}

type MessageSubscription interface {
	Updates() <-chan []*entity.Message
	Close()
}
