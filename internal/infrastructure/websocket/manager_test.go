package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"findit/internal/domain/entity"
)

type stubMessageSub struct {
	mu     sync.Mutex
	closed int
	ch     chan []*entity.Message
}

func newStubMessageSub() *stubMessageSub {
	return &stubMessageSub{ch: make(chan []*entity.Message)}
}

func (s *stubMessageSub) Updates() <-chan []*entity.Message { return s.ch }

func (s *stubMessageSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *stubMessageSub) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestShutdownClosesOwnedSubscriptions(t *testing.T) {
	client := NewClient("user-1", nil)

	sub := newStubMessageSub()
	assert.True(t, client.setMessageSub("session-1", sub))
	assert.True(t, client.hasMessageSub("session-1"))

	client.shutdown()

	assert.Equal(t, 1, sub.closeCount())
	assert.False(t, client.hasMessageSub("session-1"))
}

func TestShutdownIsIdempotent(t *testing.T) {
	client := NewClient("user-1", nil)

	sub := newStubMessageSub()
	client.setMessageSub("session-1", sub)

	client.shutdown()
	client.shutdown()

	assert.Equal(t, 1, sub.closeCount())
}

func TestTrySendAfterShutdownIsRefused(t *testing.T) {
	client := NewClient("user-1", nil)

	assert.True(t, client.trySend([]byte("hello")))

	client.shutdown()

	// Must not panic on the closed channel, just refuse.
	assert.False(t, client.trySend([]byte("late")))
}

func TestTrySendRefusesWhenBufferFull(t *testing.T) {
	client := NewClient("user-1", nil)

	for i := 0; i < 256; i++ {
		assert.True(t, client.trySend([]byte("x")))
	}
	assert.False(t, client.trySend([]byte("overflow")))
}

func TestSetMessageSubAfterShutdownIsRefused(t *testing.T) {
	client := NewClient("user-1", nil)
	client.shutdown()

	sub := newStubMessageSub()
	assert.False(t, client.setMessageSub("session-1", sub))
}

func TestSetMessageSubRejectsDuplicateSession(t *testing.T) {
	client := NewClient("user-1", nil)

	first := newStubMessageSub()
	second := newStubMessageSub()
	assert.True(t, client.setMessageSub("session-1", first))
	assert.False(t, client.setMessageSub("session-1", second))
}

func TestRemoveMessageSubIsIdempotent(t *testing.T) {
	client := NewClient("user-1", nil)

	sub := newStubMessageSub()
	client.setMessageSub("session-1", sub)

	client.removeMessageSub("session-1")
	client.removeMessageSub("session-1")

	assert.Equal(t, 1, sub.closeCount())
}

func TestConcurrentSendersDuringShutdown(t *testing.T) {
	client := NewClient("user-1", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				client.trySend([]byte("payload"))
			}
		}()
	}

	client.shutdown()
	wg.Wait()
}
