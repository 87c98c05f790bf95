package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findit/internal/domain/entity"
	"findit/internal/domain/repository"
	"findit/internal/infrastructure/ratelimit"
	"findit/internal/usecase"
	apperrors "findit/pkg/errors"
)

type stubChatRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.ChatSession
	messages map[string][]*entity.Message
	seq      int
	sendErr  error
	msgSub   *stubMessageSub
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{
		sessions: make(map[string]*entity.ChatSession),
		messages: make(map[string][]*entity.Message),
		msgSub:   newStubMessageSub(),
	}
}

func (r *stubChatRepo) CreateSession(ctx context.Context, session *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return apperrors.Conflict("Session already exists")
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *stubChatRepo) GetSessionByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("Session", nil)
	}
	copied := *session
	return &copied, nil
}

func (r *stubChatRepo) ListSessionsByUserID(ctx context.Context, userID string) ([]*entity.ChatSession, error) {
	return nil, nil
}

func (r *stubChatRepo) TouchSession(ctx context.Context, id, lastMessage string, at time.Time) error {
	return nil
}

func (r *stubChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	message.ID = fmt.Sprintf("msg-%d", r.seq)
	message.CreatedAt = time.Now()
	copied := *message
	r.messages[message.SessionID] = append(r.messages[message.SessionID], &copied)
	return nil
}

func (r *stubChatRepo) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[sessionID]
	return all, int64(len(all)), nil
}

func (r *stubChatRepo) SubscribeMessages(ctx context.Context, sessionID string) (repository.MessageSubscription, error) {
	return r.msgSub, nil
}

func (r *stubChatRepo) SubscribeSessions(ctx context.Context, userID string) (repository.SessionSubscription, error) {
	return nil, apperrors.Internal("not available", nil)
}

func newFrameTestEnv(t *testing.T) (*FrameHandler, *stubChatRepo, *Client) {
	t.Helper()
	chatRepo := newStubChatRepo()
	chatRepo.sessions["item-1_finder-1"] = &entity.ChatSession{
		ID:           "item-1_finder-1",
		Participants: []string{"finder-1", "owner-1"},
		ItemID:       "item-1",
		ItemTitle:    "Blue backpack",
	}

	chatUseCase := usecase.NewChatUseCase(chatRepo, nil, nil, ratelimit.NewRateLimiter())
	handler := NewFrameHandler(NewManager(), chatUseCase, nil)
	client := NewClient("finder-1", nil)
	return handler, chatRepo, client
}

func readFrame(t *testing.T, client *Client) ServerFrame {
	t.Helper()
	select {
	case payload, ok := <-client.Send:
		require.True(t, ok, "send channel closed")
		var frame ServerFrame
		require.NoError(t, json.Unmarshal(payload, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return ServerFrame{}
	}
}

func clientFrame(t *testing.T, frame ClientFrame) []byte {
	t.Helper()
	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	return raw
}

func TestSendMessageAckCarriesTempID(t *testing.T) {
	handler, _, client := newFrameTestEnv(t)

	handler.HandleClientFrame(client, clientFrame(t, ClientFrame{
		Type:      FrameTypeSendMessage,
		SessionID: "item-1_finder-1",
		TempID:    "tmp-42",
		Text:      "  is this yours?  ",
	}))

	frame := readFrame(t, client)
	assert.Equal(t, FrameTypeMessageAck, frame.Type)
	assert.Equal(t, "item-1_finder-1", frame.SessionID)
	assert.Equal(t, "tmp-42", frame.TempID)

	data, ok := frame.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "is this yours?", data["text"])
	assert.NotEmpty(t, data["id"])
}

func TestSendFailureRestoresComposerText(t *testing.T) {
	handler, chatRepo, client := newFrameTestEnv(t)
	chatRepo.sendErr = apperrors.Internal("store unavailable", nil)

	handler.HandleClientFrame(client, clientFrame(t, ClientFrame{
		Type:      FrameTypeSendMessage,
		SessionID: "item-1_finder-1",
		TempID:    "tmp-42",
		Text:      "  is this yours?  ",
	}))

	// The failure frame must identify the optimistic echo to retract and
	// carry the original input untouched, so nothing is retyped.
	frame := readFrame(t, client)
	assert.Equal(t, FrameTypeSendFailed, frame.Type)
	assert.Equal(t, "item-1_finder-1", frame.SessionID)
	assert.Equal(t, "tmp-42", frame.TempID)
	assert.Equal(t, "  is this yours?  ", frame.Text)
	assert.NotEmpty(t, frame.Error)
	assert.Empty(t, chatRepo.messages["item-1_finder-1"])
}

func TestWhitespaceSendFailsWithoutStoreWrite(t *testing.T) {
	handler, chatRepo, client := newFrameTestEnv(t)

	handler.HandleClientFrame(client, clientFrame(t, ClientFrame{
		Type:      FrameTypeSendMessage,
		SessionID: "item-1_finder-1",
		TempID:    "tmp-1",
		Text:      "   \n ",
	}))

	frame := readFrame(t, client)
	assert.Equal(t, FrameTypeSendFailed, frame.Type)
	assert.Equal(t, "tmp-1", frame.TempID)
	assert.Empty(t, chatRepo.messages["item-1_finder-1"])
}

func TestSendToForeignSessionIsRefused(t *testing.T) {
	handler, chatRepo, _ := newFrameTestEnv(t)
	stranger := NewClient("stranger-1", nil)

	handler.HandleClientFrame(stranger, clientFrame(t, ClientFrame{
		Type:      FrameTypeSendMessage,
		SessionID: "item-1_finder-1",
		TempID:    "tmp-1",
		Text:      "let me in",
	}))

	frame := readFrame(t, stranger)
	assert.Equal(t, FrameTypeSendFailed, frame.Type)
	assert.Empty(t, chatRepo.messages["item-1_finder-1"])
}

func TestPingPong(t *testing.T) {
	handler, _, client := newFrameTestEnv(t)

	handler.HandleClientFrame(client, clientFrame(t, ClientFrame{Type: FrameTypePing}))

	assert.Equal(t, FrameTypePong, readFrame(t, client).Type)
}

func TestUnknownFrameTypeReportsError(t *testing.T) {
	handler, _, client := newFrameTestEnv(t)

	handler.HandleClientFrame(client, clientFrame(t, ClientFrame{Type: "teleport"}))

	frame := readFrame(t, client)
	assert.Equal(t, FrameTypeError, frame.Type)
	assert.NotEmpty(t, frame.Error)
}

func TestSubscribeMessagesDeniedForNonParticipant(t *testing.T) {
	handler, _, _ := newFrameTestEnv(t)
	stranger := NewClient("stranger-1", nil)

	handler.HandleClientFrame(stranger, clientFrame(t, ClientFrame{
		Type:      FrameTypeSubscribeMessages,
		SessionID: "item-1_finder-1",
	}))

	frame := readFrame(t, stranger)
	assert.Equal(t, FrameTypeError, frame.Type)
	assert.False(t, stranger.hasMessageSub("item-1_finder-1"))
}

func TestSubscribeMessagesForwardsSnapshots(t *testing.T) {
	handler, chatRepo, client := newFrameTestEnv(t)

	handler.HandleClientFrame(client, clientFrame(t, ClientFrame{
		Type:      FrameTypeSubscribeMessages,
		SessionID: "item-1_finder-1",
	}))
	require.True(t, client.hasMessageSub("item-1_finder-1"))

	chatRepo.msgSub.ch <- []*entity.Message{
		{ID: "msg-1", SessionID: "item-1_finder-1", SenderID: "owner-1", Text: "yes, it is mine"},
	}

	frame := readFrame(t, client)
	assert.Equal(t, FrameTypeMessageSnapshot, frame.Type)
	assert.Equal(t, "item-1_finder-1", frame.SessionID)

	snapshot, ok := frame.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, snapshot, 1)
}
