package websocket

import (
	"context"
	"encoding/json"
	"time"

	"findit/internal/usecase"
	"findit/pkg/logger"
)

// Frame types
const (
	FrameTypePing = "ping"
	FrameTypePong = "pong"

	FrameTypeSendMessage = "send_message"
	FrameTypeMessageAck  = "message_ack"
	FrameTypeSendFailed  = "send_failed"

	FrameTypeSubscribeMessages   = "subscribe_messages"
	FrameTypeUnsubscribeMessages = "unsubscribe_messages"
	FrameTypeMessageSnapshot     = "message_snapshot"

	FrameTypeSubscribeSessions   = "subscribe_sessions"
	FrameTypeUnsubscribeSessions = "unsubscribe_sessions"
	FrameTypeSessionSnapshot     = "session_snapshot"

	FrameTypeSubscribeItems   = "subscribe_items"
	FrameTypeUnsubscribeItems = "unsubscribe_items"
	FrameTypeItemSnapshot     = "item_snapshot"

	FrameTypeError = "error"
)

// ClientFrame is what clients send over the socket
type ClientFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	TempID    string `json:"temp_id,omitempty"`
	Text      string `json:"text,omitempty"`
}

// ServerFrame is what the server pushes back. TempID lets the client
// reconcile an optimistic echo against the authoritative result; on
// send_failed, Text carries the original input so the composer can be
// repopulated without retyping.
type ServerFrame struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	TempID    string      `json:"temp_id,omitempty"`
	Text      string      `json:"text,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// FrameHandler processes incoming WebSocket frames
type FrameHandler struct {
	manager     *Manager
	chatUseCase *usecase.ChatUseCase
	itemUseCase *usecase.ItemUseCase
}

func NewFrameHandler(manager *Manager, chatUseCase *usecase.ChatUseCase, itemUseCase *usecase.ItemUseCase) *FrameHandler {
	return &FrameHandler{
		manager:     manager,
		chatUseCase: chatUseCase,
		itemUseCase: itemUseCase,
	}
}

func (h *FrameHandler) HandleClientFrame(client *Client, raw []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("WebSocket: invalid frame from %s: %v", client.UserID, err)
		h.sendError(client, "Invalid frame format")
		return
	}

	switch frame.Type {
	case FrameTypePing:
		h.send(client, ServerFrame{Type: FrameTypePong})

	case FrameTypeSendMessage:
		h.handleSendMessage(client, frame)

	case FrameTypeSubscribeMessages:
		h.handleSubscribeMessages(client, frame)

	case FrameTypeUnsubscribeMessages:
		client.removeMessageSub(frame.SessionID)

	case FrameTypeSubscribeSessions:
		h.handleSubscribeSessions(client)

	case FrameTypeUnsubscribeSessions:
		client.removeSessionSub()

	case FrameTypeSubscribeItems:
		h.handleSubscribeItems(client)

	case FrameTypeUnsubscribeItems:
		client.removeItemSub()

	default:
		logger.Warn("WebSocket: unknown frame type %q from %s", frame.Type, client.UserID)
		h.sendError(client, "Unknown frame type")
	}
}

// handleSendMessage appends through the chat use case. Failure is reported
// with the original text so the client can retract its optimistic echo and
// restore the composer; success is acknowledged with the authoritative
// message keyed by the client's temp id.
func (h *FrameHandler) handleSendMessage(client *Client, frame ClientFrame) {
	message, err := h.chatUseCase.SendMessage(context.Background(), client.UserID, usecase.SendMessageInput{
		SessionID: frame.SessionID,
		Text:      frame.Text,
	})
	if err != nil {
		logger.Warn("WebSocket: send failed for %s in session %s: %v", client.UserID, frame.SessionID, err)
		h.send(client, ServerFrame{
			Type:      FrameTypeSendFailed,
			SessionID: frame.SessionID,
			TempID:    frame.TempID,
			Text:      frame.Text,
			Error:     err.Error(),
		})
		return
	}

	h.send(client, ServerFrame{
		Type:      FrameTypeMessageAck,
		SessionID: frame.SessionID,
		TempID:    frame.TempID,
		Data:      message,
	})
}

func (h *FrameHandler) handleSubscribeMessages(client *Client, frame ClientFrame) {
	if frame.SessionID == "" {
		h.sendError(client, "Missing session_id")
		return
	}
	if client.hasMessageSub(frame.SessionID) {
		return
	}

	sub, err := h.chatUseCase.SubscribeMessages(context.Background(), client.UserID, frame.SessionID)
	if err != nil {
		logger.Warn("WebSocket: message subscription denied for %s on %s: %v", client.UserID, frame.SessionID, err)
		h.sendError(client, err.Error())
		return
	}

	if !client.setMessageSub(frame.SessionID, sub) {
		// A concurrent subscribe for the same session won.
		sub.Close()
		return
	}

	sessionID := frame.SessionID
	go func() {
		for snapshot := range sub.Updates() {
			h.send(client, ServerFrame{
				Type:      FrameTypeMessageSnapshot,
				SessionID: sessionID,
				Data:      snapshot,
			})
		}
	}()
}

func (h *FrameHandler) handleSubscribeSessions(client *Client) {
	sub, err := h.chatUseCase.SubscribeSessions(context.Background(), client.UserID)
	if err != nil {
		logger.Warn("WebSocket: session subscription failed for %s: %v", client.UserID, err)
		h.sendError(client, err.Error())
		return
	}

	if !client.setSessionSub(sub) {
		sub.Close()
		return
	}

	go func() {
		for snapshot := range sub.Updates() {
			h.send(client, ServerFrame{
				Type: FrameTypeSessionSnapshot,
				Data: snapshot,
			})
		}
	}()
}

func (h *FrameHandler) handleSubscribeItems(client *Client) {
	sub, err := h.itemUseCase.SubscribeItems(context.Background())
	if err != nil {
		logger.Warn("WebSocket: item subscription failed for %s: %v", client.UserID, err)
		h.sendError(client, err.Error())
		return
	}

	if !client.setItemSub(sub) {
		sub.Close()
		return
	}

	go func() {
		for snapshot := range sub.Updates() {
			h.send(client, ServerFrame{
				Type: FrameTypeItemSnapshot,
				Data: snapshot,
			})
		}
	}()
}

func (h *FrameHandler) send(client *Client, frame ServerFrame) {
	frame.Timestamp = time.Now().Format(time.RFC3339)

	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("WebSocket: failed to marshal frame for %s: %v", client.UserID, err)
		return
	}

	if !client.trySend(payload) {
		logger.Warn("WebSocket: client %s unreachable, dropping frame %s", client.UserID, frame.Type)
	}
}

func (h *FrameHandler) sendError(client *Client, message string) {
	h.send(client, ServerFrame{
		Type:  FrameTypeError,
		Error: message,
	})
}
