package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"findit/internal/domain/repository"
	"findit/pkg/logger"
)

// Client represents one WebSocket connection and the live subscriptions it
// owns. Subscriptions are torn down when the connection goes away, so a
// dropped socket can never leak an open snapshot stream.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu          sync.Mutex
	closed      bool
	messageSubs map[string]repository.MessageSubscription
	sessionSub  repository.SessionSubscription
	itemSub     repository.ItemSubscription
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID:      userID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		messageSubs: make(map[string]repository.MessageSubscription),
	}
}

// Manager tracks all active WebSocket connections
type Manager struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = true
				m.mutex.Unlock()
				logger.Info("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				delete(m.clients, client)
				m.mutex.Unlock()
				client.shutdown()
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *Client) setMessageSub(sessionID string, sub repository.MessageSubscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if _, exists := c.messageSubs[sessionID]; exists {
		return false
	}
	c.messageSubs[sessionID] = sub
	return true
}

func (c *Client) hasMessageSub(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.messageSubs[sessionID]
	return exists
}

// removeMessageSub is idempotent: unsubscribing twice is silent.
func (c *Client) removeMessageSub(sessionID string) {
	c.mu.Lock()
	sub := c.messageSubs[sessionID]
	delete(c.messageSubs, sessionID)
	c.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (c *Client) setSessionSub(sub repository.SessionSubscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sessionSub != nil {
		return false
	}
	c.sessionSub = sub
	return true
}

func (c *Client) removeSessionSub() {
	c.mu.Lock()
	sub := c.sessionSub
	c.sessionSub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (c *Client) setItemSub(sub repository.ItemSubscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.itemSub != nil {
		return false
	}
	c.itemSub = sub
	return true
}

func (c *Client) removeItemSub() {
	c.mu.Lock()
	sub := c.itemSub
	c.itemSub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// trySend enqueues a payload unless the client is shut down or its buffer is
// full. Serializing against shutdown keeps late subscription snapshots from
// hitting a closed channel.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel and every live subscription the
// connection owns. Idempotent; safe against concurrent senders.
func (c *Client) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	messageSubs := c.messageSubs
	sessionSub := c.sessionSub
	itemSub := c.itemSub
	c.messageSubs = make(map[string]repository.MessageSubscription)
	c.sessionSub = nil
	c.itemSub = nil
	c.mu.Unlock()

	for _, sub := range messageSubs {
		sub.Close()
	}
	if sessionSub != nil {
		sessionSub.Close()
	}
	if itemSub != nil {
		itemSub.Close()
	}
}

// ReadPump reads frames from the connection and hands them to the handler
func (c *Client) ReadPump(m *Manager, handler *FrameHandler) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		handler.HandleClientFrame(c, raw)
	}
}

// WritePump sends queued frames to the connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("WebSocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
