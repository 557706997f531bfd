package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/usecase"
	"aeroclassifieds/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 32
)

// SnapshotSource opens the live streams a client can follow.
type SnapshotSource interface {
	ListenToUserConversations(ctx context.Context, userID string, onChange func([]*entity.ConversationView)) (usecase.Subscription, error)
	ListenToConversationMessages(ctx context.Context, conversationID string, onChange func([]*entity.Message)) (usecase.Subscription, error)
}

type ConversationReader interface {
	GetConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error)
}

type ReadMarker interface {
	MarkMessagesAsRead(ctx context.Context, conversationID, userID string) error
}

type Services struct {
	Subscriptions SnapshotSource
	Conversations ConversationReader
	Messages      ReadMarker
}

// Client is one websocket connection of a user. A user may hold several.
type Client struct {
	UserID string
	Conn   *websocket.Conn

	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	conversations usecase.SubscriptionHandle
	messages      usecase.SubscriptionHandle

	mu                 sync.Mutex
	activeConversation string
}

func NewClient(parent context.Context, userID string, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(parent)
	return &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Deliver queues a frame without blocking. A client that cannot keep up is
// disconnected and gets a fresh snapshot when it resubscribes.
func (c *Client) Deliver(message WSMessage) {
	if message.Timestamp == "" {
		message.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	messageBytes, err := json.Marshal(message)
	if err != nil {
		logger.Error("WebSocket: Failed to marshal %s for client %s: %v", message.Type, c.UserID, err)
		return
	}

	select {
	case <-c.ctx.Done():
	case c.send <- messageBytes:
	default:
		logger.Warn("WebSocket: Client %s send buffer full, closing connection", c.UserID)
		c.cancel()
	}
}

func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Client) ActiveConversation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeConversation
}

func (c *Client) setActiveConversation(id string) {
	c.mu.Lock()
	c.activeConversation = id
	c.mu.Unlock()
}

// close stops both subscriptions. It must not run on a subscription callback.
func (c *Client) close() {
	c.cancel()
	c.conversations.Close()
	c.messages.Close()
}

// Manager tracks every live client and dispatches their frames.
type Manager struct {
	services Services

	mutex   sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewManager(services Services) *Manager {
	return &Manager{
		services: services,
		clients:  make(map[string]map[*Client]struct{}),
	}
}

func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	set, ok := m.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[client.UserID] = set
	}
	set[client] = struct{}{}
	m.mutex.Unlock()

	logger.Info("Client registered: %s", client.UserID)
}

func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	if set, ok := m.clients[client.UserID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(m.clients, client.UserID)
		}
	}
	m.mutex.Unlock()

	client.close()
	logger.Info("Client unregistered: %s", client.UserID)
}

func (m *Manager) ConnectionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	total := 0
	for _, set := range m.clients {
		total += len(set)
	}
	return total
}

func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// Shutdown disconnects every client.
func (m *Manager) Shutdown() {
	m.mutex.Lock()
	all := make([]*Client, 0)
	for _, set := range m.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	m.clients = make(map[string]map[*Client]struct{})
	m.mutex.Unlock()

	for _, c := range all {
		c.close()
	}
}

// ReadPump reads frames from the connection until it fails or the client is
// closed, then unregisters the client.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket: read error for %s: %v", c.UserID, err)
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump drains queued frames to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("WebSocket: write error for %s: %v", c.UserID, err)
				c.cancel()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}

		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
