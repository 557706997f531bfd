package websocket

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
)

// WebSocket Message Types
const (
	MessageTypePing                   = "ping"
	MessageTypePong                   = "pong"
	MessageTypeSubscribeConversations = "subscribe_conversations"
	MessageTypeSubscribeMessages      = "subscribe_messages"
	MessageTypeUnsubscribeMessages    = "unsubscribe_messages"
	MessageTypeMarkRead               = "mark_read"
	MessageTypeConversationsSnapshot  = "conversations_snapshot"
	MessageTypeMessagesSnapshot       = "messages_snapshot"
	MessageTypeError                  = "error"
)

// WebSocket Message Structure
type WSMessage struct {
	Type           string      `json:"type"`
	Data           interface{} `json:"data,omitempty"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

type ErrorData struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var wsMessage WSMessage

	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		logger.Warn("WebSocket: Failed to unmarshal message from client %s: %v", client.UserID, err)
		sendError(client, "", errors.BadRequest("Invalid message format", err))
		return
	}

	logger.Debug("WebSocket: Received message type '%s' from client %s", wsMessage.Type, client.UserID)

	switch wsMessage.Type {
	case MessageTypePing:
		client.Deliver(WSMessage{
			Type: MessageTypePong,
			Data: map[string]string{"status": "alive"},
		})

	case MessageTypeSubscribeConversations:
		m.handleSubscribeConversations(client)

	case MessageTypeSubscribeMessages:
		m.handleSubscribeMessages(client, wsMessage.ConversationID)

	case MessageTypeUnsubscribeMessages:
		client.messages.Close()
		client.setActiveConversation("")

	case MessageTypeMarkRead:
		m.handleMarkRead(client, wsMessage.ConversationID)

	default:
		logger.Warn("WebSocket: Unknown message type '%s' from client %s", wsMessage.Type, client.UserID)
		sendError(client, wsMessage.ConversationID, errors.BadRequest("Unknown message type", nil))
	}
}

func (m *Manager) handleSubscribeConversations(client *Client) {
	sub, err := m.services.Subscriptions.ListenToUserConversations(client.ctx, client.UserID, func(views []*entity.ConversationView) {
		client.Deliver(WSMessage{Type: MessageTypeConversationsSnapshot, Data: views})
	})
	if err != nil {
		sendError(client, "", err)
		return
	}
	client.conversations.Replace(sub)
}

func (m *Manager) handleSubscribeMessages(client *Client, conversationID string) {
	if conversationID == "" {
		sendError(client, "", errors.BadRequest("Missing conversation_id", nil))
		return
	}
	if _, err := m.services.Conversations.GetConversation(client.ctx, client.UserID, conversationID); err != nil {
		sendError(client, conversationID, err)
		return
	}

	sub, err := m.services.Subscriptions.ListenToConversationMessages(client.ctx, conversationID, func(messages []*entity.Message) {
		client.Deliver(WSMessage{
			Type:           MessageTypeMessagesSnapshot,
			Data:           messages,
			ConversationID: conversationID,
		})
	})
	if err != nil {
		sendError(client, conversationID, err)
		return
	}

	client.messages.Replace(sub)
	client.setActiveConversation(conversationID)
	logger.Debug("WebSocket: Client %s opened conversation %s", client.UserID, conversationID)
}

func (m *Manager) handleMarkRead(client *Client, conversationID string) {
	if conversationID == "" {
		conversationID = client.ActiveConversation()
	}
	if conversationID == "" {
		sendError(client, "", errors.BadRequest("Missing conversation_id", nil))
		return
	}

	if err := m.services.Messages.MarkMessagesAsRead(client.ctx, conversationID, client.UserID); err != nil {
		logger.Error("WebSocket: mark read failed for %s in %s: %v", client.UserID, conversationID, err)
		sendError(client, conversationID, err)
	}
}

func sendError(client *Client, conversationID string, err error) {
	data := ErrorData{Code: errors.CodeInternal, Error: "Internal server error"}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		data = ErrorData{Code: appErr.Code, Error: appErr.Message}
	}

	client.Deliver(WSMessage{
		Type:           MessageTypeError,
		Data:           data,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}
