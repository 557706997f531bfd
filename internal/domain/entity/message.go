package entity

import (
	"strings"
	"time"
)

const (
	AttachmentTypeImage = "image"

	// EphemeralScheme prefixes references to staged bytes that have not been
	// uploaded to the blob store yet.
	EphemeralScheme = "blob:"

	// AttachmentPlaceholder is stored as content for attachment-only messages.
	AttachmentPlaceholder = "📷 Image"
)

type Attachment struct {
	Type     string `json:"type" firestore:"type"`
	URL      string `json:"url" firestore:"url"`
	Filename string `json:"filename" firestore:"filename"`
}

func (a *Attachment) IsEphemeral() bool {
	return a != nil && strings.HasPrefix(a.URL, EphemeralScheme)
}

// Message records are append-only.
type Message struct {
	ID             string      `json:"id" firestore:"id"`
	ConversationID string      `json:"conversation_id" firestore:"conversationId"`
	SenderID       string      `json:"sender_id" firestore:"senderId"`
	SenderName     string      `json:"sender_name" firestore:"senderName"`
	SenderAvatar   string      `json:"sender_avatar,omitempty" firestore:"senderAvatar,omitempty"`
	Content        string      `json:"content" firestore:"content"`
	Timestamp      time.Time   `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	Attachment     *Attachment `json:"attachment,omitempty" firestore:"attachment,omitempty"`
	IsRead         bool        `json:"is_read" firestore:"isRead"`
}

func (m *Message) Summary() *LastMessage {
	return &LastMessage{
		Content:    m.Content,
		SenderID:   m.SenderID,
		Timestamp:  m.Timestamp,
		Attachment: m.Attachment,
	}
}
