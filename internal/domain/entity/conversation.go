package entity

import "time"

// ParticipantRole is the fixed role a user occupies in a Conversation.
type ParticipantRole string

const (
	RoleOwner       ParticipantRole = "owner"       // ad owner
	RoleCounterpart ParticipantRole = "counterpart" // customer
)

// ConversationFlag names a boolean field that lifecycle operations flip.
type ConversationFlag string

const (
	FlagStarred  ConversationFlag = "isStarred"
	FlagArchived ConversationFlag = "isArchived"
	FlagDeleted  ConversationFlag = "isDeleted"
)

// LastMessage is the denormalized copy of the newest Message kept on the conversation.
type LastMessage struct {
	Content    string      `json:"content" firestore:"content"`
	SenderID   string      `json:"sender_id" firestore:"senderId"`
	Timestamp  time.Time   `json:"timestamp" firestore:"timestamp"`
	Attachment *Attachment `json:"attachment,omitempty" firestore:"attachment,omitempty"`
}

type Conversation struct {
	ID                string       `json:"id" firestore:"id"`
	OwnerID           string       `json:"owner_id" firestore:"ownerId"`
	OwnerName         string       `json:"owner_name" firestore:"ownerName"`
	OwnerAvatar       string       `json:"owner_avatar,omitempty" firestore:"ownerAvatar,omitempty"`
	CounterpartID     string       `json:"counterpart_id" firestore:"counterpartId"`
	CounterpartName   string       `json:"counterpart_name" firestore:"counterpartName"`
	CounterpartAvatar string       `json:"counterpart_avatar,omitempty" firestore:"counterpartAvatar,omitempty"`
	ListingID         string       `json:"listing_id" firestore:"listingId"`
	ListingTitle      string       `json:"listing_title" firestore:"listingTitle"`
	LastMessage       *LastMessage `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageTime   time.Time    `json:"last_message_time" firestore:"lastMessageTime,serverTimestamp"`
	UnreadCount       int64        `json:"unread_count" firestore:"unreadCount"`
	IsStarred         bool         `json:"is_starred" firestore:"isStarred"`
	IsArchived        bool         `json:"is_archived" firestore:"isArchived"`
	IsDeleted         bool         `json:"is_deleted" firestore:"isDeleted"`
	CreatedAt         time.Time    `json:"created_at" firestore:"createdAt,serverTimestamp"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.OwnerID == userID || c.CounterpartID == userID)
}

// RoleOf reports which side userID is on. ok is false for non-participants.
func (c *Conversation) RoleOf(userID string) (role ParticipantRole, ok bool) {
	switch userID {
	case "":
		return "", false
	case c.OwnerID:
		return RoleOwner, true
	case c.CounterpartID:
		return RoleCounterpart, true
	}
	return "", false
}

// OtherParticipant returns the id on the opposite side of userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if userID == c.OwnerID {
		return c.CounterpartID
	}
	return c.OwnerID
}

// ConversationView is the per-viewer shape pushed to clients.
type ConversationView struct {
	*Conversation
	Role            ParticipantRole `json:"role"`
	OtherUserID     string          `json:"other_user_id"`
	OtherUserName   string          `json:"other_user_name"`
	OtherUserAvatar string          `json:"other_user_avatar,omitempty"`
}

func NewConversationView(c *Conversation, viewerID string) *ConversationView {
	role, _ := c.RoleOf(viewerID)
	view := &ConversationView{Conversation: c, Role: role}
	if role == RoleOwner {
		view.OtherUserID = c.CounterpartID
		view.OtherUserName = c.CounterpartName
		view.OtherUserAvatar = c.CounterpartAvatar
	} else {
		view.OtherUserID = c.OwnerID
		view.OtherUserName = c.OwnerName
		view.OtherUserAvatar = c.OwnerAvatar
	}
	return view
}
