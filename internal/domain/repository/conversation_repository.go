package repository

import (
	"context"

	"aeroclassifieds/internal/domain/entity"
)

type ConversationRepository interface {
	// GetOrCreate returns the live conversation matching key under mode, or
	// stores conv when there is none. created reports which happened.
	GetOrCreate(ctx context.Context, key entity.DedupKey, mode entity.DedupMode, conv *entity.Conversation) (found *entity.Conversation, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByRole(ctx context.Context, role entity.ParticipantRole, userID string) ([]*entity.Conversation, error)
	ListDeleted(ctx context.Context) ([]*entity.Conversation, error)

	// ApplyMessage overwrites the last-message summary and bumps the unread
	// counter by one when incrementUnread is set.
	ApplyMessage(ctx context.Context, id string, summary *entity.LastMessage, incrementUnread bool) error
	ResetUnread(ctx context.Context, id string) error
	SetFlag(ctx context.Context, id string, flag entity.ConversationFlag, value bool) error
	Delete(ctx context.Context, id string) error

	// WatchByRole blocks, calling fn with the full result set of conversations
	// where userID holds role on every change, until ctx is done.
	WatchByRole(ctx context.Context, role entity.ParticipantRole, userID string, fn func([]*entity.Conversation)) error
}
