package repository

import (
	"context"

	"aeroclassifieds/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)
	Delete(ctx context.Context, id string) error
	// DeleteByConversation removes every message of the conversation and
	// reports how many were deleted.
	DeleteByConversation(ctx context.Context, conversationID string) (int, error)

	WatchByConversation(ctx context.Context, conversationID string, fn func([]*entity.Message)) error
}
