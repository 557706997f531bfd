package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/pkg/errors"
)

type MessageRepository struct {
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]*entity.Message
	feed  *notifier
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		Now:   time.Now,
		items: make(map[string]*entity.Message),
		feed:  newNotifier(),
	}
}

func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	r.mu.Lock()
	if _, exists := r.items[message.ID]; exists {
		r.mu.Unlock()
		return errors.Conflict("Message already exists")
	}
	message.Timestamp = r.Now()
	r.items[message.ID] = cloneMessage(message)
	r.mu.Unlock()

	r.feed.notify()
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	message, ok := r.items[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return cloneMessage(message), nil
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Message, 0)
	for _, m := range r.items {
		if m.ConversationID == conversationID {
			out = append(out, cloneMessage(m))
		}
	}
	return out, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
	r.feed.notify()
	return nil
}

func (r *MessageRepository) DeleteByConversation(ctx context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	deleted := 0
	for id, m := range r.items {
		if m.ConversationID == conversationID {
			delete(r.items, id)
			deleted++
		}
	}
	r.mu.Unlock()

	if deleted > 0 {
		r.feed.notify()
	}
	return deleted, nil
}

func (r *MessageRepository) WatchByConversation(ctx context.Context, conversationID string, fn func([]*entity.Message)) error {
	return r.feed.watch(ctx, func() {
		list, _ := r.ListByConversation(ctx, conversationID)
		fn(list)
	})
}

func cloneMessage(m *entity.Message) *entity.Message {
	cp := *m
	cp.Attachment = cloneAttachment(m.Attachment)
	return &cp
}
