package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/pkg/errors"
)

// ConversationRepository is an in-memory ConversationRepository used by tests
// and local runs without Firestore.
type ConversationRepository struct {
	// Now stamps server-side timestamps. Tests swap it for a fake clock.
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]*entity.Conversation
	feed  *notifier
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		Now:   time.Now,
		items: make(map[string]*entity.Conversation),
		feed:  newNotifier(),
	}
}

func (r *ConversationRepository) GetOrCreate(ctx context.Context, key entity.DedupKey, mode entity.DedupMode, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	r.mu.Lock()
	for _, existing := range r.items {
		if !existing.IsDeleted && key.Matches(existing, mode) {
			r.mu.Unlock()
			return cloneConversation(existing), false, nil
		}
	}

	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	now := r.Now()
	conv.CreatedAt = now
	conv.LastMessageTime = now
	r.items[conv.ID] = cloneConversation(conv)
	r.mu.Unlock()

	r.feed.notify()
	return conv, true, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.items[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) ListByRole(ctx context.Context, role entity.ParticipantRole, userID string) ([]*entity.Conversation, error) {
	return r.filter(func(c *entity.Conversation) bool {
		if role == entity.RoleOwner {
			return c.OwnerID == userID
		}
		return c.CounterpartID == userID
	}), nil
}

func (r *ConversationRepository) ListDeleted(ctx context.Context) ([]*entity.Conversation, error) {
	return r.filter(func(c *entity.Conversation) bool { return c.IsDeleted }), nil
}

func (r *ConversationRepository) ApplyMessage(ctx context.Context, id string, summary *entity.LastMessage, incrementUnread bool) error {
	return r.mutate(id, func(c *entity.Conversation) {
		now := r.Now()
		last := *summary
		last.Timestamp = now
		c.LastMessage = &last
		c.LastMessageTime = now
		if incrementUnread {
			c.UnreadCount++
		}
	})
}

func (r *ConversationRepository) ResetUnread(ctx context.Context, id string) error {
	return r.mutate(id, func(c *entity.Conversation) { c.UnreadCount = 0 })
}

func (r *ConversationRepository) SetFlag(ctx context.Context, id string, flag entity.ConversationFlag, value bool) error {
	return r.mutate(id, func(c *entity.Conversation) {
		switch flag {
		case entity.FlagStarred:
			c.IsStarred = value
		case entity.FlagArchived:
			c.IsArchived = value
		case entity.FlagDeleted:
			c.IsDeleted = value
		}
	})
}

func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
	r.feed.notify()
	return nil
}

func (r *ConversationRepository) WatchByRole(ctx context.Context, role entity.ParticipantRole, userID string, fn func([]*entity.Conversation)) error {
	return r.feed.watch(ctx, func() {
		list, _ := r.ListByRole(ctx, role, userID)
		fn(list)
	})
}

func (r *ConversationRepository) mutate(id string, apply func(*entity.Conversation)) error {
	r.mu.Lock()
	conv, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Conversation", nil)
	}
	apply(conv)
	r.mu.Unlock()

	r.feed.notify()
	return nil
}

func (r *ConversationRepository) filter(keep func(*entity.Conversation) bool) []*entity.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Conversation, 0)
	for _, c := range r.items {
		if keep(c) {
			out = append(out, cloneConversation(c))
		}
	}
	return out
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	cp := *c
	if c.LastMessage != nil {
		last := *c.LastMessage
		last.Attachment = cloneAttachment(c.LastMessage.Attachment)
		cp.LastMessage = &last
	}
	return &cp
}

func cloneAttachment(a *entity.Attachment) *entity.Attachment {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
