package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/repository"
	"aeroclassifieds/internal/infrastructure/metrics"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
)

const (
	SubscriptionKindConversations = "conversations"
	SubscriptionKindMessages      = "messages"
)

// SubscriptionUseCase opens live snapshot streams. Callbacks receive the full
// current result set every time and are never invoked concurrently for the
// same subscription.
type SubscriptionUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	metrics  *metrics.Metrics
}

func NewSubscriptionUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, m *metrics.Metrics) *SubscriptionUseCase {
	return &SubscriptionUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		metrics:  m,
	}
}

// ListenToUserConversations watches the conversations the user owns and the
// ones they joined as a customer, and publishes the merged list once both
// streams have produced their first snapshot.
func (uc *SubscriptionUseCase) ListenToUserConversations(ctx context.Context, userID string, onChange func([]*entity.ConversationView)) (Subscription, error) {
	if userID == "" {
		return nil, errors.BadRequest("user is required", nil)
	}
	if onChange == nil {
		return nil, errors.BadRequest("callback is required", nil)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	sub := newStreamSubscription(cancel)
	merger := newConversationMerger(userID, func(views []*entity.ConversationView) {
		uc.metrics.SnapshotDelivered(SubscriptionKindConversations)
		onChange(views)
	})

	g, gctx := errgroup.WithContext(streamCtx)
	for _, role := range []entity.ParticipantRole{entity.RoleOwner, entity.RoleCounterpart} {
		role := role
		g.Go(func() error {
			// either stream ending ends the subscription
			defer cancel()
			return uc.convRepo.WatchByRole(gctx, role, userID, func(list []*entity.Conversation) {
				merger.update(role, list)
			})
		})
	}

	uc.metrics.SubscriptionOpened(SubscriptionKindConversations)
	go func() {
		err := g.Wait()
		uc.metrics.SubscriptionClosed(SubscriptionKindConversations)
		if err != nil {
			logger.Error("Conversation subscription for %s ended: %v", userID, err)
		}
		sub.finish(err)
	}()

	return sub, nil
}

// ListenToConversationMessages watches the messages of one conversation,
// ordered oldest first.
func (uc *SubscriptionUseCase) ListenToConversationMessages(ctx context.Context, conversationID string, onChange func([]*entity.Message)) (Subscription, error) {
	if conversationID == "" {
		return nil, errors.BadRequest("conversation is required", nil)
	}
	if onChange == nil {
		return nil, errors.BadRequest("callback is required", nil)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	sub := newStreamSubscription(cancel)

	uc.metrics.SubscriptionOpened(SubscriptionKindMessages)
	go func() {
		defer cancel()
		err := uc.msgRepo.WatchByConversation(streamCtx, conversationID, func(messages []*entity.Message) {
			sortMessages(messages)
			uc.metrics.SnapshotDelivered(SubscriptionKindMessages)
			onChange(messages)
		})
		uc.metrics.SubscriptionClosed(SubscriptionKindMessages)
		if err != nil {
			logger.Error("Message subscription for conversation %s ended: %v", conversationID, err)
		}
		sub.finish(err)
	}()

	return sub, nil
}

// conversationMerger combines the per-role snapshots of one user.
type conversationMerger struct {
	userID  string
	publish func([]*entity.ConversationView)

	mu     sync.Mutex
	latest map[entity.ParticipantRole][]*entity.Conversation
}

func newConversationMerger(userID string, publish func([]*entity.ConversationView)) *conversationMerger {
	return &conversationMerger{
		userID:  userID,
		publish: publish,
		latest:  make(map[entity.ParticipantRole][]*entity.Conversation, 2),
	}
}

func (m *conversationMerger) update(role entity.ParticipantRole, list []*entity.Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if list == nil {
		list = []*entity.Conversation{}
	}
	m.latest[role] = list

	owned, haveOwned := m.latest[entity.RoleOwner]
	joined, haveJoined := m.latest[entity.RoleCounterpart]
	if !haveOwned || !haveJoined {
		return
	}
	m.publish(buildConversationViews(m.userID, owned, joined))
}
