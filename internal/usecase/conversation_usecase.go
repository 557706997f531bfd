package usecase

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/repository"
	"aeroclassifieds/internal/infrastructure/metrics"
	"aeroclassifieds/internal/infrastructure/ratelimit"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
)

type ConversationUseCase struct {
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	dedupMode   entity.DedupMode
	rateLimiter *ratelimit.RateLimiter
	metrics     *metrics.Metrics
}

func NewConversationUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	dedupMode entity.DedupMode,
	rateLimiter *ratelimit.RateLimiter,
	m *metrics.Metrics,
) *ConversationUseCase {
	if dedupMode == "" {
		dedupMode = entity.DedupDirectional
	}
	return &ConversationUseCase{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		dedupMode:   dedupMode,
		rateLimiter: rateLimiter,
		metrics:     m,
	}
}

type GetOrCreateConversationInput struct {
	OwnerID           string
	OwnerName         string
	OwnerAvatar       string
	CounterpartID     string
	CounterpartName   string
	CounterpartAvatar string
	ListingID         string
	ListingTitle      string
}

func (uc *ConversationUseCase) DedupMode() entity.DedupMode {
	return uc.dedupMode
}

// GetOrCreateConversation returns the id of the conversation for the owner,
// counterpart and listing, creating it on first contact. An existing record is
// returned as is; its denormalized names and title are not refreshed.
func (uc *ConversationUseCase) GetOrCreateConversation(ctx context.Context, input GetOrCreateConversationInput) (string, error) {
	if input.OwnerID == "" || input.CounterpartID == "" || input.ListingID == "" {
		return "", errors.BadRequest("owner, counterpart and listing are required", nil)
	}
	if input.OwnerID == input.CounterpartID {
		logger.Warn("GetOrCreateConversation Error: User %s attempted to start a conversation with themselves", input.OwnerID)
		return "", errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	// the customer is the one reaching out
	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(input.CounterpartID, "create_conversation"); !allowed {
			logger.Warn("GetOrCreateConversation Rate Limited: User %s must wait %v", input.CounterpartID, wait)
			return "", errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation", wait)
		}
	}

	key := entity.DedupKey{
		OwnerID:       input.OwnerID,
		CounterpartID: input.CounterpartID,
		ListingID:     input.ListingID,
	}
	conv := &entity.Conversation{
		OwnerID:           input.OwnerID,
		OwnerName:         input.OwnerName,
		OwnerAvatar:       input.OwnerAvatar,
		CounterpartID:     input.CounterpartID,
		CounterpartName:   input.CounterpartName,
		CounterpartAvatar: input.CounterpartAvatar,
		ListingID:         input.ListingID,
		ListingTitle:      input.ListingTitle,
	}

	result, created, err := uc.convRepo.GetOrCreate(ctx, key, uc.dedupMode, conv)
	if err != nil {
		logger.Error("GetOrCreateConversation Error: listing=%s owner=%s counterpart=%s: %v", input.ListingID, input.OwnerID, input.CounterpartID, err)
		return "", err
	}
	if created {
		uc.metrics.ConversationCreated()
		logger.Info("GetOrCreateConversation: created conversation %s for listing %s", result.ID, input.ListingID)
	}

	return result.ID, nil
}

// GetConversation returns a conversation visible to userID. Conversations
// pending deletion are reported as not found.
func (uc *ConversationUseCase) GetConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.IsDeleted {
		return nil, errors.NotFound("Conversation", nil)
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return conv, nil
}

func (uc *ConversationUseCase) ListConversations(ctx context.Context, userID string) ([]*entity.ConversationView, error) {
	owned, err := uc.convRepo.ListByRole(ctx, entity.RoleOwner, userID)
	if err != nil {
		return nil, err
	}
	joined, err := uc.convRepo.ListByRole(ctx, entity.RoleCounterpart, userID)
	if err != nil {
		return nil, err
	}
	return buildConversationViews(userID, owned, joined), nil
}

// ToggleStarConversation writes the negation of the caller's view of the flag.
// Concurrent toggles from two sessions resolve last-writer-wins.
func (uc *ConversationUseCase) ToggleStarConversation(ctx context.Context, conversationID string, currentStarred bool) error {
	return uc.convRepo.SetFlag(ctx, conversationID, entity.FlagStarred, !currentStarred)
}

func (uc *ConversationUseCase) ToggleArchiveConversation(ctx context.Context, conversationID string, currentArchived bool) error {
	return uc.convRepo.SetFlag(ctx, conversationID, entity.FlagArchived, !currentArchived)
}

// DeleteConversation marks the conversation deleted, removes its messages and
// then the record itself. If a later step fails the mark stays behind and
// CleanupDeletedConversations finishes the job.
func (uc *ConversationUseCase) DeleteConversation(ctx context.Context, conversationID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if !conv.IsDeleted {
		if err := uc.convRepo.SetFlag(ctx, conversationID, entity.FlagDeleted, true); err != nil {
			logger.Error("DeleteConversation Error: Failed to mark conversation %s deleted: %v", conversationID, err)
			return err
		}
	}

	return uc.purge(ctx, conversationID)
}

// CleanupDeletedConversations purges every conversation still marked deleted.
func (uc *ConversationUseCase) CleanupDeletedConversations(ctx context.Context) (int, error) {
	pending, err := uc.convRepo.ListDeleted(ctx)
	if err != nil {
		return 0, err
	}

	purged := 0
	var errs []error
	for _, conv := range pending {
		if err := uc.purge(ctx, conv.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		purged++
	}
	if len(pending) > 0 {
		logger.Info("CleanupDeletedConversations: purged %d of %d conversations", purged, len(pending))
	}
	return purged, stderrors.Join(errs...)
}

func (uc *ConversationUseCase) purge(ctx context.Context, conversationID string) error {
	deleted, err := uc.msgRepo.DeleteByConversation(ctx, conversationID)
	if err != nil {
		logger.Error("purge Error: conversation %s kept for cleanup after deleting %d messages: %v", conversationID, deleted, err)
		return err
	}

	if err := uc.convRepo.Delete(ctx, conversationID); err != nil {
		logger.Error("purge Error: Failed to delete conversation %s: %v", conversationID, err)
		return err
	}

	uc.metrics.ConversationDeleted()
	logger.Info("Conversation %s deleted with %d messages", conversationID, deleted)
	return nil
}

// StartCleanupJob runs CleanupDeletedConversations every interval until ctx ends.
// A non-positive interval disables the job.
func (uc *ConversationUseCase) StartCleanupJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		logger.Warn("Conversation cleanup job disabled (interval %s)", interval)
		return
	}
	ticker := time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				if _, err := uc.CleanupDeletedConversations(ctx); err != nil {
					logger.Error("Conversation cleanup job error: %v", err)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	logger.Info("Conversation cleanup job started (every %s)", interval)
}

// buildConversationViews merges per-role result sets into one list ordered by
// most recent activity. Records pending deletion are dropped.
func buildConversationViews(userID string, sets ...[]*entity.Conversation) []*entity.ConversationView {
	seen := make(map[string]struct{})
	views := make([]*entity.ConversationView, 0)
	for _, set := range sets {
		for _, conv := range set {
			if conv.IsDeleted {
				continue
			}
			if _, dup := seen[conv.ID]; dup {
				continue
			}
			seen[conv.ID] = struct{}{}
			views = append(views, entity.NewConversationView(conv, userID))
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		ti, tj := views[i].LastMessageTime, views[j].LastMessageTime
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return views[i].ID < views[j].ID
	})
	return views
}
