package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/repository"
	"aeroclassifieds/internal/domain/service"
	"aeroclassifieds/internal/infrastructure/metrics"
	"aeroclassifieds/internal/infrastructure/ratelimit"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
)

type MessageUseCase struct {
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	staging     repository.StagingRepository
	files       service.FileUploadService
	rateLimiter *ratelimit.RateLimiter
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	staging repository.StagingRepository,
	files service.FileUploadService,
	rateLimiter *ratelimit.RateLimiter,
	m *metrics.Metrics,
) *MessageUseCase {
	return &MessageUseCase{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		staging:     staging,
		files:       files,
		rateLimiter: rateLimiter,
		metrics:     m,
		now:         time.Now,
	}
}

type SendMessageInput struct {
	ConversationID string
	SenderID       string
	// RecipientID defaults to the other participant when empty.
	RecipientID  string
	Content      string
	SenderName   string
	SenderAvatar string
	Attachment   *entity.Attachment
}

// SendMessage appends a message to the conversation and refreshes its
// summary. A staged attachment is uploaded first and removed again if the
// message cannot be written.
func (uc *MessageUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	if input.ConversationID == "" || input.SenderID == "" {
		return nil, errors.BadRequest("conversation and sender are required", nil)
	}
	if strings.TrimSpace(input.Content) == "" && input.Attachment == nil {
		return nil, errors.BadRequest("Message must have content or an attachment", nil)
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(input.SenderID, "send_message"); !allowed {
			logger.Warn("SendMessage Rate Limited: User %s must wait %v", input.SenderID, wait)
			return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", wait)
		}
	}

	conv, err := uc.convRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.IsDeleted {
		return nil, errors.NotFound("Conversation", nil)
	}
	if !conv.HasParticipant(input.SenderID) {
		logger.Warn("SendMessage Error: User %s is not a participant in conversation %s", input.SenderID, conv.ID)
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	recipientID := input.RecipientID
	if recipientID == "" {
		recipientID = conv.OtherParticipant(input.SenderID)
	} else if !conv.HasParticipant(recipientID) {
		return nil, errors.BadRequest("Recipient is not a participant in this conversation", nil)
	}

	attachment, stagedRef, err := uc.resolveAttachment(ctx, conv.ID, input.SenderID, input.Attachment)
	if err != nil {
		uc.metrics.MessageSent(false)
		return nil, err
	}

	content := input.Content
	if strings.TrimSpace(content) == "" {
		content = entity.AttachmentPlaceholder
	}

	senderName, senderAvatar := input.SenderName, input.SenderAvatar
	if senderName == "" {
		senderName, senderAvatar = participantIdentity(conv, input.SenderID)
	}

	message := &entity.Message{
		ConversationID: conv.ID,
		SenderID:       input.SenderID,
		SenderName:     senderName,
		SenderAvatar:   senderAvatar,
		Content:        content,
		Attachment:     attachment,
	}

	if err := uc.msgRepo.Create(ctx, message); err != nil {
		logger.Error("SendMessage Error: Failed to store message in conversation %s: %v", conv.ID, err)
		if stagedRef != "" {
			uc.discardUpload(ctx, attachment.URL)
		}
		uc.metrics.MessageSent(false)
		return nil, err
	}

	if err := uc.convRepo.ApplyMessage(ctx, conv.ID, message.Summary(), recipientID != input.SenderID); err != nil {
		logger.Error("SendMessage Error: Message %s stored but conversation %s summary not updated: %v", message.ID, conv.ID, err)
		uc.metrics.MessageSent(false)
		return nil, err
	}

	if stagedRef != "" {
		uc.metrics.AttachmentUploaded()
		if err := uc.staging.Delete(ctx, stagedRef); err != nil {
			logger.Warn("SendMessage: failed to release staged attachment %s: %v", stagedRef, err)
		}
	}

	uc.metrics.MessageSent(true)
	return message, nil
}

// resolveAttachment uploads a staged attachment and returns its durable
// replacement together with the staged ref. Durable attachments pass through.
func (uc *MessageUseCase) resolveAttachment(ctx context.Context, conversationID, senderID string, a *entity.Attachment) (*entity.Attachment, string, error) {
	if a == nil {
		return nil, "", nil
	}
	if !a.IsEphemeral() {
		if a.URL == "" {
			return nil, "", errors.BadRequest("Attachment URL is required", nil)
		}
		cp := *a
		if cp.Type == "" {
			cp.Type = entity.AttachmentTypeImage
		}
		return &cp, "", nil
	}

	if uc.staging == nil || uc.files == nil {
		return nil, "", errors.Internal("Attachment storage is not configured", nil)
	}

	blob, err := uc.staging.Get(ctx, a.URL)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, "", errors.BadRequest("Attachment has expired or does not exist", err)
		}
		return nil, "", err
	}
	if blob.OwnerID != senderID {
		return nil, "", errors.Forbidden("Attachment belongs to another user", nil)
	}

	filename := blob.Filename
	if a.Filename != "" {
		filename = sanitizeFilename(a.Filename)
	}
	objectPath := fmt.Sprintf("conversations/%s/%d_%s", conversationID, uc.now().UnixMilli(), filename)

	url, err := uc.files.UploadObject(ctx, objectPath, bytes.NewReader(blob.Data), blob.ContentType)
	if err != nil {
		logger.Error("SendMessage Error: Failed to upload attachment %s: %v", a.URL, err)
		return nil, "", errors.Internal("Failed to upload attachment", err)
	}

	return &entity.Attachment{
		Type:     entity.AttachmentTypeImage,
		URL:      url,
		Filename: filename,
	}, blob.Ref, nil
}

func (uc *MessageUseCase) discardUpload(ctx context.Context, url string) {
	if err := uc.files.DeleteFile(ctx, url); err != nil {
		uc.metrics.BlobOrphaned()
		logger.Error("SendMessage Error: Uploaded attachment %s left orphaned: %v", url, err)
	}
}

// MarkMessagesAsRead clears the conversation's unread counter. The counter is
// shared by both participants, so either of them resets it.
func (uc *MessageUseCase) MarkMessagesAsRead(ctx context.Context, conversationID, userID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.IsDeleted {
		return errors.NotFound("Conversation", nil)
	}
	if !conv.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return uc.convRepo.ResetUnread(ctx, conversationID)
}

func (uc *MessageUseCase) ListMessages(ctx context.Context, userID, conversationID string) ([]*entity.Message, error) {
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

	messages, err := uc.msgRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sortMessages(messages)
	return messages, nil
}

// DeleteMessage removes a single message. Only its sender may delete it; the
// conversation summary is left as is.
func (uc *MessageUseCase) DeleteMessage(ctx context.Context, userID, conversationID, messageID string) error {
	message, err := uc.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.ConversationID != conversationID {
		return errors.NotFound("Message", nil)
	}
	if message.SenderID != userID {
		return errors.Forbidden("Only the sender can delete this message", nil)
	}
	return uc.msgRepo.Delete(ctx, messageID)
}

func participantIdentity(conv *entity.Conversation, userID string) (name, avatar string) {
	if userID == conv.OwnerID {
		return conv.OwnerName, conv.OwnerAvatar
	}
	return conv.CounterpartName, conv.CounterpartAvatar
}

// sortMessages orders messages oldest first, ties broken by id.
func sortMessages(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		ti, tj := messages[i].Timestamp, messages[j].Timestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return messages[i].ID < messages[j].ID
	})
}
