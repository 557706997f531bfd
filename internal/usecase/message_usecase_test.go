package usecase

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/infrastructure/ratelimit"
	"aeroclassifieds/pkg/errors"
)

func TestSendMessage_UpdatesSummary(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	id := f.conversation(t, "u1", "u2", "L1")

	msg := f.send(t, id, "u2", "Is it still available?")

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Customer u2", msg.SenderName)
	assert.False(t, msg.IsRead)

	conv := f.stored(t, id)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "Is it still available?", conv.LastMessage.Content)
	assert.Equal(t, "u2", conv.LastMessage.SenderID)
	assert.Equal(t, conv.LastMessageTime, conv.LastMessage.Timestamp)
}

func TestSendMessage_UnreadCountsEveryMessage(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	id := f.conversation(t, "u1", "u2", "L1")

	f.send(t, id, "u1", "first")
	f.send(t, id, "u1", "second")

	assert.Equal(t, int64(2), f.stored(t, id).UnreadCount)
}

func TestSendMessage_SelfAddressedDoesNotCountUnread(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	id := f.conversation(t, "u1", "u2", "L1")

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		ConversationID: id,
		SenderID:       "u1",
		RecipientID:    "u1",
		Content:        "note to self",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.stored(t, id).UnreadCount)
}

func TestMarkMessagesAsRead_ResetsCounter(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")
	for i := 0; i < 5; i++ {
		f.send(t, id, "u2", "ping")
	}
	require.Equal(t, int64(5), f.stored(t, id).UnreadCount)

	require.NoError(t, f.messages.MarkMessagesAsRead(ctx, id, "u1"))
	assert.Equal(t, int64(0), f.stored(t, id).UnreadCount)

	require.NoError(t, f.messages.MarkMessagesAsRead(ctx, id, "u2"))
	assert.Equal(t, int64(0), f.stored(t, id).UnreadCount)

	err := f.messages.MarkMessagesAsRead(ctx, id, "intruder")
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestMarkMessagesAsRead_DeletedConversation(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")
	f.send(t, id, "u2", "ping")
	require.NoError(t, f.convRepo.SetFlag(ctx, id, entity.FlagDeleted, true))

	err := f.messages.MarkMessagesAsRead(ctx, id, "u1")
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, int64(1), f.stored(t, id).UnreadCount)
}

func TestSendMessage_Rejections(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")

	tests := []struct {
		name  string
		input SendMessageInput
		code  string
	}{
		{"empty message", SendMessageInput{ConversationID: id, SenderID: "u1", Content: "   "}, errors.CodeBadRequest},
		{"missing sender", SendMessageInput{ConversationID: id, Content: "hi"}, errors.CodeBadRequest},
		{"not a participant", SendMessageInput{ConversationID: id, SenderID: "u9", Content: "hi"}, errors.CodeForbidden},
		{"foreign recipient", SendMessageInput{ConversationID: id, SenderID: "u1", RecipientID: "u9", Content: "hi"}, errors.CodeBadRequest},
		{"unknown conversation", SendMessageInput{ConversationID: "missing", SenderID: "u1", Content: "hi"}, errors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := f.messages.SendMessage(ctx, tt.input)
			assert.Nil(t, msg)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSendMessage_RateLimited(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")
	limiter := ratelimit.NewRateLimiter(ratelimit.Limit{PerMinute: 30}, map[string]ratelimit.Limit{
		"send_message": {PerMinute: 2, Burst: 2},
	})
	uc := NewMessageUseCase(f.convRepo, f.msgRepo, f.staging, f.files, limiter, nil)

	for i := 0; i < 2; i++ {
		_, err := uc.SendMessage(ctx, SendMessageInput{ConversationID: id, SenderID: "u1", Content: "hi"})
		require.NoError(t, err)
	}
	_, err := uc.SendMessage(ctx, SendMessageInput{ConversationID: id, SenderID: "u1", Content: "hi"})
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestSendMessage_StagedAttachmentBecomesDurable(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")

	staged, err := f.attachments.Stage(ctx, "u2", "cockpit photo.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.True(t, staged.IsEphemeral())

	msg, err := f.messages.SendMessage(ctx, SendMessageInput{
		ConversationID: id,
		SenderID:       "u2",
		Content:        "see photo",
		Attachment:     staged,
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Attachment)
	assert.False(t, strings.HasPrefix(msg.Attachment.URL, entity.EphemeralScheme))
	assert.Contains(t, msg.Attachment.URL, "conversations/"+id+"/")
	assert.True(t, strings.HasSuffix(msg.Attachment.URL, "_cockpit_photo.png"))
	assert.Equal(t, entity.AttachmentTypeImage, msg.Attachment.Type)

	stored, err := f.msgRepo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Attachment.URL, stored.Attachment.URL)

	_, err = f.staging.Get(ctx, staged.URL)
	assert.True(t, errors.IsNotFound(err), "staged bytes are released after send")
	assert.Equal(t, 1, f.files.count())
}

func TestSendMessage_AttachmentOnlyUsesPlaceholder(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")

	staged, err := f.attachments.Stage(ctx, "u1", "a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	msg, err := f.messages.SendMessage(ctx, SendMessageInput{ConversationID: id, SenderID: "u1", Attachment: staged})
	require.NoError(t, err)
	assert.Equal(t, entity.AttachmentPlaceholder, msg.Content)
	assert.Equal(t, entity.AttachmentPlaceholder, f.stored(t, id).LastMessage.Content)
}

func TestSendMessage_StagedAttachmentOfAnotherUser(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")

	staged, err := f.attachments.Stage(ctx, "u2", "a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	_, err = f.messages.SendMessage(ctx, SendMessageInput{ConversationID: id, SenderID: "u1", Attachment: staged})
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	assert.Zero(t, f.files.count())
}

func TestSendMessage_UnknownStagedRef(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	id := f.conversation(t, "u1", "u2", "L1")

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		ConversationID: id,
		SenderID:       "u1",
		Attachment:     &entity.Attachment{Type: entity.AttachmentTypeImage, URL: "blob:missing"},
	})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestSendMessage_DurableAttachmentPassesThrough(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	id := f.conversation(t, "u1", "u2", "L1")

	msg, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		ConversationID: id,
		SenderID:       "u1",
		Content:        "from the listing",
		Attachment:     &entity.Attachment{URL: "https://cdn.example.test/listing.jpg", Filename: "listing.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test/listing.jpg", msg.Attachment.URL)
	assert.Equal(t, entity.AttachmentTypeImage, msg.Attachment.Type)
	assert.Zero(t, f.files.count())
}

func TestSendMessage_WriteFailureRemovesUpload(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")

	staged, err := f.attachments.Stage(ctx, "u1", "a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	f.msgRepo.createErr = stderrors.New("write rejected")
	_, err = f.messages.SendMessage(ctx, SendMessageInput{ConversationID: id, SenderID: "u1", Content: "x", Attachment: staged})
	require.Error(t, err)

	assert.Zero(t, f.files.count())
	assert.Len(t, f.files.deleted, 1)
	assert.Nil(t, f.stored(t, id).LastMessage)

	_, err = f.staging.Get(ctx, staged.URL)
	assert.NoError(t, err, "staged bytes stay available for a retry")
}

func TestSendMessage_UploadFailure(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")

	staged, err := f.attachments.Stage(ctx, "u1", "a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	f.files.uploadErr = stderrors.New("bucket unavailable")
	_, err = f.messages.SendMessage(ctx, SendMessageInput{ConversationID: id, SenderID: "u1", Attachment: staged})
	assert.True(t, errors.Is(err, errors.CodeInternal))

	messages, err := f.msgRepo.ListByConversation(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestListMessages_OldestFirst(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")
	f.send(t, id, "u1", "one")
	f.send(t, id, "u2", "two")
	f.send(t, id, "u1", "three")

	messages, err := f.messages.ListMessages(ctx, "u2", id)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "two", messages[1].Content)
	assert.Equal(t, "three", messages[2].Content)

	_, err = f.messages.ListMessages(ctx, "u9", id)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestDeleteMessage_OnlySender(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	id := f.conversation(t, "u1", "u2", "L1")
	msg := f.send(t, id, "u1", "oops")

	err := f.messages.DeleteMessage(ctx, "u2", id, msg.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	err = f.messages.DeleteMessage(ctx, "u1", "other-conversation", msg.ID)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, f.messages.DeleteMessage(ctx, "u1", id, msg.ID))
	_, err = f.msgRepo.GetByID(ctx, msg.ID)
	assert.True(t, errors.IsNotFound(err))
}
