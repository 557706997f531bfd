package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aeroclassifieds/internal/adapter/repository/memory"
	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/repository"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time and moves it forward one second, so
// successive writes get distinct timestamps.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

type fakeFileService struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeFileService() *fakeFileService {
	return &fakeFileService{objects: make(map[string][]byte)}
}

func (f *fakeFileService) UploadObject(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "https://storage.example.test/bucket/" + objectPath
	f.mu.Lock()
	f.objects[url] = data
	f.mu.Unlock()
	return url, nil
}

func (f *fakeFileService) DeleteFile(ctx context.Context, fileURL string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	delete(f.objects, fileURL)
	f.deleted = append(f.deleted, fileURL)
	f.mu.Unlock()
	return nil
}

func (f *fakeFileService) Close() error { return nil }

func (f *fakeFileService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// failingMessageRepository wraps a MessageRepository and fails selected calls.
type failingMessageRepository struct {
	repository.MessageRepository
	createErr       error
	deleteByConvErr error
}

func (r *failingMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.MessageRepository.Create(ctx, message)
}

func (r *failingMessageRepository) DeleteByConversation(ctx context.Context, conversationID string) (int, error) {
	if r.deleteByConvErr != nil {
		return 0, r.deleteByConvErr
	}
	return r.MessageRepository.DeleteByConversation(ctx, conversationID)
}

type fixture struct {
	clock    *fakeClock
	convRepo *memory.ConversationRepository
	msgRepo  *failingMessageRepository
	staging  *memory.StagingRepository
	files    *fakeFileService

	conversations *ConversationUseCase
	messages      *MessageUseCase
	attachments   *AttachmentUseCase
	subscriptions *SubscriptionUseCase
}

func newFixture(t *testing.T, mode entity.DedupMode) *fixture {
	t.Helper()

	clock := newFakeClock()
	convRepo := memory.NewConversationRepository()
	convRepo.Now = clock.Now
	baseMsgRepo := memory.NewMessageRepository()
	baseMsgRepo.Now = clock.Now
	msgRepo := &failingMessageRepository{MessageRepository: baseMsgRepo}
	staging := memory.NewStagingRepository()
	staging.Now = clock.Now
	files := newFakeFileService()

	f := &fixture{
		clock:         clock,
		convRepo:      convRepo,
		msgRepo:       msgRepo,
		staging:       staging,
		files:         files,
		conversations: NewConversationUseCase(convRepo, msgRepo, mode, nil, nil),
		messages:      NewMessageUseCase(convRepo, msgRepo, staging, files, nil, nil),
		attachments:   NewAttachmentUseCase(staging, 1<<20, time.Hour),
		subscriptions: NewSubscriptionUseCase(convRepo, msgRepo, nil),
	}
	f.messages.now = clock.Now
	f.attachments.now = clock.Now
	return f
}

func (f *fixture) conversation(t *testing.T, owner, counterpart, listing string) string {
	t.Helper()
	id, err := f.conversations.GetOrCreateConversation(context.Background(), GetOrCreateConversationInput{
		OwnerID:         owner,
		OwnerName:       "Owner " + owner,
		CounterpartID:   counterpart,
		CounterpartName: "Customer " + counterpart,
		ListingID:       listing,
		ListingTitle:    fmt.Sprintf("Listing %s", listing),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func (f *fixture) send(t *testing.T, conversationID, sender, content string) *entity.Message {
	t.Helper()
	msg, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conversationID,
		SenderID:       sender,
		Content:        content,
	})
	require.NoError(t, err)
	return msg
}

func (f *fixture) stored(t *testing.T, id string) *entity.Conversation {
	t.Helper()
	conv, err := f.convRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return conv
}
