package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/repository"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
)

const conversationsCollection = "conversations"

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection)
}

func roleField(role entity.ParticipantRole) string {
	if role == entity.RoleOwner {
		return "ownerId"
	}
	return "counterpartId"
}

// GetOrCreate runs lookup and insert in one transaction, so two callers racing
// on the same key end up with a single record.
func (r *firestoreConversationRepository) GetOrCreate(ctx context.Context, key entity.DedupKey, mode entity.DedupMode, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	var (
		found   *entity.Conversation
		created bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		found, created = nil, false

		for _, k := range key.Orientations(mode) {
			q := r.collection().
				Where("ownerId", "==", k.OwnerID).
				Where("counterpartId", "==", k.CounterpartID).
				Where("listingId", "==", k.ListingID)

			docs, err := tx.Documents(q).GetAll()
			if err != nil {
				return err
			}
			for _, doc := range docs {
				existing, err := decodeConversation(doc)
				if err != nil {
					logger.Warn("GetOrCreate: skipping malformed conversation %s: %v", doc.Ref.ID, err)
					continue
				}
				if !existing.IsDeleted {
					found = existing
					return nil
				}
			}
		}

		created = true
		return tx.Create(r.collection().Doc(conv.ID), conv)
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to get or create conversation", err)
	}

	if created {
		return conv, true, nil
	}
	return found, false, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	conv, err := decodeConversation(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return conv, nil
}

func (r *firestoreConversationRepository) ListByRole(ctx context.Context, role entity.ParticipantRole, userID string) ([]*entity.Conversation, error) {
	docs, err := r.collection().Where(roleField(role), "==", userID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing conversations for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch conversations", err)
	}
	return decodeConversations(docs), nil
}

func (r *firestoreConversationRepository) ListDeleted(ctx context.Context) ([]*entity.Conversation, error) {
	docs, err := r.collection().Where("isDeleted", "==", true).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch deleted conversations", err)
	}
	return decodeConversations(docs), nil
}

func (r *firestoreConversationRepository) ApplyMessage(ctx context.Context, id string, summary *entity.LastMessage, incrementUnread bool) error {
	var attachment interface{} = firestore.Delete
	if summary.Attachment != nil {
		attachment = summary.Attachment
	}

	updates := []firestore.Update{
		{Path: "lastMessage.content", Value: summary.Content},
		{Path: "lastMessage.senderId", Value: summary.SenderID},
		{Path: "lastMessage.timestamp", Value: firestore.ServerTimestamp},
		{Path: "lastMessage.attachment", Value: attachment},
		{Path: "lastMessageTime", Value: firestore.ServerTimestamp},
	}
	if incrementUnread {
		updates = append(updates, firestore.Update{Path: "unreadCount", Value: firestore.Increment(1)})
	}

	return r.update(ctx, id, updates, "Failed to update conversation summary")
}

func (r *firestoreConversationRepository) ResetUnread(ctx context.Context, id string) error {
	return r.update(ctx, id, []firestore.Update{{Path: "unreadCount", Value: 0}}, "Failed to reset unread count")
}

func (r *firestoreConversationRepository) SetFlag(ctx context.Context, id string, flag entity.ConversationFlag, value bool) error {
	return r.update(ctx, id, []firestore.Update{{Path: string(flag), Value: value}}, "Failed to update conversation")
}

func (r *firestoreConversationRepository) update(ctx context.Context, id string, updates []firestore.Update, failure string) error {
	_, err := r.collection().Doc(id).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal(failure, err)
	}
	return nil
}

func (r *firestoreConversationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) WatchByRole(ctx context.Context, role entity.ParticipantRole, userID string, fn func([]*entity.Conversation)) error {
	it := r.collection().Where(roleField(role), "==", userID).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if err == iterator.Done || ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return errors.Internal("Conversation snapshot stream failed", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return errors.Internal("Failed to read conversation snapshot", err)
		}
		fn(decodeConversations(docs))
	}
}

func decodeConversation(doc *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, err
	}
	conv.ID = doc.Ref.ID
	return &conv, nil
}

func decodeConversations(docs []*firestore.DocumentSnapshot) []*entity.Conversation {
	conversations := make([]*entity.Conversation, 0, len(docs))
	for _, doc := range docs {
		conv, err := decodeConversation(doc)
		if err != nil {
			logger.Warn("Error parsing conversation %s: %v", doc.Ref.ID, err)
			continue // Skip bad data instead of failing
		}
		conversations = append(conversations, conv)
	}
	return conversations
}
