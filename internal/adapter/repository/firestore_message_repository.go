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

const messagesCollection = "messages"

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(messagesCollection)
}

func (r *firestoreMessageRepository) byConversation(conversationID string) firestore.Query {
	return r.collection().Where("conversationId", "==", conversationID)
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	wr, err := r.collection().Doc(message.ID).Create(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}
	// timestamp is filled in by the server at commit time
	message.Timestamp = wr.UpdateTime

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	message, err := decodeMessage(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return message, nil
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	docs, err := r.byConversation(conversationID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for conversation %s: %v", conversationID, err)
		return nil, errors.Internal("Failed to fetch messages", err)
	}
	return decodeMessages(docs), nil
}

func (r *firestoreMessageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) DeleteByConversation(ctx context.Context, conversationID string) (int, error) {
	iter := r.byConversation(conversationID).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to iterate messages", err)
		}

		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to queue message delete", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	if firstErr != nil {
		logger.Error("DeleteByConversation: %d of %d deletes failed for conversation %s", len(jobs)-deleted, len(jobs), conversationID)
		return deleted, errors.Internal("Failed to delete conversation messages", firstErr)
	}

	return deleted, nil
}

func (r *firestoreMessageRepository) WatchByConversation(ctx context.Context, conversationID string, fn func([]*entity.Message)) error {
	it := r.byConversation(conversationID).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if err == iterator.Done || ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return errors.Internal("Message snapshot stream failed", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return errors.Internal("Failed to read message snapshot", err)
		}
		fn(decodeMessages(docs))
	}
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, err
	}
	message.ID = doc.Ref.ID
	return &message, nil
}

func decodeMessages(docs []*firestore.DocumentSnapshot) []*entity.Message {
	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		message, err := decodeMessage(doc)
		if err != nil {
			logger.Warn("Error parsing message %s: %v", doc.Ref.ID, err)
			continue
		}
		messages = append(messages, message)
	}
	return messages
}
