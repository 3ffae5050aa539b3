package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

type firestoreChatRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreChatRepository stores messages under {collection}/{orderId}/messages.
func NewFirestoreChatRepository(client *firestore.Client, collection string) repository.ChatRepository {
	return &firestoreChatRepository{
		client:     client,
		collection: collection,
	}
}

func (r *firestoreChatRepository) messages(orderID string) *firestore.CollectionRef {
	return r.client.Collection(r.collection).Doc(orderID).Collection("messages")
}

func (r *firestoreChatRepository) Watch(ctx context.Context, orderID string, onBatch func(repository.MessageBatch)) error {
	it := r.messages(orderID).OrderBy("timestamp", firestore.Asc).Snapshots(ctx)
	defer it.Stop()

	first := true
	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return errors.Network("Chat stream for order "+orderID+" failed", err)
		}

		batch := make(repository.MessageBatch, 0, len(snap.Changes))
		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			msg, err := decodeMessage(orderID, change.Doc)
			if err != nil {
				logger.Warn("Skipping unreadable chat message %s/%s: %v", orderID, change.Doc.Ref.ID, err)
				continue
			}
			batch = append(batch, msg)
		}

		// The initial snapshot is always delivered so the caller can tell the
		// backlog apart from live messages, even when it is empty.
		if first || len(batch) > 0 {
			onBatch(batch)
		}
		first = false
	}
}

func (r *firestoreChatRepository) Append(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	_, err := r.messages(message.OrderID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Network("Failed to send chat message", err)
	}
	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, orderID string, limit int) ([]*entity.ChatMessage, error) {
	query := r.messages(orderID).OrderBy("timestamp", firestore.Asc)
	if limit > 0 {
		query = query.LimitToLast(limit)
	}

	// LimitToLast is only supported through GetAll.
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Network("Failed to read chat history", err)
	}

	messages := make([]*entity.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		msg, err := decodeMessage(orderID, doc)
		if err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func decodeMessage(orderID string, doc *firestore.DocumentSnapshot) (*entity.ChatMessage, error) {
	var msg entity.ChatMessage
	if err := doc.DataTo(&msg); err != nil {
		return nil, err
	}
	msg.ID = doc.Ref.ID
	msg.OrderID = orderID
	return &msg, nil
}

// drain collects every document of an iterator; shared by the device token store.
func drain(it *firestore.DocumentIterator, fn func(*firestore.DocumentSnapshot) error) error {
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}
