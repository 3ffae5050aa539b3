package repository

import (
	"context"

	"rikoadmin/internal/domain/entity"
)

// MessageBatch is one delivery from a realtime watch: the messages added since
// the previous delivery, in timestamp order.
type MessageBatch []*entity.ChatMessage

type ChatRepository interface {
	// Watch streams added messages of an order until ctx is cancelled or the
	// stream fails. The first batch is the existing backlog.
	Watch(ctx context.Context, orderID string, onBatch func(MessageBatch)) error
	Append(ctx context.Context, message *entity.ChatMessage) error
	ListMessages(ctx context.Context, orderID string, limit int) ([]*entity.ChatMessage, error)
}
