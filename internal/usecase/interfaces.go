package usecase

import (
	"context"
	"io"
	"time"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
)

type FirebaseAuthClient interface {
	VerifyToken(ctx context.Context, token string) (string, error)
	GenerateToken(ctx context.Context, uid string, claims map[string]interface{}) (string, error)
}

// PushSender delivers device notifications and reports tokens that are no
// longer registered.
type PushSender interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

// Broadcaster pushes an event to every staff connection of a restaurant.
type Broadcaster interface {
	BroadcastToRestaurant(restaurantID, eventType string, data interface{})
}

type FileStorage interface {
	UploadChatFile(ctx context.Context, orderID, fileName, contentType string, file io.Reader) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}

type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// OrderFetcher is the part of the order repository the poller needs.
type OrderFetcher interface {
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*entity.Order, error)
}

// MessageWatcher is the realtime side of the chat repository.
type MessageWatcher interface {
	Watch(ctx context.Context, orderID string, onBatch func(repository.MessageBatch)) error
}

// OrderRepositoryFactory binds the order API to a restaurant session.
type OrderRepositoryFactory func(session *entity.Session) repository.OrderRepository

// AlertNotifier receives the board's alerts.
type AlertNotifier interface {
	NewOrders(restaurantID string, delta int)
	OrdersUpdated(restaurantID string, count int)
	ChatMessage(restaurantID string, event entity.NotificationEvent)
}
