package usecase

import (
	"context"
	"fmt"
	"time"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	ws "rikoadmin/internal/infrastructure/websocket"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

const pushTimeout = 10 * time.Second

// AlertUseCase fans board alerts out to the restaurant's connected browsers
// and, when push is configured, to its registered devices.
type AlertUseCase struct {
	broadcaster Broadcaster
	push        PushSender
	tokenRepo   repository.DeviceTokenRepository
}

// NewAlertUseCase builds the fan-out. push may be nil, in which case only
// connected browsers are alerted.
func NewAlertUseCase(broadcaster Broadcaster, push PushSender, tokenRepo repository.DeviceTokenRepository) *AlertUseCase {
	return &AlertUseCase{
		broadcaster: broadcaster,
		push:        push,
		tokenRepo:   tokenRepo,
	}
}

func (uc *AlertUseCase) NewOrders(restaurantID string, delta int) {
	uc.broadcaster.BroadcastToRestaurant(restaurantID, ws.EventNewOrders, map[string]interface{}{
		"restaurant_id": restaurantID,
		"count":         delta,
	})

	go uc.pushAsync(restaurantID, "Nuevo pedido", fmt.Sprintf("Tienes %d pedido(s) nuevo(s)", delta), map[string]string{
		"type":          ws.EventNewOrders,
		"restaurant_id": restaurantID,
		"count":         fmt.Sprint(delta),
	})
}

func (uc *AlertUseCase) OrdersUpdated(restaurantID string, count int) {
	uc.broadcaster.BroadcastToRestaurant(restaurantID, ws.EventOrdersUpdated, map[string]interface{}{
		"restaurant_id": restaurantID,
		"count":         count,
	})
}

func (uc *AlertUseCase) ChatMessage(restaurantID string, event entity.NotificationEvent) {
	uc.broadcaster.BroadcastToRestaurant(restaurantID, ws.EventChatNotification, event)

	go uc.pushAsync(restaurantID, "Pedido #"+shortOrderID(event.OrderID), event.Summary, map[string]string{
		"type":       ws.EventChatNotification,
		"order_id":   event.OrderID,
		"message_id": event.MessageID,
	})
}

func (uc *AlertUseCase) pushAsync(restaurantID, title, body string, data map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	err := uc.Push(ctx, restaurantID, title, body, data)
	switch {
	case err == nil:
	case errors.Is(err, errors.CodeNotSupported):
		logger.Debug("Push skipped for restaurant %s: %v", restaurantID, err)
	default:
		logger.Warn("Push for restaurant %s failed: %v", restaurantID, err)
	}
}

// Push sends one notification to every device registered for the restaurant
// and forgets the devices FCM no longer knows.
func (uc *AlertUseCase) Push(ctx context.Context, restaurantID, title, body string, data map[string]string) error {
	if uc.push == nil || uc.tokenRepo == nil {
		return errors.NotSupported("push notifications")
	}

	devices, err := uc.tokenRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.Token)
	}

	stale, sendErr := uc.push.SendMulticast(ctx, tokens, title, body, data)
	for _, token := range stale {
		if err := uc.tokenRepo.Delete(ctx, restaurantID, token); err != nil {
			logger.Warn("Failed to delete stale device token for restaurant %s: %v", restaurantID, err)
		}
	}
	if sendErr != nil {
		return errors.Network("failed to send push notification", sendErr)
	}

	logger.Debug("Push %q sent to %d device(s) of restaurant %s", title, len(tokens)-len(stale), restaurantID)
	return nil
}

// shortOrderID is the tail of the order id staff sees on tickets.
func shortOrderID(orderID string) string {
	if len(orderID) <= 6 {
		return orderID
	}
	return orderID[len(orderID)-6:]
}
