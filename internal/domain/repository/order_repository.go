package repository

import (
	"context"
	"encoding/json"

	"rikoadmin/internal/domain/entity"
)

// OrderRepository is the REST backend as seen by one logged-in restaurant.
type OrderRepository interface {
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*entity.Order, error)
	// Transition issues the backend call for a legal action. A stale transition
	// the backend rejects is reported as errors.CodeConflict.
	Transition(ctx context.Context, orderID string, action entity.OrderAction) error
	ListClients(ctx context.Context, restaurantID string) ([]*entity.ClientSummary, error)
	Statistics(ctx context.Context, restaurantID string) (json.RawMessage, error)
}
