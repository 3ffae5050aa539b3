package repository

import (
	"context"

	"rikoadmin/internal/domain/entity"
)

type DeviceTokenRepository interface {
	Save(ctx context.Context, token *entity.DeviceToken) error
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*entity.DeviceToken, error)
	Delete(ctx context.Context, restaurantID, token string) error
}
