package repository

import (
	"context"

	"rikoadmin/internal/domain/entity"
)

// RestaurantRepository covers the backend calls made before a session exists.
type RestaurantRepository interface {
	Login(ctx context.Context, email, password string) (*entity.Session, error)
	Ping(ctx context.Context) error
}
