package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/pkg/errors"
)

type firestoreDeviceTokenRepository struct {
	client *firestore.Client
}

func NewFirestoreDeviceTokenRepository(client *firestore.Client) repository.DeviceTokenRepository {
	return &firestoreDeviceTokenRepository{
		client: client,
	}
}

func (r *firestoreDeviceTokenRepository) tokens(restaurantID string) *firestore.CollectionRef {
	return r.client.Collection("restaurants").Doc(restaurantID).Collection("fcm_tokens")
}

func (r *firestoreDeviceTokenRepository) Save(ctx context.Context, token *entity.DeviceToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	_, err := r.tokens(token.RestaurantID).Doc(token.Token).Set(ctx, token)
	if err != nil {
		return errors.Internal("Failed to save device token", err)
	}
	return nil
}

func (r *firestoreDeviceTokenRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]*entity.DeviceToken, error) {
	var out []*entity.DeviceToken
	err := drain(r.tokens(restaurantID).Documents(ctx), func(doc *firestore.DocumentSnapshot) error {
		var token entity.DeviceToken
		if err := doc.DataTo(&token); err != nil {
			return err
		}
		if token.Token == "" {
			token.Token = doc.Ref.ID
		}
		out = append(out, &token)
		return nil
	})
	if err != nil {
		return nil, errors.Internal("Failed to list device tokens", err)
	}
	return out, nil
}

func (r *firestoreDeviceTokenRepository) Delete(ctx context.Context, restaurantID, token string) error {
	_, err := r.tokens(restaurantID).Doc(token).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return errors.Internal("Failed to delete device token", err)
	}
	return nil
}
