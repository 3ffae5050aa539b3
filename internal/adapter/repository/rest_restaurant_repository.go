package repository

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

type restRestaurantRepository struct {
	backend *BackendClient
}

func NewRestRestaurantRepository(backend *BackendClient) repository.RestaurantRepository {
	return &restRestaurantRepository{
		backend: backend,
	}
}

type loginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	Restaurant struct {
		ID   string `json:"_id"`
		Name string `json:"nombre"`
		Role string `json:"rol"`
	} `json:"restaurant"`
}

func (r *restRestaurantRepository) Login(ctx context.Context, email, password string) (*entity.Session, error) {
	var resp loginResponse
	err := r.backend.do(ctx, http.MethodPost, "/api/restaurant/restaurant-login", "", loginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		if be, ok := err.(*backendError); ok && be.Status == http.StatusBadRequest {
			msg := backendMessage(be.Body)
			if msg == "" {
				msg = "Usuario o contraseña incorrectos."
			}
			return nil, errors.Unauthorized(msg, be)
		}
		return nil, translate(err, "Restaurant")
	}

	if resp.Token == "" || resp.Restaurant.ID == "" {
		return nil, errors.Network("Backend login response is incomplete", nil)
	}

	role := resp.Restaurant.Role
	if role == "" {
		role = "restaurant"
	}

	return &entity.Session{
		RestaurantID:   resp.Restaurant.ID,
		RestaurantName: resp.Restaurant.Name,
		Role:           role,
		BackendToken:   resp.Token,
		ExpiresAt:      tokenExpiry(resp.Token),
	}, nil
}

// Ping checks that the backend answers at all.
func (r *restRestaurantRepository) Ping(ctx context.Context) error {
	if err := r.backend.do(ctx, http.MethodGet, "/api/restaurant/restaurants", "", nil, nil); err != nil {
		return translate(err, "Restaurants")
	}
	return nil
}

// tokenExpiry reads exp from the backend token. The signature is the backend's
// concern; a token without a readable exp yields the zero time.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logger.Debug("Backend token is not a readable JWT: %v", err)
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
