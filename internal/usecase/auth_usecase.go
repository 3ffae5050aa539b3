package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/internal/infrastructure/ratelimit"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

// BoardController is the part of the order board sessions drive.
type BoardController interface {
	Open(session *entity.Session) error
	Close(restaurantID string)
}

type AuthUseCase struct {
	restaurantRepo repository.RestaurantRepository
	tokenRepo      repository.DeviceTokenRepository
	firebaseAuth   FirebaseAuthClient
	board          BoardController
	rateLimiter    RateLimiter
	now            func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

func NewAuthUseCase(
	restaurantRepo repository.RestaurantRepository,
	tokenRepo repository.DeviceTokenRepository,
	firebaseAuth FirebaseAuthClient,
	board BoardController,
	rateLimiter RateLimiter,
) *AuthUseCase {
	return &AuthUseCase{
		restaurantRepo: restaurantRepo,
		tokenRepo:      tokenRepo,
		firebaseAuth:   firebaseAuth,
		board:          board,
		rateLimiter:    rateLimiter,
		now:            time.Now,
		sessions:       make(map[string]*entity.Session),
	}
}

type LoginResult struct {
	Session *entity.Session
	// FirebaseToken is a custom token the browser signs in to the realtime
	// store with.
	FirebaseToken string
}

// Login authenticates against the backend, mints the realtime store token and
// starts the restaurant's order board.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.Validation("email and password are required", nil)
	}

	if uc.rateLimiter != nil {
		if ok, retryIn := uc.rateLimiter.Allow(email, ratelimit.ActionLogin); !ok {
			return nil, errors.TooManyRequests(fmt.Sprintf("too many login attempts, try again in %d seconds", int(retryIn.Seconds())+1))
		}
	}

	session, err := uc.restaurantRepo.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := uc.firebaseAuth.GenerateToken(ctx, session.RestaurantID, map[string]interface{}{
		"rol":            session.Role,
		"restaurantName": session.RestaurantName,
	})
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	uc.mu.Lock()
	uc.sessions[session.RestaurantID] = session
	uc.mu.Unlock()

	if err := uc.board.Open(session); err != nil {
		return nil, err
	}

	logger.Info("Restaurant %s (%s) logged in", session.RestaurantID, session.RestaurantName)
	return &LoginResult{Session: session, FirebaseToken: token}, nil
}

// Session returns the live session of a restaurant. An expired session is
// dropped and its board closed.
func (uc *AuthUseCase) Session(restaurantID string) (*entity.Session, error) {
	uc.mu.RLock()
	session, ok := uc.sessions[restaurantID]
	uc.mu.RUnlock()

	if !ok {
		return nil, errors.Unauthorized("no active session, please log in", nil)
	}
	if session.Expired(uc.now()) {
		uc.drop(restaurantID)
		logger.Info("Session for restaurant %s expired", restaurantID)
		return nil, errors.SessionExpired(restaurantID)
	}
	return session, nil
}

func (uc *AuthUseCase) Logout(restaurantID string) {
	uc.drop(restaurantID)
	logger.Info("Restaurant %s logged out", restaurantID)
}

func (uc *AuthUseCase) drop(restaurantID string) {
	uc.mu.Lock()
	delete(uc.sessions, restaurantID)
	uc.mu.Unlock()
	uc.board.Close(restaurantID)
}

// RegisterDevice stores a push token for the restaurant.
func (uc *AuthUseCase) RegisterDevice(ctx context.Context, restaurantID, token, userAgent string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.Validation("device token is required", nil)
	}
	if uc.tokenRepo == nil {
		return errors.NotSupported("push notifications")
	}

	return uc.tokenRepo.Save(ctx, &entity.DeviceToken{
		Token:        token,
		RestaurantID: restaurantID,
		UserAgent:    userAgent,
		CreatedAt:    uc.now(),
	})
}

func (uc *AuthUseCase) UnregisterDevice(ctx context.Context, restaurantID, token string) error {
	if uc.tokenRepo == nil {
		return errors.NotSupported("push notifications")
	}
	return uc.tokenRepo.Delete(ctx, restaurantID, token)
}
