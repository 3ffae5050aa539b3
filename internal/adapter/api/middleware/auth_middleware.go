package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"rikoadmin/internal/domain/entity"
)

// TokenVerifier resolves a Firebase ID token to its uid.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// SessionProvider returns the live backend session of a restaurant.
type SessionProvider interface {
	Session(restaurantID string) (*entity.Session, error)
}

const (
	ContextUID     = "uid"
	ContextSession = "session"
)

type AuthMiddleware struct {
	verifier TokenVerifier
	sessions SessionProvider
}

func NewAuthMiddleware(verifier TokenVerifier, sessions SessionProvider) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		sessions: sessions,
	}
}

// Authenticate verifies the Firebase ID token and sets the restaurant id as
// "uid". Browsers cannot set headers on a WebSocket handshake, so the token
// may also come as the token query parameter.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idToken := c.QueryParam("token")

		if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
			}
			idToken = parts[1]
		}

		if idToken == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), idToken)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set(ContextUID, uid)
		return next(c)
	}
}

// RequireSession runs after Authenticate and loads the restaurant's backend
// session into "session".
func (m *AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, _ := c.Get(ContextUID).(string)
		if uid == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		session, err := m.sessions.Session(uid)
		if err != nil {
			return err
		}

		c.Set(ContextSession, session)
		return next(c)
	}
}
