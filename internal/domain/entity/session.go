package entity

import "time"

// Session holds what a logged-in restaurant needs to talk to the REST backend.
type Session struct {
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	Role           string    `json:"role"`
	BackendToken   string    `json:"-"`
	ExpiresAt      time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the backend token has passed its expiry. A session
// without a known expiry never expires locally.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
