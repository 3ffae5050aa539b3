package entity

import "time"

// NotificationEvent is raised for a chat message staff has not seen yet. It is
// never persisted.
type NotificationEvent struct {
	OrderID    string     `json:"order_id"`
	Summary    string     `json:"summary"`
	MessageID  string     `json:"message_id"`
	SenderType SenderRole `json:"sender_type"`
	SentAt     time.Time  `json:"sent_at"`
}

// DeviceToken is a push registration for a restaurant's browser or device.
type DeviceToken struct {
	Token        string    `json:"token" firestore:"token"`
	RestaurantID string    `json:"restaurant_id" firestore:"restaurantId"`
	UserAgent    string    `json:"user_agent,omitempty" firestore:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}
