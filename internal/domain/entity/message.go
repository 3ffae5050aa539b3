package entity

import "time"

type SenderRole string

const (
	SenderRestaurant SenderRole = "restaurant"
	SenderCustomer   SenderRole = "customer"
)

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeLocation MessageType = "location"
)

// ChatMessage is one entry of an order's chat log in the realtime store. The
// store assigns Timestamp on write.
type ChatMessage struct {
	ID         string      `json:"id" firestore:"-"`
	OrderID    string      `json:"order_id" firestore:"-"`
	SenderID   string      `json:"sender_id" firestore:"senderId"`
	SenderType SenderRole  `json:"sender_type" firestore:"senderType"`
	Type       MessageType `json:"type" firestore:"type"`
	Content    string      `json:"content" firestore:"content"`
	ImageURL   string      `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	Timestamp  time.Time   `json:"timestamp" firestore:"timestamp,serverTimestamp"`
}

// Summary is the short text shown in a notification for this message.
func (m *ChatMessage) Summary() string {
	switch m.Type {
	case MessageTypeImage:
		return "📷 Imagen"
	case MessageTypeLocation:
		return "📍 Ubicación"
	default:
		return m.Content
	}
}
