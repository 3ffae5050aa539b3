package websocket

import (
	"encoding/json"
	"time"

	"rikoadmin/pkg/logger"
)

// Server to client events.
const (
	EventNewOrders        = "new_orders"
	EventOrdersUpdated    = "orders_updated"
	EventChatNotification = "chat_notification"
	EventPong             = "pong"
	EventError            = "error"
)

// Client to server messages.
const (
	MessageTypePing      = "ping"
	MessageTypeOpenChat  = "open_chat"
	MessageTypeCloseChat = "close_chat"
)

// ChatViewHandler is told which order chat a restaurant's staff is looking at.
type ChatViewHandler interface {
	SetActiveChat(restaurantID, orderID string) error
	ActiveChat(restaurantID string) string
}

type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func newEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

type clientMessage struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id"`
}

// HandleClientMessage processes one incoming WebSocket message.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("WebSocket: invalid message from restaurant %s: %v", client.RestaurantID, err)
		m.sendToClient(client, EventError, map[string]string{"message": "Invalid message format"})
		return
	}

	switch msg.Type {
	case MessageTypePing:
		m.sendToClient(client, EventPong, nil)

	case MessageTypeOpenChat:
		if msg.OrderID == "" {
			m.sendToClient(client, EventError, map[string]string{"message": "order_id is required"})
			return
		}
		m.setActiveChat(client, msg.OrderID)

	case MessageTypeCloseChat:
		m.setActiveChat(client, "")

	default:
		logger.Debug("WebSocket: unknown message type %q from restaurant %s", msg.Type, client.RestaurantID)
		m.sendToClient(client, EventError, map[string]string{"message": "Unknown message type"})
	}
}

func (m *Manager) setActiveChat(client *Client, orderID string) {
	if m.views == nil {
		return
	}
	if err := m.views.SetActiveChat(client.RestaurantID, orderID); err != nil {
		m.sendToClient(client, EventError, map[string]string{"message": err.Error()})
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if orderID == "" {
		delete(m.chats, client.RestaurantID)
		return
	}
	if m.rooms[client.RestaurantID][client] {
		m.chats[client.RestaurantID] = chatView{client: client, orderID: orderID}
	}
}

// sendToClient answers a single client directly; it is dropped when the
// client's buffer is full.
func (m *Manager) sendToClient(client *Client, eventType string, data interface{}) {
	payload, err := json.Marshal(newEvent(eventType, data))
	if err != nil {
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if !m.rooms[client.RestaurantID][client] {
		return
	}
	select {
	case client.Send <- payload:
	default:
	}
}
