package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rikoadmin/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one staff browser connected for a restaurant.
type Client struct {
	RestaurantID string
	Conn         *websocket.Conn
	Send         chan []byte
}

func NewClient(restaurantID string, conn *websocket.Conn) *Client {
	return &Client{
		RestaurantID: restaurantID,
		Conn:         conn,
		Send:         make(chan []byte, sendBuffer),
	}
}

type roomEvent struct {
	restaurantID string
	payload      []byte
}

// chatView remembers which client opened a restaurant's active chat.
type chatView struct {
	client  *Client
	orderID string
}

// Manager keeps one room of clients per restaurant and fans events out to it.
type Manager struct {
	rooms      map[string]map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan *roomEvent
	chats      map[string]chatView
	mutex      sync.RWMutex

	views ChatViewHandler
}

func NewManager() *Manager {
	return &Manager{
		rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, sendBuffer),
		chats:      make(map[string]chatView),
	}
}

// SetChatViewHandler installs the receiver of open_chat/close_chat messages.
// Must be called before Start.
func (m *Manager) SetChatViewHandler(h ChatViewHandler) {
	m.views = h
}

// Start runs the manager's main loop in a goroutine until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.rooms[client.RestaurantID] == nil {
					m.rooms[client.RestaurantID] = make(map[*Client]bool)
				}
				m.rooms[client.RestaurantID][client] = true
				m.mutex.Unlock()
				logger.Info("WebSocket client registered for restaurant %s", client.RestaurantID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				released := m.remove(client)
				m.mutex.Unlock()
				m.releaseChat(client.RestaurantID, released)
				logger.Info("WebSocket client unregistered for restaurant %s", client.RestaurantID)

			case event := <-m.broadcast:
				var released []string
				m.mutex.Lock()
				for client := range m.rooms[event.restaurantID] {
					select {
					case client.Send <- event.payload:
					default:
						logger.Warn("WebSocket client for restaurant %s is not reading, dropping it", client.RestaurantID)
						if orderID := m.remove(client); orderID != "" {
							released = append(released, orderID)
						}
					}
				}
				m.mutex.Unlock()
				for _, orderID := range released {
					m.releaseChat(event.restaurantID, orderID)
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}

// remove must be called with the mutex held. It returns the order whose chat
// the client had open, if the client is still the one that opened it.
func (m *Manager) remove(client *Client) string {
	clients, ok := m.rooms[client.RestaurantID]
	if !ok {
		return ""
	}
	if _, exists := clients[client]; !exists {
		return ""
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(m.rooms, client.RestaurantID)
	}

	view, ok := m.chats[client.RestaurantID]
	if !ok || view.client != client {
		return ""
	}
	delete(m.chats, client.RestaurantID)
	return view.orderID
}

// releaseChat closes the chat view a departed client left open, unless the
// restaurant has moved on to another chat since.
func (m *Manager) releaseChat(restaurantID, orderID string) {
	if orderID == "" || m.views == nil {
		return
	}
	if m.views.ActiveChat(restaurantID) != orderID {
		return
	}
	if err := m.views.SetActiveChat(restaurantID, ""); err != nil {
		logger.Debug("WebSocket: could not release chat %s for restaurant %s: %v", orderID, restaurantID, err)
	}
}

// BroadcastToRestaurant queues an event for every client of the restaurant.
// It never blocks; events are dropped when the queue is full.
func (m *Manager) BroadcastToRestaurant(restaurantID, eventType string, data interface{}) {
	payload, err := json.Marshal(newEvent(eventType, data))
	if err != nil {
		logger.Error("Failed to encode WebSocket event %s: %v", eventType, err)
		return
	}

	select {
	case m.broadcast <- &roomEvent{restaurantID: restaurantID, payload: payload}:
	default:
		logger.Warn("WebSocket broadcast queue full, dropping %s for restaurant %s", eventType, restaurantID)
	}
}

// ClientCount reports how many clients are connected for a restaurant.
func (m *Manager) ClientCount(restaurantID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[restaurantID])
}

// ReadPump reads client messages until the connection closes.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for restaurant %s: %v", c.RestaurantID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump sends queued events and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error for restaurant %s: %v", c.RestaurantID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
