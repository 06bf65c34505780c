// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
)

var log = logutils.Component("ws")

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Inbox
	MessageNotification      MessageType = "notification"
	MessageNotificationCount MessageType = "notification_count"

	// Project room events
	MessageTaskCreated    MessageType = "task_created"
	MessageTaskUpdated    MessageType = "task_updated"
	MessageTaskDeleted    MessageType = "task_deleted"
	MessageCommentAdded   MessageType = "comment_added"
	MessageMemberAdded    MessageType = "member_added"
	MessageMemberRemoved  MessageType = "member_removed"
	MessageProjectUpdated MessageType = "project_updated"
	MessageProjectDeleted MessageType = "project_deleted"

	// System messages
	MessagePing  MessageType = "ping"
	MessagePong  MessageType = "pong"
	MessageAck   MessageType = "ack"
	MessageError MessageType = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte
	Rooms    map[string]bool // project:<id>
	mu       sync.Mutex
	lastPing time.Time
}

// Hub keeps connected clients indexed by user and by room.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	roomClients map[string]map[*Client]bool

	register      chan *Client
	unregister    chan *Client
	roomBroadcast chan *RoomMessage
	directMessage chan *DirectMessage

	mu sync.RWMutex
}

// RoomMessage represents a message to be sent to a specific room
type RoomMessage struct {
	Room    string
	Message []byte
	Exclude string // User ID to exclude from broadcast
}

// DirectMessage represents a message to be sent to a specific user
type DirectMessage struct {
	UserID  string
	Message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		roomBroadcast: make(chan *RoomMessage, 256),
		directMessage: make(chan *DirectMessage, 256),
	}
}

// Run is the hub's main loop; it returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info("WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)

		case dm := <-h.directMessage:
			h.sendToUser(dm)

		case <-pingTicker.C:
			h.pingClients()
		}
	}
}

// Register hands a client to the hub loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	log.WithFields(logutils.Fields{
		"user": client.UserID, "client": client.ID, "total": len(h.clients),
	}).Debug("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if clients, ok := h.userClients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	client.mu.Lock()
	for room := range client.Rooms {
		if clients, ok := h.roomClients[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.roomClients, room)
			}
		}
	}
	client.mu.Unlock()

	close(client.Send)
	log.WithFields(logutils.Fields{
		"user": client.UserID, "client": client.ID, "total": len(h.clients),
	}).Debug("client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]map[*Client]bool)
	h.roomClients = make(map[string]map[*Client]bool)
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		go func(c *Client) {
			h.unregister <- c
		}(client)
		return false
	}
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.roomClients[rm.Room] {
		if rm.Exclude != "" && client.UserID == rm.Exclude {
			continue
		}
		if h.deliver(client, rm.Message) {
			sent++
		}
	}
	log.WithFields(logutils.Fields{"room": rm.Room, "sent": sent}).Debug("room broadcast")
}

func (h *Hub) sendToUser(dm *DirectMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.userClients[dm.UserID] {
		h.deliver(client, dm.Message)
	}
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})
	for client := range h.clients {
		h.deliver(client, data)
	}
}

// ============================================
// Rooms
// ============================================

func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true
}

func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}
}

// ============================================
// Sending
// ============================================

func encode(msgType MessageType, payload map[string]interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
}

// SendToUser queues a message for every socket the user has open. Never blocks the caller
// when the queue is full; the message is dropped instead.
func (h *Hub) SendToUser(userID string, msgType MessageType, payload map[string]interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		log.WithError(err).Warn("marshal direct message")
		return
	}
	select {
	case h.directMessage <- &DirectMessage{UserID: userID, Message: data}:
	default:
		log.WithField("user", userID).Warn("direct message queue full, dropping")
	}
}

// SendToRoom broadcasts to every client in the room except excludeUserID.
func (h *Hub) SendToRoom(room string, msgType MessageType, payload map[string]interface{}, excludeUserID string) {
	data, err := encode(msgType, payload)
	if err != nil {
		log.WithError(err).Warn("marshal room message")
		return
	}
	select {
	case h.roomBroadcast <- &RoomMessage{Room: room, Message: data, Exclude: excludeUserID}:
	default:
		log.WithField("room", room).Warn("room queue full, dropping")
	}
}

// ============================================
// Query Methods
// ============================================

func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.userClients[userID]
	return ok
}

func (h *Hub) GetRoomClients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomClients[room])
}

func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
