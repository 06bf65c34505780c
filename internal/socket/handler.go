// internal/socket/handler.go
package socket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TokenValidator resolves an access token to a user ID.
type TokenValidator func(token string) (string, error)

// RoomAuthorizer decides whether a user may subscribe to a room.
type RoomAuthorizer func(userID, room string) bool

type Handler struct {
	Hub       *Hub
	validate  TokenValidator
	authorize RoomAuthorizer
}

func NewHandler(hub *Hub, validate TokenValidator, authorize RoomAuthorizer) *Handler {
	return &Handler{
		Hub:       hub,
		validate:  validate,
		authorize: authorize,
	}
}

// HandleWebSocket upgrades the request. The token comes from the query string
// because browser WebSocket clients cannot set headers.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	userID, err := h.validate(tokenString)
	if err != nil || userID == "" {
		log.WithError(err).Debug("websocket handshake rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := NewClient(h.Hub, userID, conn)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.authorize)
}

func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		Rooms:    make(map[string]bool),
		lastPing: time.Now(),
	}
}
