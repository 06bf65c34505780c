// internal/socket/client.go
package socket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize int64 = 4096
)

// ClientMessage is an incoming message from a client
type ClientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room,omitempty"`
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump(authorize RoomAuthorizer) {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("user", c.UserID).Warn("websocket read error")
			}
			break
		}
		c.handleMessage(message, authorize)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
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

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Batch queued messages into the same frame
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(message []byte, authorize RoomAuthorizer) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.WithError(err).WithField("user", c.UserID).Debug("unparseable client message")
		return
	}

	switch msg.Action {
	case "join":
		if msg.Room == "" {
			return
		}
		if authorize == nil || !authorize(c.UserID, msg.Room) {
			c.reply(MessageError, map[string]interface{}{"action": "join", "room": msg.Room, "error": "forbidden"})
			return
		}
		c.Hub.JoinRoom(c, msg.Room)
		c.reply(MessageAck, map[string]interface{}{"action": "joined", "room": msg.Room})

	case "leave":
		if msg.Room != "" {
			c.Hub.LeaveRoom(c, msg.Room)
			c.reply(MessageAck, map[string]interface{}{"action": "left", "room": msg.Room})
		}

	case "ping":
		c.lastPing = time.Now()
		c.reply(MessagePong, map[string]interface{}{"time": time.Now().Unix()})

	case "pong":
		c.lastPing = time.Now()

	default:
		log.WithFields(logutils.Fields{"user": c.UserID, "action": msg.Action}).Debug("unknown client action")
	}
}

func (c *Client) reply(msgType MessageType, payload map[string]interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.WithField("user", c.UserID).Debug("send buffer full, reply dropped")
	}
}
