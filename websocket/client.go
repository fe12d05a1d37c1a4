package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"geotrack/models"
	"geotrack/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer size for client send channel
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

type Client struct {
	// WebSocket connection
	conn *websocket.Conn

	// Connection metadata
	id          string
	connectedAt time.Time
	ipAddress   string

	// Buffered channel of outbound messages
	send chan models.WSMessage

	// Hub reference
	hub *Hub

	rateLimiter *utils.RateLimiter
}

func NewClient(conn *websocket.Conn, hub *Hub, r *http.Request) *Client {
	return &Client{
		conn:        conn,
		hub:         hub,
		send:        make(chan models.WSMessage, sendBufferSize),
		id:          uuid.New().String(),
		connectedAt: time.Now(),
		ipAddress:   r.RemoteAddr,
		rateLimiter: utils.NewRateLimiter(100, time.Minute),
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and attaches
// the client to the hub.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, hub, r)
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// enqueue buffers a message for the client, dropping it when the client
// is too slow to drain its queue.
func (c *Client) enqueue(message models.WSMessage) {
	select {
	case c.send <- message:
	default:
		logrus.Debugf("Client %s send buffer full, dropping message", c.id)
	}
}

// readPump handles inbound messages (subscription requests) until the
// connection closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Debugf("Client %s read error: %v", c.id, err)
			}
			return
		}

		if !c.rateLimiter.Allow() {
			c.enqueue(models.WSMessage{
				Type:      models.WSTypeError,
				Data:      "rate limit exceeded",
				Timestamp: time.Now(),
			})
			continue
		}

		var req models.WSSubscribeRequest
		if err := json.Unmarshal(data, &req); err != nil || len(req.DeviceIDs) == 0 {
			c.enqueue(models.WSMessage{
				Type:      models.WSTypeError,
				Data:      "expected {\"deviceIds\": [...]}",
				Timestamp: time.Now(),
			})
			continue
		}

		c.hub.subscribe <- subscription{client: c, deviceIDs: req.DeviceIDs}
	}
}

// writePump pushes queued messages and pings to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logrus.Debugf("Client %s write error: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
