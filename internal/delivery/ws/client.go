package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize is the per-connection outbound queue
	sendBufferSize = 1024
)

// Client represents a single websocket connection
type Client struct {
	ID         string
	RemoteAddr string

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, id, remoteAddr string) *Client {
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
	}
}

// ReadPump pumps frames from the websocket connection to the hub.
// Frames that are not a JSON envelope are dropped.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket closed", "conn", c.ID, "error", err)
			}
			return
		}

		var msg domain.Incoming
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			c.hub.logger.Debug("dropping malformed frame", "conn", c.ID)
			continue
		}

		if !c.hub.Dispatch(c, msg) {
			return
		}
	}
}

// WritePump pumps frames from the hub to the websocket connection.
// Queued frames are flushed one websocket message each.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, next); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send adds a message to the client's send queue. It reports false when
// the queue is full.
func (c *Client) Send(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close closes the underlying connection once. The read pump then
// unregisters the client.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
