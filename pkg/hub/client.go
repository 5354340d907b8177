package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds what a viewer may send us
	maxMessageSize = 4 * 1024

	// sendBuffer is how many messages may queue per viewer
	sendBuffer = 8
)

// Conn is the subset of a websocket connection the client pumps use.
// *websocket.Conn from gofiber/websocket satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Client is one websocket viewer.
type Client struct {
	ID   string
	hub  *Hub
	conn Conn
	send chan Message
}

// NewClient registers conn with hub. greeting messages are delivered
// before any broadcast. It returns nil if the hub has stopped.
func NewClient(hub *Hub, conn Conn, greeting ...Message) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer+len(greeting)),
	}
	for _, m := range greeting {
		c.send <- m
	}

	select {
	case hub.register <- c:
		return c
	case <-hub.done:
		return nil
	}
}

// offer queues msg, evicting the oldest queued message when full.
// It reports false if something was evicted. Only the hub calls it.
func (c *Client) offer(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- msg:
	default:
	}
	return false
}

// Run pumps messages until the connection closes.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump only exists to notice disconnects and answer pongs; viewers
// never send anything meaningful.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msg.Type.wsType(), msg.Data); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
