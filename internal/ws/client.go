package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 256

// Client is a single admitted websocket connection. The read goroutine only
// watches for disconnect (clients talk to the server over REST, not the
// socket); the write goroutine drains the send channel so a slow browser
// never blocks the hub.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userID      int
	connID      string
	connectedAt time.Time
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
