package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 << 10
)

// Client owns one websocket connection. The write pump is the only
// goroutine writing to the socket; everyone else goes through send.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	log       *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(conn *websocket.Conn, sendBuffer int, log *slog.Logger) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
		done: make(chan struct{}),
	}
}

// Enqueue hands a frame to the write pump without blocking. A full
// buffer means the peer stopped draining; the connection is closed and
// the client recovers missed frames through history on reconnect.
func (c *Client) Enqueue(data []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection closed")
	case c.send <- data:
		return nil
	default:
		c.log.Warn("Send buffer full, dropping slow consumer")
		c.Close()
		return fmt.Errorf("send buffer full")
	}
}

// ReadPump reads frames until the peer goes away and feeds each one to
// handle. It runs on the caller's goroutine.
func (c *Client) ReadPump(handle func(data []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Unexpected close", "error", err)
			}
			return
		}
		handle(data)
	}
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
