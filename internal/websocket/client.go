package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait is time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// pingPeriod is the interval for sending pings (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize fits one calculator request
	maxMessageSize = 4096

	// messageTimeout bounds the work done for one inbound message
	messageTimeout = 5 * time.Second
)

// MessageHandler answers one inbound message. A nil reply sends nothing.
type MessageHandler func(ctx context.Context, client ClientInterface, data []byte) []byte

// Client represents a single WebSocket connection
type Client struct {
	id           string
	dealershipID int32
	conn         *websocket.Conn
	hub          *Hub
	onMessage    MessageHandler
	send         chan []byte
	closed       bool
	mu           sync.RWMutex
	closeOnce    sync.Once
}

// NewClient creates a new WebSocket client. dealershipID is AnonymousDealershipID for
// connections made without a token. onMessage may be nil, in which case inbound
// messages are read and dropped.
func NewClient(conn *websocket.Conn, dealershipID int32, hub *Hub, onMessage MessageHandler) *Client {
	return &Client{
		id:           uuid.New().String(),
		dealershipID: dealershipID,
		conn:         conn,
		hub:          hub,
		onMessage:    onMessage,
		send:         make(chan []byte, 256),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// DealershipID returns the client's dealership ID
func (c *Client) DealershipID() int32 {
	return c.dealershipID
}

// Send queues a message to be sent to the client
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer is full, client is too slow
		return ErrClientClosed
	}
}

// Close closes the client connection
// Safe to call multiple times from different goroutines
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump reads calculator requests from the connection and queues the replies.
// This should be run in a goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("dealership_id", c.dealershipID).
					Msg("WebSocket unexpected close")
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	if c.onMessage == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	reply := c.onMessage(ctx, c, message)
	if reply == nil {
		return
	}
	if err := c.Send(reply); err != nil {
		log.Warn().
			Err(err).
			Str("client_id", c.id).
			Msg("Dropped calculator reply")
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
// This should be run in a goroutine
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
				// Channel closed, hub closed this client
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("dealership_id", c.dealershipID).
					Msg("WebSocket write error")
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
