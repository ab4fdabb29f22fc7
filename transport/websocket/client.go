package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roomhub/pkg/logger"
	"roomhub/presence"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outgoing queue depth per connection.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Handler receives inbound traffic and lifecycle events from the transport.
// The hub dispatcher satisfies this.
type Handler interface {
	HandleMessage(conn presence.Conn, raw []byte)
	HandleDisconnect(conn presence.Conn)
}

// Server upgrades HTTP requests to WebSocket connections and runs the
// per-connection pumps.
type Server struct {
	handler        Handler
	maxMessageSize int64
	log            logger.Logger
}

// NewServer creates a WebSocket server that forwards traffic to handler.
func NewServer(handler Handler, maxMessageSize int64, log logger.Logger) *Server {
	return &Server{
		handler:        handler,
		maxMessageSize: maxMessageSize,
		log:            log,
	}
}

// ServeWS handles one WebSocket upgrade request.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		handler: s.handler,
		log:     s.log,
	}
	conn.SetReadLimit(s.maxMessageSize)

	s.log.Infof("websocket connection from %s", conn.RemoteAddr())

	go client.writePump()
	go client.readPump()
}

// Client wraps one WebSocket connection. It implements presence.Conn: Send
// pushes a serialized envelope onto the buffered queue without blocking.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	handler Handler
	log     logger.Logger

	mu     sync.Mutex
	closed bool
}

// Send queues a payload for delivery. It reports false once the connection
// is closed or when the queue is full; the payload is dropped either way.
func (c *Client) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close marks the client closed and tears down the send queue. Safe to call
// once; readPump is the only caller.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.send)
	c.conn.Close()
}

// readPump pumps inbound frames to the handler. It owns connection teardown:
// whatever ends the read loop, the disconnect handler runs exactly once.
func (c *Client) readPump() {
	defer func() {
		c.close()
		c.handler.HandleDisconnect(c)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Errorf("websocket read error: %v", err)
			}
			break
		}
		c.handler.HandleMessage(c, raw)
	}
}

// writePump drains the send queue to the peer and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
