package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Sink is one live delivery channel to one client of one user. A user may
// hold several sinks at once (multiple tabs, reconnecting clients).
type Sink interface {
	Send(v any) error
	Close()
}

// Hub maps user ids to their live sinks and fans match events out to them.
// Delivery is at-most-once, best-effort: a sink whose send fails is dropped
// immediately and the client is expected to resynchronize over REST.
type Hub struct {
	mu     sync.RWMutex
	sinks  map[uuid.UUID]map[Sink]struct{}
	logger zerolog.Logger
}

// NewHub creates an empty presence registry.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		sinks:  make(map[uuid.UUID]map[Sink]struct{}),
		logger: logger,
	}
}

// Register adds a sink for a user. Existing sinks of the same user stay live.
func (h *Hub) Register(userID uuid.UUID, s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sinks[userID]
	if !ok {
		set = make(map[Sink]struct{})
		h.sinks[userID] = set
	}
	set[s] = struct{}{}
	h.logger.Info().Str("user_id", userID.String()).Int("sinks", len(set)).Msg("sink registered")
}

// Unregister removes and closes one sink of a user.
func (h *Hub) Unregister(userID uuid.UUID, s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sinks[userID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sinks, userID)
	}
	s.Close()
	h.logger.Info().Str("user_id", userID.String()).Msg("sink unregistered")
}

// SendToUser delivers a message to every live sink of a user. Sinks that
// fail to accept the message are evicted on the spot. Returns the number of
// sinks the message was handed to.
func (h *Hub) SendToUser(userID uuid.UUID, msg any) int {
	h.mu.RLock()
	set := h.sinks[userID]
	targets := make([]Sink, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if err := s.Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("sink send failed, evicting")
			h.Unregister(userID, s)
			continue
		}
		delivered++
	}
	return delivered
}

// SinkCount reports the number of live sinks for a user.
func (h *Hub) SinkCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks[userID])
}

// ConnectionCount reports the total number of live sinks across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.sinks {
		n += len(set)
	}
	return n
}

// Connection wraps a gorilla WebSocket connection with a buffered send queue
// so slow clients never block the broadcaster.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan any
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan any, 64),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the socket.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump consumes inbound frames until the peer goes away. Clients only
// send keepalive text; match inputs arrive over REST.
func (c *Connection) ReadPump() {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
