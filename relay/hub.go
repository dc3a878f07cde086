// Package relay republishes gpsd messages to WebSocket peers. A Hub attaches
// to a client, encodes every message it receives once, and fans the JSON out
// to all connected peers.
package relay

import (
	"net/http"
	"sync"
	"time"

	"github.com/gear6io/gpsd4go/client"
	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/gear6io/gpsd4go/protocol"
	"github.com/gear6io/gpsd4go/utils"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	DefaultSendBuffer   = 64
	DefaultWriteTimeout = 5 * time.Second
)

type Option func(*Hub)

// WithSendBuffer sets how many messages may wait for a peer before it is
// considered slow and dropped.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.writeTimeout = d
	}
}

// WithCheckOrigin replaces the origin check, which accepts everything by
// default.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// Hub is an http.Handler that upgrades requests to WebSocket peers.
type Hub struct {
	logger       zerolog.Logger
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration

	mu      sync.RWMutex
	peers   map[*peer]struct{}
	closed  bool
	client  *client.Client
	handler *client.Handler

	wg sync.WaitGroup
}

type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sendBuffer:   DefaultSendBuffer,
		writeTimeout: DefaultWriteTimeout,
		peers:        make(map[*peer]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach subscribes the hub to every message c dispatches.
func (h *Hub) Attach(c *client.Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.New(ErrHubClosed, "hub is closed")
	}
	if h.client != nil {
		return errors.New(ErrAlreadyAttached, "hub is already attached to a client")
	}

	h.client = c
	h.handler = client.NewHandler(h.publish)
	c.RegisterForAll(h.handler)
	return nil
}

// Detach stops relaying messages from the attached client. Peers stay
// connected.
func (h *Hub) Detach() {
	h.mu.Lock()
	c, handler := h.client, h.handler
	h.client, h.handler = nil, nil
	h.mu.Unlock()

	if c != nil {
		c.UnregisterAll(handler)
	}
}

func (h *Hub) publish(msg protocol.Message) {
	data, err := protocol.Marshal(msg)
	if err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type().String()).Msg("Failed to encode message for relay")
		return
	}
	h.Broadcast(data)
}

// Broadcast queues data for every peer. Peers whose send buffer is full are
// disconnected.
func (h *Hub) Broadcast(data []byte) {
	var slow []*peer

	h.mu.RLock()
	for p := range h.peers {
		select {
		case p.send <- data:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range slow {
		h.logger.Warn().Str("peer_id", p.id).Msg("Dropping slow relay peer")
		h.remove(p)
	}
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "relay closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Debug().
			Err(errors.Wrap(ErrUpgradeFailed, err, "websocket upgrade failed")).
			Str("remote", r.RemoteAddr).
			Msg("Rejected relay peer")
		return
	}

	p := &peer{
		id:   utils.GenerateULIDString(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}
	if !h.add(p) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay closed"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	h.logger.Info().Str("peer_id", p.id).Str("remote", r.RemoteAddr).Msg("Relay peer connected")

	h.wg.Add(1)
	go h.writeLoop(p)
	h.readLoop(p)
}

// readLoop discards peer input; it only notices when the peer goes away.
func (h *Hub) readLoop(p *peer) {
	defer h.remove(p)
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug().Err(err).Str("peer_id", p.id).Msg("Relay peer read failed")
			}
			return
		}
	}
}

func (h *Hub) writeLoop(p *peer) {
	defer h.wg.Done()
	defer p.conn.Close()

	for data := range p.send {
		if h.writeTimeout > 0 {
			_ = p.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug().Err(err).Str("peer_id", p.id).Msg("Relay peer write failed")
			h.remove(p)
			return
		}
	}

	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (h *Hub) add(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	return true
}

// remove closes the peer's send queue once; writeLoop then closes the socket.
func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p]
	if ok {
		delete(h.peers, p)
		close(p.send)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Info().Str("peer_id", p.id).Msg("Relay peer disconnected")
	}
}

// Close detaches the hub, disconnects every peer and waits for their writers
// to finish. New peers are refused afterwards.
func (h *Hub) Close() {
	h.Detach()

	h.mu.Lock()
	h.closed = true
	for p := range h.peers {
		delete(h.peers, p)
		close(p.send)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
