package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/brainquest/internal/logging"
)

// writeWait bounds a single frame write to a slow peer.
const writeWait = 10 * time.Second

var (
	ErrClientClosed   = errors.New("client connection closed")
	ErrMalformedFrame = errors.New("malformed frame")
)

// Client is one WebSocket connection. Writes are serialized; reads
// belong to the connection's read loop.
type Client struct {
	ConnID      string
	Remote      string
	UserAgent   string
	Socket      *websocket.Conn
	ConnectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn. The client's context derives from ctx and ends
// when the connection is closed.
func NewClient(ctx context.Context, conn *websocket.Conn, remote, userAgent string) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		ConnID:      uuid.NewString(),
		Remote:      remote,
		UserAgent:   userAgent,
		Socket:      conn,
		ConnectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Context is canceled once the connection closes.
func (c *Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Send writes frame as one JSON text message.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if err := c.Socket.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Socket.WriteJSON(frame)
}

func (c *Client) SendEvent(event string, payload any, seq int64) error {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		return err
	}
	return c.Send(f)
}

func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

func (c *Client) RespondError(reqID string, shape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, shape))
}

// ReadFrame blocks for the next message. A message that is not a JSON
// frame yields an error wrapping ErrMalformedFrame and leaves the
// connection usable.
func (c *Client) ReadFrame() (Frame, error) {
	_, msg, err := c.Socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return f, nil
}

// Close is idempotent. It cancels work running under Context.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	return c.Socket.Close()
}

// ClientRegistry tracks live connections by ConnID.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logging.Logger
}

func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	r.clients[c.ConnID] = c
	n := len(r.clients)
	r.mu.Unlock()
	r.log.Info().Str("connId", c.ConnID).Str("remote", c.Remote).Int("clients", n).Msg("client connected")
}

func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	delete(r.clients, connID)
	n := len(r.clients)
	r.mu.Unlock()
	r.log.Info().Str("connId", connID).Int("clients", n).Msg("client disconnected")
}

func (r *ClientRegistry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ClientRegistry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Collect(maps.Values(r.clients))
}

// Broadcast sends one event to every connection and returns how many
// writes succeeded. The registry lock is not held during writes.
func (r *ClientRegistry) Broadcast(event string, payload any, seq int64) int {
	sent := 0
	for _, c := range r.snapshot() {
		if err := c.SendEvent(event, payload, seq); err != nil {
			r.log.Debug().Err(err).Str("connId", c.ConnID).Str("event", event).Msg("broadcast send failed")
			continue
		}
		sent++
	}
	return sent
}

// CloseAll closes and forgets every connection.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	closing := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()
	for _, c := range closing {
		c.Close()
	}
}
