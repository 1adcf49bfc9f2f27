// Package hooks dispatches relay and gateway lifecycle events to in-process listeners.
package hooks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/brainquest/internal/logging"
)

// Lifecycle events.
const (
	EventRequestReceived = "request_received"
	EventRelayStart      = "relay_start"
	EventToolExecuted    = "tool_executed"
	EventRelayDone       = "relay_done"
	EventRelayFailed     = "relay_failed"
	EventGatewayStart    = "gateway_start"
	EventGatewayStop     = "gateway_stop"
)

// AllEvents lists every event the relay and gateway emit.
var AllEvents = []string{
	EventRequestReceived,
	EventRelayStart,
	EventToolExecuted,
	EventRelayDone,
	EventRelayFailed,
	EventGatewayStart,
	EventGatewayStop,
}

// Known reports whether event is one of AllEvents.
func Known(event string) bool {
	return slices.Contains(AllEvents, event)
}

// Payload is what a handler receives.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// String returns Data[key] when it holds a string.
func (p Payload) String(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// Bool returns Data[key] when it holds a bool.
func (p Payload) Bool(key string) bool {
	b, _ := p.Data[key].(bool)
	return b
}

// Handler reacts to an event. A returned error is logged and never
// reaches the emitter.
type Handler func(ctx context.Context, p Payload) error

// Manager keeps handlers per event and dispatches to them.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	inflight sync.WaitGroup
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers handler under name for event. Handlers run in
// registration order.
func (m *Manager) On(event, name string, handler Handler) {
	if !Known(event) {
		m.log.Warn().Str("event", event).Str("handler", name).Msg("handler registered for unknown event")
	}
	m.mu.Lock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.mu.Unlock()
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

func (m *Manager) snapshot(event string) []namedHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.handlers[event])
}

// Emit runs the handlers for event on the calling goroutine.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	p := Payload{Event: event, Data: data}
	for _, h := range m.snapshot(event) {
		m.run(ctx, h, p)
	}
}

// EmitAsync starts every handler for event on its own goroutine and
// returns. Wait drains them.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	handlers := m.snapshot(event)
	if len(handlers) == 0 {
		return
	}
	p := Payload{Event: event, Data: data}
	m.inflight.Add(len(handlers))
	for _, h := range handlers {
		go func() {
			defer m.inflight.Done()
			m.run(ctx, h, p)
		}()
	}
}

// run calls one handler, turning a panic into a logged error so a bad
// listener cannot take down a relay call.
func (m *Manager) run(ctx context.Context, h namedHandler, p Payload) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = h.handler(ctx, p)
	}()
	if err != nil {
		m.log.Warn().Err(err).Str("event", p.Event).Str("handler", h.name).Msg("hook handler error")
	}
}

// Events returns the sorted events that have at least one handler.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []string
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	slices.Sort(events)
	return events
}

// Wait blocks until every handler started by EmitAsync has returned.
func (m *Manager) Wait() {
	m.inflight.Wait()
}
