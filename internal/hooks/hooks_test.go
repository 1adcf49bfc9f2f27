package hooks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/soyeahso/brainquest/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func noop(context.Context, Payload) error { return nil }

func TestEmit_RunsHandlersInOrder(t *testing.T) {
	m := testManager()

	var order []string
	for _, name := range []string{"metrics", "audit", "trace"} {
		m.On(EventRelayStart, name, func(_ context.Context, p Payload) error {
			assert.Equal(t, EventRelayStart, p.Event)
			order = append(order, name)
			return nil
		})
	}

	m.Emit(context.Background(), EventRelayStart, nil)
	assert.Equal(t, []string{"metrics", "audit", "trace"}, order)
}

func TestEmit_PassesData(t *testing.T) {
	m := testManager()

	var got Payload
	m.On(EventToolExecuted, "capture", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), EventToolExecuted, map[string]any{
		"tool":   "googleSearch",
		"failed": true,
		"ms":     12,
	})

	assert.Equal(t, "googleSearch", got.String("tool"))
	assert.True(t, got.Bool("failed"))
	assert.Empty(t, got.String("ms"))
	assert.False(t, got.Bool("missing"))
}

func TestEmit_ErrorAndPanicDoNotStopOthers(t *testing.T) {
	m := testManager()

	var reached bool
	m.On(EventRelayFailed, "erroring", func(context.Context, Payload) error {
		return errors.New("sink unavailable")
	})
	m.On(EventRelayFailed, "panicking", func(context.Context, Payload) error {
		panic("boom")
	})
	m.On(EventRelayFailed, "last", func(context.Context, Payload) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		m.Emit(context.Background(), EventRelayFailed, nil)
	})
	assert.True(t, reached)
}

func TestEmit_NoHandlers(t *testing.T) {
	m := testManager()
	assert.NotPanics(t, func() {
		m.Emit(context.Background(), EventGatewayStop, nil)
	})
}

func TestEmitAsync_Wait(t *testing.T) {
	m := testManager()

	release := make(chan struct{})
	var count atomic.Int32
	for _, name := range []string{"a", "b", "c"} {
		m.On(EventRelayDone, name, func(context.Context, Payload) error {
			<-release
			count.Add(1)
			return nil
		})
	}
	m.On(EventRelayDone, "panics", func(context.Context, Payload) error {
		panic("async boom")
	})

	m.EmitAsync(context.Background(), EventRelayDone, map[string]any{"sessionId": "s1"})
	close(release)
	m.Wait()

	assert.Equal(t, int32(3), count.Load())
}

func TestEmitAsync_NoHandlers(t *testing.T) {
	m := testManager()
	m.EmitAsync(context.Background(), EventRelayDone, nil)
	m.Wait()
}

func TestEvents(t *testing.T) {
	m := testManager()
	assert.Empty(t, m.Events())

	m.On(EventRelayStart, "a", noop)
	m.On(EventGatewayStop, "b", noop)
	m.On(EventGatewayStop, "c", noop)

	assert.Equal(t, []string{EventGatewayStop, EventRelayStart}, m.Events())
}

func TestKnown(t *testing.T) {
	require.Len(t, AllEvents, 7)
	for _, e := range AllEvents {
		assert.True(t, Known(e), e)
	}
	assert.False(t, Known("message_received"))

	m := testManager()
	m.On("custom", "x", noop)
	assert.Equal(t, []string{"custom"}, m.Events())
}
