package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/brainquest/internal/llm"
	"github.com/soyeahso/brainquest/internal/logging"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 15 * time.Second

// Result is the outcome of one tool invocation.
type Result struct {
	Name     string        `json:"name"`
	Output   string        `json:"output"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Registry holds the available tools in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	tools   map[string]Tool
	timeout time.Duration
	log     *logging.Logger
}

// NewRegistry creates an empty registry. A non-positive timeout uses DefaultTimeout.
func NewRegistry(log *logging.Logger, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: timeout,
		log:     log.Sub("tools"),
	}
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
	r.log.Info().Str("tool", t.Name()).Msg("registered tool")
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions returns model-ready descriptors in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.NewFunctionTool(t.Name(), t.Description(), t.Parameters()))
	}
	return defs
}

// Execute dispatches one invocation by name. It never fails: unknown tools,
// bad arguments, errors and panics all become text the model can read.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (res Result) {
	start := time.Now()
	res.Name = name
	defer func() {
		res.Duration = time.Since(start)
	}()

	tool, ok := r.Get(name)
	if !ok {
		r.log.Warn().Str("tool", name).Msg("model requested unknown tool")
		res.Output = "Tool not found: " + name
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("tool", name).Interface("panic", p).Msg("tool panicked")
			res.Err = fmt.Errorf("panic: %v", p)
			res.Output = fmt.Sprintf("Tool %s failed: %v", name, p)
		}
	}()

	out, err := tool.Execute(ctx, json.RawMessage(arguments))
	res.Output, res.Err = out, err
	if err != nil {
		var argErr *ArgumentError
		switch {
		case errors.As(err, &argErr):
			res.Output = argErr.Error()
		case out == "":
			res.Output = fmt.Sprintf("Tool %s failed: %v", name, err)
		}
		r.log.Warn().Err(err).Str("tool", name).Msg("tool execution failed")
		return res
	}

	r.log.Debug().Str("tool", name).Int("outputLen", len(out)).Msg("tool executed")
	return res
}
