// Package relay runs the one- or two-round chat-completions exchange for a
// single user message.
//
// Each call walks an explicit state machine:
//
//	build -> call1 -> reply                           (direct answer)
//	build -> call1 -> executeTools -> call2 -> reply  (tool round)
//
// The user's turn is written to memory in build; only the final assistant
// text is written in reply. Tool traffic never reaches memory.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/brainquest/internal/domain"
	"github.com/soyeahso/brainquest/internal/hooks"
	"github.com/soyeahso/brainquest/internal/llm"
	"github.com/soyeahso/brainquest/internal/logging"
	"github.com/soyeahso/brainquest/internal/memory"
	"github.com/soyeahso/brainquest/internal/prompts"
	"github.com/soyeahso/brainquest/internal/tools"
)

// State is a step of the relay state machine.
type State string

const (
	StateBuild        State = "build"
	StateCall1        State = "call1"
	StateExecuteTools State = "execute_tools"
	StateCall2        State = "call2"
	StateReply        State = "reply"
	StateDone         State = "done"
)

// ErrEmptyReply is returned when the model answers with neither text nor
// usable tool calls.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Error reports the state in which a relay call failed.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("relay %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Request is one user message to relay.
type Request struct {
	SessionID string
	Message   string
	Type      string // request type label, see prompts.Normalize
}

// ToolInvocation records one tool call made while answering.
type ToolInvocation struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Arguments string        `json:"arguments"`
	Output    string        `json:"output"`
	Duration  time.Duration `json:"duration"`
}

// Reply is the outcome of a successful relay call.
type Reply struct {
	Text      string           `json:"text"`
	SessionID string           `json:"sessionId"`
	Type      prompts.Type     `json:"type"`
	ToolCalls []ToolInvocation `json:"toolCalls,omitempty"`
	Model     string           `json:"model,omitempty"`
	Usage     llm.Usage        `json:"usage"`
	Duration  time.Duration    `json:"duration"`
}

// Option configures a Relay.
type Option func(*Relay)

// WithModel overrides the model ID sent with each request.
func WithModel(model string) Option {
	return func(r *Relay) { r.model = model }
}

// WithHooks attaches a hook manager for relay lifecycle events.
func WithHooks(h *hooks.Manager) Option {
	return func(r *Relay) { r.hooks = h }
}

// WithRollbackOnFailure removes the user's turn from memory when the
// exchange fails, so a failed request leaves no trace in history.
func WithRollbackOnFailure(enabled bool) Option {
	return func(r *Relay) { r.rollback = enabled }
}

// Relay orchestrates model calls, tool execution and session memory.
type Relay struct {
	client   llm.Client
	memory   memory.Store
	tools    *tools.Registry
	hooks    *hooks.Manager
	model    string
	rollback bool
	log      *logging.Logger
}

// New creates a Relay. reg may be nil, which disables tools entirely.
func New(client llm.Client, mem memory.Store, reg *tools.Registry, log *logging.Logger, opts ...Option) *Relay {
	r := &Relay{
		client: client,
		memory: mem,
		tools:  reg,
		log:    log.Sub("relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// exchange is the mutable state of one Send call.
type exchange struct {
	req      Request
	typ      prompts.Type
	state    State
	userTurn domain.Turn
	messages []llm.Message
	withTool bool
	resp     *llm.CompletionResponse
	reply    string
	calls    []ToolInvocation
	usage    llm.Usage
	log      *logging.Logger
}

// Send relays one user message and returns the final reply.
func (r *Relay) Send(ctx context.Context, req Request) (*Reply, error) {
	start := time.Now()
	req.SessionID = domain.SessionOrDefault(req.SessionID)

	ex := &exchange{
		req:   req,
		typ:   prompts.Normalize(req.Type),
		state: StateBuild,
		log:   r.log.With("session", req.SessionID),
	}
	r.emit(ctx, hooks.EventRelayStart, map[string]any{
		"sessionId": req.SessionID,
		"type":      string(ex.typ),
	})

	for ex.state != StateDone {
		next, err := r.step(ctx, ex)
		if err != nil {
			return nil, r.fail(ctx, ex, err)
		}
		ex.log.Debug().Str("from", string(ex.state)).Str("to", string(next)).Msg("transition")
		ex.state = next
	}

	reply := &Reply{
		Text:      ex.reply,
		SessionID: req.SessionID,
		Type:      ex.typ,
		ToolCalls: ex.calls,
		Usage:     ex.usage,
		Duration:  time.Since(start),
	}
	if ex.resp != nil {
		reply.Model = ex.resp.Model
	}

	ex.log.Info().
		Str("type", string(ex.typ)).
		Int("toolCalls", len(ex.calls)).
		Int("totalTokens", ex.usage.TotalTokens).
		Dur("duration", reply.Duration).
		Msg("reply generated")
	r.emit(ctx, hooks.EventRelayDone, map[string]any{
		"sessionId": req.SessionID,
		"type":      string(ex.typ),
		"toolCalls": len(ex.calls),
		"duration":  reply.Duration,
	})
	return reply, nil
}

// step performs the work of the current state and returns the next one.
func (r *Relay) step(ctx context.Context, ex *exchange) (State, error) {
	switch ex.state {
	case StateBuild:
		return r.build(ctx, ex)
	case StateCall1:
		return r.call1(ctx, ex)
	case StateExecuteTools:
		return r.executeTools(ctx, ex)
	case StateCall2:
		return r.call2(ctx, ex)
	case StateReply:
		return r.persistReply(ctx, ex)
	default:
		return "", fmt.Errorf("unknown state %q", ex.state)
	}
}

func (r *Relay) build(ctx context.Context, ex *exchange) (State, error) {
	turn, err := r.memory.Append(ctx, ex.req.SessionID, domain.NewTurn(domain.RoleUser, ex.req.Message))
	if err != nil {
		return "", fmt.Errorf("recording user turn: %w", err)
	}
	ex.userTurn = turn

	history, err := r.memory.Get(ctx, ex.req.SessionID)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}

	ex.messages = make([]llm.Message, 0, len(history)+1)
	ex.messages = append(ex.messages, llm.Message{Role: llm.RoleSystem, Content: prompts.Get(string(ex.typ))})
	for _, t := range history {
		if t.Role == domain.RoleSystem {
			continue
		}
		ex.messages = append(ex.messages, llm.Message{Role: string(t.Role), Content: t.Content})
	}

	ex.withTool = prompts.ToolsAllowed(string(ex.typ)) && r.tools != nil && r.tools.Len() > 0
	ex.log.Debug().Int("history", len(history)).Bool("tools", ex.withTool).Msg("built prompt")
	return StateCall1, nil
}

func (r *Relay) call1(ctx context.Context, ex *exchange) (State, error) {
	req := llm.CompletionRequest{Model: r.model, Messages: ex.messages}
	if ex.withTool {
		req.Tools = r.tools.Definitions()
		req.ToolChoice = llm.ToolChoiceAuto
	}

	resp, err := r.complete(ctx, ex, req)
	if err != nil {
		return "", err
	}

	if resp.HasToolCalls() && ex.withTool {
		return StateExecuteTools, nil
	}
	if resp.HasToolCalls() {
		ex.log.Warn().Int("toolCalls", len(resp.ToolCalls)).Msg("ignoring tool calls for tool-free request")
	}
	return r.takeContent(ex)
}

func (r *Relay) executeTools(ctx context.Context, ex *exchange) (State, error) {
	calls := ex.resp.ToolCalls
	ex.messages = append(ex.messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   "",
		ToolCalls: calls,
	})

	for _, call := range calls {
		res := r.tools.Execute(ctx, call.Function.Name, call.Function.Arguments)
		ex.calls = append(ex.calls, ToolInvocation{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
			Output:    res.Output,
			Duration:  res.Duration,
		})
		ex.messages = append(ex.messages, llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: call.ID,
			Content:    res.Output,
		})

		ex.log.Info().Str("tool", call.Function.Name).Dur("duration", res.Duration).Msg("tool executed")
		r.emit(ctx, hooks.EventToolExecuted, map[string]any{
			"sessionId": ex.req.SessionID,
			"tool":      call.Function.Name,
			"failed":    res.Err != nil,
		})
	}
	return StateCall2, nil
}

func (r *Relay) call2(ctx context.Context, ex *exchange) (State, error) {
	if _, err := r.complete(ctx, ex, llm.CompletionRequest{Model: r.model, Messages: ex.messages}); err != nil {
		return "", err
	}
	return r.takeContent(ex)
}

func (r *Relay) persistReply(ctx context.Context, ex *exchange) (State, error) {
	if _, err := r.memory.Append(ctx, ex.req.SessionID, domain.NewTurn(domain.RoleAssistant, ex.reply)); err != nil {
		return "", fmt.Errorf("recording reply: %w", err)
	}
	return StateDone, nil
}

func (r *Relay) complete(ctx context.Context, ex *exchange, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := r.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrEmptyReply
	}
	ex.resp = resp
	ex.usage = ex.usage.Add(resp.Usage)
	ex.log.Debug().
		Str("state", string(ex.state)).
		Str("finishReason", resp.FinishReason).
		Int("toolCalls", len(resp.ToolCalls)).
		Msg("model responded")
	return resp, nil
}

func (r *Relay) takeContent(ex *exchange) (State, error) {
	if ex.resp.Content == "" {
		return "", ErrEmptyReply
	}
	ex.reply = ex.resp.Content
	return StateReply, nil
}

// fail logs, optionally rolls back the user's turn, and wraps err.
func (r *Relay) fail(ctx context.Context, ex *exchange, err error) error {
	relayErr := &Error{State: ex.state, Err: err}
	ex.log.Error().Err(err).Str("state", string(ex.state)).Msg("relay failed")

	if r.rollback && ex.userTurn.ID != "" {
		// The caller's context may already be done; the rollback must still land.
		rbCtx := context.WithoutCancel(ctx)
		if _, rbErr := r.memory.Remove(rbCtx, ex.req.SessionID, ex.userTurn.ID); rbErr != nil {
			ex.log.Warn().Err(rbErr).Msg("rollback of user turn failed")
		}
	}

	r.emit(ctx, hooks.EventRelayFailed, map[string]any{
		"sessionId": ex.req.SessionID,
		"state":     string(ex.state),
		"error":     err.Error(),
	})
	return relayErr
}

func (r *Relay) emit(ctx context.Context, event string, data map[string]any) {
	if r.hooks != nil {
		r.hooks.Emit(ctx, event, data)
	}
}
