package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/soyeahso/brainquest/internal/domain"
	"github.com/soyeahso/brainquest/internal/quiz"
	"github.com/soyeahso/brainquest/internal/relay"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	timeout := s.cfg.RequestTimeout()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /api/mcq", withTimeout(s.handleMCQ, timeout))
	mux.HandleFunc("POST /api/chat", withTimeout(s.handleChat, timeout))
	mux.HandleFunc("POST /api/performance", withTimeout(s.handlePerformance, timeout))
	mux.HandleFunc("GET /api/sessions", s.handleSessionList)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all WebSocket RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("stats", s.rpcStats)
	s.Handle("chat.send", s.rpcChatSend)
	s.Handle("mcq.generate", s.rpcMCQGenerate)
	s.Handle("performance.review", s.rpcPerformanceReview)
	s.Handle("session.get", s.rpcSessionGet)
	s.Handle("session.list", s.rpcSessionList)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
	})
}

func (s *Server) rpcStats(rc *RequestContext) {
	rc.Respond(s.stats.Snapshot(s.clients.Count(), s.startedAt))
}

type chatSendParams struct {
	SessionID flexString `json:"sessionId"`
	Message   flexString `json:"message"`
	Type      flexString `json:"type"`
}

// replyPayload is the RPC view of a relay reply.
type replyPayload struct {
	Reply      string                 `json:"reply"`
	SessionID  string                 `json:"sessionId"`
	Model      string                 `json:"model,omitempty"`
	ToolCalls  []relay.ToolInvocation `json:"toolCalls,omitempty"`
	TokensUsed int                    `json:"tokensUsed"`
	DurationMs int64                  `json:"durationMs"`
}

func newReplyPayload(r *relay.Reply) replyPayload {
	return replyPayload{
		Reply:      r.Text,
		SessionID:  r.SessionID,
		Model:      r.Model,
		ToolCalls:  r.ToolCalls,
		TokensUsed: r.Usage.TotalTokens,
		DurationMs: r.Duration.Milliseconds(),
	}
}

func (s *Server) rpcChatSend(rc *RequestContext) {
	var p chatSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	ctx, cancel := s.rpcContext(rc.Client.Context())
	defer cancel()
	s.emit(ctx, "chat.send", "ws")

	reply, err := s.quiz.Chat(ctx, quiz.ChatParams{
		SessionID: string(p.SessionID),
		Prompt:    string(p.Message),
		Type:      string(p.Type),
	})
	if err != nil {
		rc.RespondServiceError(err)
		return
	}
	rc.Respond(newReplyPayload(reply))
}

func (s *Server) rpcMCQGenerate(rc *RequestContext) {
	var p mcqRequest
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	ctx, cancel := s.rpcContext(rc.Client.Context())
	defer cancel()
	s.emit(ctx, "mcq.generate", "ws")

	questions, err := s.quiz.GenerateQuestions(ctx, p.params())
	if err != nil {
		rc.RespondServiceError(err)
		return
	}
	rc.Respond(map[string]any{
		"sessionId": domain.SessionOrDefault(string(p.SessionID)),
		"questions": questions,
	})
}

func (s *Server) rpcPerformanceReview(rc *RequestContext) {
	var p performanceRequest
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	ctx, cancel := s.rpcContext(rc.Client.Context())
	defer cancel()
	s.emit(ctx, "performance.review", "ws")

	reply, err := s.quiz.ReviewPerformance(ctx, p.params())
	if err != nil {
		rc.RespondServiceError(err)
		return
	}
	payload := newReplyPayload(reply)
	rc.Respond(map[string]any{
		"feedback":   payload.Reply,
		"sessionId":  payload.SessionID,
		"tokensUsed": payload.TokensUsed,
		"durationMs": payload.DurationMs,
	})
}

type sessionGetParams struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) rpcSessionGet(rc *RequestContext) {
	var p sessionGetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	ctx, cancel := s.rpcContext(rc.Client.Context())
	defer cancel()

	view, err := s.sessionView(ctx, p.SessionID)
	if err != nil {
		rc.RespondServiceError(err)
		return
	}
	rc.Respond(view)
}

func (s *Server) rpcSessionList(rc *RequestContext) {
	ctx, cancel := s.rpcContext(rc.Client.Context())
	defer cancel()

	list, err := s.sessionList(ctx)
	if err != nil {
		rc.RespondServiceError(err)
		return
	}
	rc.Respond(list)
}

// SessionList names every session the memory store holds.
type SessionList struct {
	Sessions []string `json:"sessions"`
}

func (s *Server) sessionList(ctx context.Context) (SessionList, error) {
	ids, err := s.memory.Sessions(ctx)
	if err != nil {
		return SessionList{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return SessionList{Sessions: ids}, nil
}

func (s *Server) sessionView(ctx context.Context, id string) (SessionView, error) {
	id = domain.SessionOrDefault(strings.TrimSpace(id))
	turns, err := s.memory.Get(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return SessionView{SessionID: id, Turns: turns}, nil
}

// rpcContext bounds one WebSocket request by the gateway request timeout
// and by the life of its connection.
func (s *Server) rpcContext(conn context.Context) (context.Context, context.CancelFunc) {
	if d := s.cfg.RequestTimeout(); d > 0 {
		return context.WithTimeout(conn, d)
	}
	return context.WithCancel(conn)
}

// errorCode maps a service error onto an RPC error code.
func errorCode(err error) string {
	var parseErr *quiz.ParseError
	var relayErr *relay.Error
	switch {
	case errors.Is(err, quiz.ErrEmptyPrompt):
		return CodeInvalidParams
	case errors.As(err, &parseErr):
		return CodeParseError
	case errors.As(err, &relayErr):
		return CodeRelayError
	default:
		return CodeInternal
	}
}
