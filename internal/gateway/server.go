package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/brainquest/internal/config"
	"github.com/soyeahso/brainquest/internal/hooks"
	"github.com/soyeahso/brainquest/internal/logging"
	"github.com/soyeahso/brainquest/internal/memory"
	"github.com/soyeahso/brainquest/internal/quiz"
	"github.com/soyeahso/brainquest/internal/relay"
	"github.com/soyeahso/brainquest/internal/version"
)

// maxFrameBytes caps a single inbound WebSocket message.
const maxFrameBytes = 4 * 1024 * 1024

// QuizService is the request layer the gateway exposes.
type QuizService interface {
	GenerateQuestions(ctx context.Context, p quiz.QuestionParams) ([]json.RawMessage, error)
	Chat(ctx context.Context, p quiz.ChatParams) (*relay.Reply, error)
	ReviewPerformance(ctx context.Context, p quiz.PerformanceParams) (*relay.Reply, error)
}

// Server is the BrainQuest HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	quiz     QuizService
	memory   memory.Store
	hooks    *hooks.Manager
	stats    *Stats
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	version  string
	eventSeq atomic.Int64

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks shares a hook manager with the rest of the process so the
// gateway's stats see relay events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// New creates a new gateway server.
func New(cfg config.Config, svc QuizService, mem memory.Store, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.Sub("gateway"),
		quiz:     svc,
		memory:   mem,
		stats:    &Stats{},
		clients:  NewClientRegistry(log.Sub("clients")),
		handlers: make(map[string]RequestHandler),
		version:  version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.hooks == nil {
		s.hooks = hooks.NewManager(log)
	}
	s.stats.attach(s.hooks)

	s.registerRPCHandlers()
	return s
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin headers.
// Requests without an Origin (non-browser clients) are always allowed.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return isOriginAllowed(origin, allowed)
	}
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the registered RPC method names, sorted.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}

// Stats returns the server's traffic counters.
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot(s.clients.Count(), s.startedAt)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Model calls can outlast the default write window.
	writeTimeout := s.cfg.RequestTimeout() + 10*time.Second

	// Requests outlive ctx so Shutdown can drain them.
	base, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	s.httpServer = &http.Server{
		Addr:         ln.Addr().String(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     s.log.Std(),
		BaseContext:  func(net.Listener) context.Context { return base },
	}
	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Strs("origins", s.cfg.Gateway.AllowedOrigins).
		Int("methods", len(s.handlers)).
		Strs("hooks", s.hooks.Events()).
		Msg("gateway server ready")

	s.hooks.Emit(ctx, hooks.EventGatewayStart, map[string]any{
		"addr": ln.Addr().String(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down gateway server")
	s.hooks.Emit(context.Background(), hooks.EventGatewayStop, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n := s.clients.Broadcast("shutdown", map[string]any{"reason": "server stopping"}, s.eventSeq.Add(1))
	s.log.Debug().Int("notified", n).Msg("clients told of shutdown")
	s.clients.CloseAll()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("graceful shutdown incomplete")
	}
	s.hooks.Wait()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// handleWebSocket upgrades HTTP to WebSocket and runs the connection loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	client := NewClient(r.Context(), conn, r.RemoteAddr, r.UserAgent())
	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	hello := Hello{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: s.version,
			Commit:  version.Commit,
			ConnID:  client.ConnID,
		},
		Methods: s.Methods(),
	}
	if err := client.SendEvent("hello", hello, s.eventSeq.Add(1)); err != nil {
		s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("failed to send hello")
		return
	}

	s.readLoop(client)
}

// readLoop processes incoming frames from a connected client. Each
// request runs on its own goroutine; responses carry the request ID.
// When the connection ends, in-flight requests see their context
// canceled and readLoop waits for them.
func (s *Server) readLoop(client *Client) {
	var inflight sync.WaitGroup
	defer inflight.Wait()
	defer client.Close()

	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				client.RespondError("", ErrorShape{Code: CodeInvalidParams, Message: err.Error()})
				continue
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}

		inflight.Go(func() { s.dispatch(client, frame) })
	}
}

// dispatch routes a request frame to the appropriate handler.
func (s *Server) dispatch(client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{
			Code:    CodeMethodNotFound,
			Message: "unknown method: " + frame.Method,
		})
		return
	}

	handler(&RequestContext{
		Client: client,
		Frame:  frame,
		Server: s,
	})
}
