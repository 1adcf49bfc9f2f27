package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/soyeahso/brainquest/internal/domain"
	"github.com/soyeahso/brainquest/internal/hooks"
	"github.com/soyeahso/brainquest/internal/quiz"
)

// maxBodyBytes caps inbound JSON bodies.
const maxBodyBytes = 1 << 20

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Clients int    `json:"clients,omitempty"`
}

// flexString accepts a JSON string or number and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

type mcqRequest struct {
	SessionID  flexString `json:"sessionId"`
	Topic      flexString `json:"topic"`
	Count      flexString `json:"count"`
	Difficulty flexString `json:"difficulty"`
}

func (r mcqRequest) params() quiz.QuestionParams {
	return quiz.QuestionParams{
		SessionID:  string(r.SessionID),
		Topic:      string(r.Topic),
		Count:      string(r.Count),
		Difficulty: string(r.Difficulty),
	}
}

type chatRequest struct {
	SessionID        flexString `json:"sessionId"`
	Prompt           flexString `json:"prompt"`
	SystemPromptType flexString `json:"systemPromptType"`
}

func (r chatRequest) params() quiz.ChatParams {
	return quiz.ChatParams{
		SessionID: string(r.SessionID),
		Prompt:    string(r.Prompt),
		Type:      string(r.SystemPromptType),
	}
}

type performanceRequest struct {
	SessionID       flexString `json:"sessionId"`
	Topic           flexString `json:"topic"`
	Correct         flexString `json:"correct"`
	Total           flexString `json:"total"`
	Difficulty      flexString `json:"difficulty"`
	TimePerQuestion flexString `json:"timePerQuestion"`
}

func (r performanceRequest) params() quiz.PerformanceParams {
	return quiz.PerformanceParams{
		SessionID:       string(r.SessionID),
		Topic:           string(r.Topic),
		Correct:         string(r.Correct),
		Total:           string(r.Total),
		Difficulty:      string(r.Difficulty),
		TimePerQuestion: string(r.TimePerQuestion),
	}
}

// SessionView is the read-only view of one session's memory.
type SessionView struct {
	SessionID string        `json:"sessionId"`
	Turns     []domain.Turn `json:"turns"`
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleMCQ(w http.ResponseWriter, r *http.Request) {
	var req mcqRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.emit(r.Context(), "/api/mcq", "http")

	questions, err := s.quiz.GenerateQuestions(r.Context(), req.params())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.emit(r.Context(), "/api/chat", "http")

	reply, err := s.quiz.Chat(r.Context(), req.params())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply.Text})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.emit(r.Context(), "/api/performance", "http")

	reply, err := s.quiz.ReviewPerformance(r.Context(), req.params())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"feedback": reply.Text})
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	list, err := s.sessionList(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessionView(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// decodeBody reads a JSON object into dst. An empty body leaves dst zero.
// On failure it writes a 400 and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejecting malformed body")
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
	return false
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, quiz.ErrEmptyPrompt) {
		status = http.StatusBadRequest
	}
	s.log.Warn().
		Err(err).
		Str("path", r.URL.Path).
		Str("requestId", RequestIDFromContext(r.Context())).
		Msg("request failed")
	writeError(w, status, err.Error())
}

// emit announces an inbound request. Listeners run off the request path;
// Serve drains them on shutdown.
func (s *Server) emit(ctx context.Context, route, transport string) {
	s.hooks.EmitAsync(context.WithoutCancel(ctx), hooks.EventRequestReceived, map[string]any{
		"route":     route,
		"transport": transport,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
