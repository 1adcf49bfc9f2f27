// Package quiz adapts the three BrainQuest operations (question generation,
// chat, performance review) onto the relay.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/soyeahso/brainquest/internal/domain"
	"github.com/soyeahso/brainquest/internal/logging"
	"github.com/soyeahso/brainquest/internal/prompts"
	"github.com/soyeahso/brainquest/internal/relay"
)

// Defaults applied to empty parameters.
const (
	DefaultTopic            = "Java"
	DefaultCount            = "5"
	DefaultDifficulty       = "medium"
	DefaultReviewTopic      = "Unknown"
	DefaultCorrect          = "0"
	DefaultTotal            = "5"
	DefaultTimePerQuestion  = "30"
	questionPromptFormat    = "Generate exactly %s MCQ questions on the topic: '%s'. Difficulty level: %s."
	performancePromptFormat = "Quiz Performance Report:\n" +
		"- Topic: %s\n" +
		"- Total Questions: %s\n" +
		"- Correct Answers: %s\n" +
		"- Difficulty Level: %s\n" +
		"- Time Per Question: %s seconds\n\n" +
		"Please give a detailed performance review and study recommendations."
)

// ErrEmptyPrompt is returned by Chat when there is nothing to send.
var ErrEmptyPrompt = errors.New("prompt is required")

// ParseError reports a question reply that is not a JSON array of questions.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse questions: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Relayer sends one message through the model relay.
type Relayer interface {
	Send(ctx context.Context, req relay.Request) (*relay.Reply, error)
}

// QuestionParams describes a question-generation request. Numeric fields
// are kept as text and embedded in the prompt as given.
type QuestionParams struct {
	SessionID  string
	Topic      string
	Count      string
	Difficulty string
}

// ChatParams describes a free-form chat request.
type ChatParams struct {
	SessionID string
	Prompt    string
	Type      string
}

// PerformanceParams describes a finished quiz to review.
type PerformanceParams struct {
	SessionID       string
	Topic           string
	Correct         string
	Total           string
	Difficulty      string
	TimePerQuestion string
}

// Service implements the three request operations.
type Service struct {
	relay Relayer
	log   *logging.Logger
}

// NewService creates a quiz service on top of r.
func NewService(r Relayer, log *logging.Logger) *Service {
	return &Service{relay: r, log: log.Sub("quiz")}
}

// GenerateQuestions asks the model for a question set. Each element of the
// returned array is the model's JSON as written; only the array shape is
// enforced.
func (s *Service) GenerateQuestions(ctx context.Context, p QuestionParams) ([]json.RawMessage, error) {
	prompt := fmt.Sprintf(questionPromptFormat,
		orDefault(p.Count, DefaultCount),
		orDefault(p.Topic, DefaultTopic),
		orDefault(p.Difficulty, DefaultDifficulty))

	reply, err := s.relay.Send(ctx, relay.Request{
		SessionID: p.SessionID,
		Message:   prompt,
		Type:      string(prompts.TypeMCQ),
	})
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuestions(reply.Text)
	if err != nil {
		s.log.Warn().Err(err).Str("session", reply.SessionID).Msg("question reply did not decode")
		return nil, err
	}
	for i, raw := range questions {
		if !wellFormed(raw) {
			s.log.Debug().Int("index", i).Str("session", reply.SessionID).Msg("question does not match the expected shape")
		}
	}
	return questions, nil
}

// Chat relays a free-form prompt and returns the model's reply.
func (s *Service) Chat(ctx context.Context, p ChatParams) (*relay.Reply, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	return s.relay.Send(ctx, relay.Request{
		SessionID: p.SessionID,
		Message:   p.Prompt,
		Type:      orDefault(p.Type, string(prompts.TypeGeneral)),
	})
}

// ReviewPerformance relays a performance report and returns the feedback.
func (s *Service) ReviewPerformance(ctx context.Context, p PerformanceParams) (*relay.Reply, error) {
	return s.relay.Send(ctx, relay.Request{
		SessionID: p.SessionID,
		Message:   PerformanceReport(p),
		Type:      string(prompts.TypePerformance),
	})
}

// PerformanceReport renders p into the report sent to the model.
func PerformanceReport(p PerformanceParams) string {
	return fmt.Sprintf(performancePromptFormat,
		orDefault(p.Topic, DefaultReviewTopic),
		orDefault(p.Total, DefaultTotal),
		orDefault(p.Correct, DefaultCorrect),
		orDefault(p.Difficulty, DefaultDifficulty),
		orDefault(p.TimePerQuestion, DefaultTimePerQuestion))
}

var (
	jsonFence  = regexp.MustCompile("(?s)```json\\s*")
	plainFence = regexp.MustCompile("(?s)```\\s*")
)

// StripCodeFences removes markdown code-fence markers around model output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFence.ReplaceAllString(s, "")
	s = plainFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseQuestions splits a (possibly fenced) JSON array into its elements.
// The elements themselves are not interpreted.
func ParseQuestions(text string) ([]json.RawMessage, error) {
	cleaned := StripCodeFences(text)
	var questions []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, &ParseError{Raw: cleaned, Err: err}
	}
	if questions == nil {
		return nil, &ParseError{Raw: cleaned, Err: errors.New("reply is not a question array")}
	}
	return questions, nil
}

// wellFormed reports whether raw decodes as a complete domain.Question.
func wellFormed(raw json.RawMessage) bool {
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return false
	}
	return q.Complete()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
