package llm

import (
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// chatResponse is the wire shape of a chat-completions response.
type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type chatChoice struct {
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Role      string     `json:"role"`
		Content   *string    `json:"content"`
		ToolCalls []ToolCall `json:"tool_calls"`
	} `json:"message"`
}

// errorEnvelope is what providers send instead of choices on failure,
// sometimes with a 200 status.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func intPtr(n int) *int { return &n }

// responseSchema describes the fields the relay depends on.
func responseSchema() *jsonschema.Schema {
	toolCall := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"id", "function"},
		Properties: map[string]*jsonschema.Schema{
			"id": {Type: "string"},
			"function": {
				Type:     "object",
				Required: []string{"name"},
				Properties: map[string]*jsonschema.Schema{
					"name":      {Type: "string", MinLength: intPtr(1)},
					"arguments": {Type: "string"},
				},
			},
		},
	}
	message := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"content":    {Types: []string{"string", "null"}},
			"tool_calls": {Types: []string{"array", "null"}, Items: toolCall},
		},
	}
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"choices"},
		Properties: map[string]*jsonschema.Schema{
			"choices": {
				Type:     "array",
				MinItems: intPtr(1),
				Items: &jsonschema.Schema{
					Type:       "object",
					Required:   []string{"message"},
					Properties: map[string]*jsonschema.Schema{"message": message},
				},
			},
		},
	}
}

var resolvedResponseSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return responseSchema().Resolve(nil)
})

// decodeResponse validates and decodes a 2xx response body.
func decodeResponse(provider string, body []byte) (*CompletionResponse, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Err: err}
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return nil, &ProviderError{Provider: provider, Message: env.Error.Message}
	}

	resolved, err := resolvedResponseSchema()
	if err != nil {
		return nil, &DecodeError{Reason: "response schema", Err: err}
	}
	if err := resolved.Validate(raw); err != nil {
		return nil, &DecodeError{Reason: "unexpected shape", Err: err}
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{Reason: "unexpected field types", Err: err}
	}

	choice := resp.Choices[0]
	out := &CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		ToolCalls:    choice.Message.ToolCalls,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if choice.Message.Content != nil {
		out.Content = *choice.Message.Content
	}
	for i := range out.ToolCalls {
		if out.ToolCalls[i].Type == "" {
			out.ToolCalls[i].Type = "function"
		}
	}
	return out, nil
}
