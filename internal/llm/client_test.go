package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouterClient(OpenRouterConfig{
		Endpoint: srv.URL + "/api/v1/chat/completions",
		APIKey:   "sk-test",
		Model:    "openai/gpt-3.5-turbo",
	}, srv.Client())
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
}

const directReply = `{
  "id": "gen-1",
  "model": "openai/gpt-3.5-turbo",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hello there"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`

const toolReply = `{
  "choices": [{"finish_reason": "tool_calls", "message": {"role": "assistant", "content": null,
    "tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "googleSearch", "arguments": "{\"query\":\"go 1.25\"}"}}]}}]
}`

// --- Request encoding ---

func TestComplete_SendsExpectedRequest(t *testing.T) {
	var got map[string]any
	var auth, contentType, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(directReply)(w, r)
	})

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hi"},
		},
		Tools:      []ToolDefinition{NewFunctionTool("getCurrentDateTime", "now", map[string]any{"type": "object"})},
		ToolChoice: ToolChoiceAuto,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "/api/v1/chat/completions", path)
	assert.Equal(t, "openai/gpt-3.5-turbo", got["model"])
	assert.Equal(t, "auto", got["tool_choice"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])

	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "function", tool["type"])
	assert.Equal(t, "getCurrentDateTime", tool["function"].(map[string]any)["name"])
}

func TestComplete_OmitsToolsWhenAbsent(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(directReply)(w, r)
	})

	_, err := client.Complete(context.Background(), CompletionRequest{
		Model:    "other/model",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "other/model", got["model"])
	assert.NotContains(t, got, "tools")
	assert.NotContains(t, got, "tool_choice")
}

func TestMessageJSON_ToolCallKeepsEmptyContent(t *testing.T) {
	data, err := json.Marshal(Message{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "c1", Type: "function", Function: FunctionCall{Name: "x", Arguments: "{}"}}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content":""`)
	assert.Contains(t, string(data), `"tool_calls":[`)
	assert.NotContains(t, string(data), "tool_call_id")

	data, err = json.Marshal(Message{Role: RoleTool, ToolCallID: "c1", Content: "result"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool_call_id":"c1"`)
}

// --- Response decoding ---

func TestComplete_DirectReply(t *testing.T) {
	client := newTestClient(t, respond(directReply))

	resp, err := client.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.False(t, resp.HasToolCalls())
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "openai/gpt-3.5-turbo", resp.Model)
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestComplete_ToolCalls(t *testing.T) {
	client := newTestClient(t, respond(toolReply))

	resp, err := client.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "news?"}}})
	require.NoError(t, err)
	require.True(t, resp.HasToolCalls())
	assert.Empty(t, resp.Content)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "googleSearch", resp.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"go 1.25"}`, resp.ToolCalls[0].Function.Arguments)
}

func TestComplete_DefaultsToolCallType(t *testing.T) {
	client := newTestClient(t, respond(`{"choices":[{"message":{"content":"","tool_calls":[{"id":"a","function":{"name":"f","arguments":"{}"}}]}}]}`))
	resp, err := client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "function", resp.ToolCalls[0].Type)
}

func TestComplete_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>bad gateway</html>`},
		{"missing choices", `{"id":"x"}`},
		{"empty choices", `{"choices":[]}`},
		{"choice without message", `{"choices":[{"finish_reason":"stop"}]}`},
		{"content wrong type", `{"choices":[{"message":{"content":42}}]}`},
		{"tool call without function", `{"choices":[{"message":{"content":null,"tool_calls":[{"id":"c"}]}}]}`},
		{"tool call empty name", `{"choices":[{"message":{"tool_calls":[{"id":"c","function":{"name":""}}]}}]}`},
		{"top-level array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, respond(tt.body))
			_, err := client.Complete(context.Background(), CompletionRequest{})
			require.Error(t, err)
			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestComplete_ErrorBodyWithOKStatus(t *testing.T) {
	client := newTestClient(t, respond(`{"error":{"message":"model not found","code":404}}`))
	_, err := client.Complete(context.Background(), CompletionRequest{})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "model not found", pe.Message)
}

func TestComplete_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	})

	_, err := client.Complete(context.Background(), CompletionRequest{})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusTooManyRequests, pe.Code)
	assert.Equal(t, "openrouter", pe.Provider)
	assert.Contains(t, pe.Message, "rate limited")
}

func TestComplete_TransportError(t *testing.T) {
	srv := httptest.NewServer(respond(directReply))
	endpoint := srv.URL
	srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{Endpoint: endpoint, Model: "m"}, nil)
	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestComplete_ContextCanceled(t *testing.T) {
	client := newTestClient(t, respond(directReply))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, CompletionRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestComplete_NoAuthHeaderWithoutKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		respond(directReply)(w, r)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{Endpoint: srv.URL}, srv.Client())
	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Empty(t, auth)
}

// --- Errors ---

func TestProviderError(t *testing.T) {
	err := &ProviderError{Provider: "openrouter", Message: "rate limited", Code: 429}
	assert.Equal(t, "openrouter: 429 rate limited", err.Error())

	err2 := &ProviderError{Provider: "openrouter", Message: "unknown error"}
	assert.Equal(t, "openrouter: unknown error", err2.Error())
}

func TestDecodeError(t *testing.T) {
	inner := errors.New("boom")
	err := &DecodeError{Reason: "unexpected shape", Err: inner}
	assert.Equal(t, "decode response: unexpected shape: boom", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "decode response: x", (&DecodeError{Reason: "x"}).Error())
}

// --- Helpers ---

func TestUsageAdd(t *testing.T) {
	u := Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}.Add(Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 22, TotalTokens: 33}, u)
}

func TestHasToolCallsNil(t *testing.T) {
	var r *CompletionResponse
	assert.False(t, r.HasToolCalls())
}

func TestMockClient(t *testing.T) {
	m := &MockClient{ProviderName: "mock"}
	resp, err := m.Complete(context.Background(), CompletionRequest{Model: "a"})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
	assert.Equal(t, "mock", m.Name())
	require.Len(t, m.Requests(), 1)
	assert.Equal(t, "a", m.Requests()[0].Model)
}

func TestScripted(t *testing.T) {
	m := &MockClient{CompleteFunc: Scripted(&CompletionResponse{Content: "one"}, &CompletionResponse{Content: "two"})}
	r1, err := m.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	r2, err := m.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "one", r1.Content)
	assert.Equal(t, "two", r2.Content)

	_, err = m.Complete(context.Background(), CompletionRequest{})
	var pe *ProviderError
	assert.ErrorAs(t, err, &pe)
}
