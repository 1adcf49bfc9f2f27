package llm

import "fmt"

// ProviderError is returned when the provider answers with an error status
// or an error body.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// DecodeError is returned when a response body is not the expected shape.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode response: %s: %v", e.Reason, e.Err)
	}
	return "decode response: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }
