// Package tools implements the capabilities the model may call mid-conversation.
package tools

import (
	"context"
	"encoding/json"
	"strings"
)

// Tool is a capability the model can invoke.
type Tool interface {
	// Name returns the identifier the model uses to call the tool.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters returns the JSON Schema of the tool's arguments.
	Parameters() map[string]any

	// Execute runs the tool. A non-empty output is forwarded to the model
	// even when err is set; err is only for logging.
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// queryArgs is the single-string argument shape shared by the search tools.
type queryArgs struct {
	Query string `json:"query"`
}

func (a queryArgs) validate() error {
	if strings.TrimSpace(a.Query) == "" {
		return errEmptyQuery
	}
	return nil
}

// noArgs is the argument shape of tools without parameters.
type noArgs struct{}
