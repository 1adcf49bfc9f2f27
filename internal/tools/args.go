package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

var errEmptyQuery = errors.New("query must not be empty")

// ArgumentError reports arguments that do not match a tool's schema.
type ArgumentError struct {
	Tool   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("Invalid arguments for %s: %s", e.Tool, e.Reason)
}

// validatable argument structs get a second check after schema validation.
type validatable interface {
	validate() error
}

// argSchema is a generated parameter schema plus its compiled validator.
type argSchema[T any] struct {
	params   map[string]any
	resolved *jsonschema.Resolved
}

// newArgSchema reflects T into a JSON Schema. Field descriptions come from
// the `jsonschema` struct tag; fields without omitempty are required.
func newArgSchema[T any](descriptions map[string]string) (*argSchema[T], error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("reflecting schema: %w", err)
	}
	// Models sometimes add stray fields; tolerate them.
	schema.AdditionalProperties = nil
	for name, desc := range descriptions {
		if prop, ok := schema.Properties[name]; ok {
			prop.Description = desc
		}
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving schema: %w", err)
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	if _, ok := params["properties"]; !ok {
		params["properties"] = map[string]any{}
	}
	return &argSchema[T]{params: params, resolved: resolved}, nil
}

func mustArgSchema[T any](descriptions map[string]string) *argSchema[T] {
	s, err := newArgSchema[T](descriptions)
	if err != nil {
		panic(err)
	}
	return s
}

// Parameters returns a fresh copy of the schema map.
func (s *argSchema[T]) Parameters() map[string]any {
	data, _ := json.Marshal(s.params)
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return out
}

// parse validates raw against the schema and decodes it into T.
// Empty input is treated as an empty object.
func (s *argSchema[T]) parse(tool string, raw json.RawMessage) (T, error) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, &ArgumentError{Tool: tool, Reason: "malformed JSON: " + err.Error()}
	}
	if err := s.resolved.Validate(v); err != nil {
		return zero, &ArgumentError{Tool: tool, Reason: err.Error()}
	}

	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return zero, &ArgumentError{Tool: tool, Reason: err.Error()}
	}
	if vv, ok := any(args).(validatable); ok {
		if err := vv.validate(); err != nil {
			return zero, &ArgumentError{Tool: tool, Reason: err.Error()}
		}
	}
	return args, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// oneLine replaces newlines with spaces.
func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
