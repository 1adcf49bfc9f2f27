package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"negative port", func(c *Config) { c.Gateway.Port = -1 }, "gateway.port"},
		{"port too large", func(c *Config) { c.Gateway.Port = 70000 }, "gateway.port"},
		{"unknown bind", func(c *Config) { c.Gateway.Bind = "tailnet" }, "gateway.bind"},
		{"custom bind without host", func(c *Config) { c.Gateway.Bind = "custom" }, "gateway.customBindHost"},
		{"negative request timeout", func(c *Config) { c.Gateway.RequestTimeoutSeconds = -5 }, "gateway.requestTimeoutSeconds"},
		{"relative endpoint", func(c *Config) { c.Model.Endpoint = "/v1/chat" }, "model.endpoint"},
		{"negative model timeout", func(c *Config) { c.Model.TimeoutSeconds = -1 }, "model.timeoutSeconds"},
		{"search key without cx", func(c *Config) { c.Search.APIKey = "k" }, "search"},
		{"search cx without key", func(c *Config) { c.Search.CX = "cx" }, "search"},
		{"negative tool timeout", func(c *Config) { c.Tools.TimeoutSeconds = -1 }, "tools.timeoutSeconds"},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }, "session.store"},
		{"zero window", func(c *Config) { c.Session.Window = 0 }, "session.window"},
		{"negative window", func(c *Config) { c.Session.Window = -3 }, "session.window"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"unknown log style", func(c *Config) { c.Logging.Style = "compact" }, "logging.style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			require.Len(t, issues, 1)
			assert.Equal(t, tt.path, issues[0].Path)
		})
	}
}

func TestValidate_ValidVariants(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = 0
	cfg.Gateway.Bind = "custom"
	cfg.Gateway.CustomBindHost = "10.0.0.5"
	cfg.Search.APIKey = "k"
	cfg.Search.CX = "cx"
	cfg.Session.Store = "sqlite"
	cfg.Session.Window = 1
	cfg.Logging.Level = "silent"
	cfg.Logging.Style = "json"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_MultipleIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = -1
	cfg.Session.Window = 0
	cfg.Logging.Level = "loud"
	issues := Validate(&cfg)
	assert.Len(t, issues, 3)
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "session.window", Message: "must be positive, got 0"}
	assert.Equal(t, "session.window: must be positive, got 0", issue.String())
}
