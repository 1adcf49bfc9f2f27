package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort           = 8080
	DefaultModel          = "openai/gpt-3.5-turbo"
	DefaultModelEndpoint  = "https://openrouter.ai/api/v1/chat/completions"
	DefaultWindow         = 20
	DefaultSessionStore   = "memory"
	DefaultSQLitePath     = ":memory:"
	defaultModelTimeout   = 120
	defaultToolTimeout    = 15
	defaultRequestTimeout = 300
)

// DefaultAllowedOrigins are the browser origins the quiz frontend is served from.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://smartprep-ai.up.railway.app",
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port:                  DefaultPort,
			Bind:                  "loopback",
			AllowedOrigins:        append([]string(nil), DefaultAllowedOrigins...),
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Model: ModelConfig{
			Endpoint:       DefaultModelEndpoint,
			Model:          DefaultModel,
			TimeoutSeconds: defaultModelTimeout,
		},
		Tools: ToolsConfig{
			TimeoutSeconds: defaultToolTimeout,
		},
		Session: SessionConfig{
			Store:  DefaultSessionStore,
			Path:   DefaultSQLitePath,
			Window: DefaultWindow,
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
	}
}

// ModelTimeout is the HTTP timeout for one chat-completions call.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Model.TimeoutSeconds) * time.Second
}

// ToolTimeout bounds a single tool execution.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Tools.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds the handling of one inbound request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Gateway.RequestTimeoutSeconds) * time.Second
}
