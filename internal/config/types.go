package config

// Config is the root configuration for BrainQuest.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Model   ModelConfig   `yaml:"model,omitempty"`
	Search  SearchConfig  `yaml:"search,omitempty"`
	YouTube YouTubeConfig `yaml:"youtube,omitempty"`
	Tools   ToolsConfig   `yaml:"tools,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP/WebSocket server.
type GatewayConfig struct {
	Port                  int      `yaml:"port,omitempty"`
	Bind                  string   `yaml:"bind,omitempty"` // "lan" | "loopback" | "custom"
	CustomBindHost        string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins        []string `yaml:"allowedOrigins,omitempty"`
	RequestTimeoutSeconds int      `yaml:"requestTimeoutSeconds,omitempty"`
}

// ModelConfig points at an OpenAI-compatible chat-completions endpoint.
type ModelConfig struct {
	APIKey         string `yaml:"apiKey,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	Model          string `yaml:"model,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// SearchConfig holds Google Programmable Search credentials.
type SearchConfig struct {
	APIKey string `yaml:"apiKey,omitempty"`
	CX     string `yaml:"cx,omitempty"`
}

// YouTubeConfig holds YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey string `yaml:"apiKey,omitempty"`
}

// ToolsConfig bounds tool execution.
type ToolsConfig struct {
	TimeoutSeconds int `yaml:"timeoutSeconds,omitempty"`
}

// SessionConfig defines conversation memory behavior.
type SessionConfig struct {
	Store             string `yaml:"store,omitempty"` // "memory" | "sqlite"
	Path              string `yaml:"path,omitempty"`  // sqlite DSN, ":memory:" by default
	Window            int    `yaml:"window,omitempty"`
	RollbackOnFailure bool   `yaml:"rollbackOnFailure,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}
