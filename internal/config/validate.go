package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Gateway
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.customBindHost",
			Message: "required when bind is custom",
		})
	}
	if cfg.Gateway.RequestTimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.requestTimeoutSeconds",
			Message: "must not be negative",
		})
	}

	// Model
	if cfg.Model.Endpoint != "" {
		if u, err := url.Parse(cfg.Model.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "model.endpoint",
				Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Model.Endpoint),
			})
		}
	}
	if cfg.Model.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "model.timeoutSeconds",
			Message: "must not be negative",
		})
	}

	// Search credentials come in pairs.
	if (cfg.Search.APIKey == "") != (cfg.Search.CX == "") {
		issues = append(issues, ValidationIssue{
			Path:    "search",
			Message: "apiKey and cx must be set together",
		})
	}

	if cfg.Tools.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "tools.timeoutSeconds",
			Message: "must not be negative",
		})
	}

	// Session
	validStores := []string{"memory", "sqlite"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}
	if cfg.Session.Window <= 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.window",
			Message: fmt.Sprintf("must be positive, got %d", cfg.Session.Window),
		})
	}

	// Logging
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}
	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	return issues
}
