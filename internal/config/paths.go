package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const defaultBaseDir = ".brainquest"

// Paths are the on-disk locations the relay reads and writes.
type Paths struct {
	Base   string // ~/.brainquest
	Config string // ~/.brainquest/config.yaml
	Data   string // ~/.brainquest/data, home of the sqlite session store
}

// ResolvePaths derives Paths from BRAINQUEST_HOME, or from the user's home
// directory when it is unset.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("BRAINQUEST_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}
	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
	}, nil
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ParseConfigPath splits a dotted key such as "gateway.port" into its
// segments. Each segment must look like a YAML key the config uses.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
		if !segmentPattern.MatchString(p) {
			return nil, &ConfigError{Message: "invalid config path segment: " + p}
		}
	}
	return parts, nil
}

// parent walks root down to the map holding the last segment of path.
// With create set, missing or non-map intermediates are replaced by
// empty maps.
func parent(root map[string]any, path []string, create bool) (map[string]any, bool) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			if !create {
				return nil, false
			}
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
	return current, true
}

// GetValueAtPath returns the value stored under path.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	m, ok := parent(root, path, false)
	if !ok {
		return nil, false
	}
	v, ok := m[path[len(path)-1]]
	return v, ok
}

// SetValueAtPath stores value under path, creating intermediate maps.
func SetValueAtPath(root map[string]any, path []string, value any) {
	m, _ := parent(root, path, true)
	m[path[len(path)-1]] = value
}

// UnsetValueAtPath deletes the value under path and reports whether it
// was there.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	m, ok := parent(root, path, false)
	if !ok {
		return false
	}
	last := path[len(path)-1]
	if _, ok := m[last]; !ok {
		return false
	}
	delete(m, last)
	return true
}
