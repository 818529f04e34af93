package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// EnvLoader loads configuration from environment variables. Only mapped
// variables are read.
type EnvLoader struct {
	mapping map[string]string // env var -> config path
	lists   map[string]bool   // config paths holding string lists
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates a loader with the given env var to config path
// mapping.
func NewEnvLoader(mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		mapping: mapping,
		lists:   make(map[string]bool),
		lookup:  os.LookupEnv,
	}
}

// WithLookup replaces os.LookupEnv, for tests.
func (l *EnvLoader) WithLookup(lookup func(string) (string, bool)) *EnvLoader {
	l.lookup = lookup
	return l
}

// ListPath declares that a config path holds a list. Such values may be
// given as a JSON array or as a comma-separated string.
func (l *EnvLoader) ListPath(path string) *EnvLoader {
	l.lists[path] = true
	return l
}

// AddMapping adds an environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// Load reads the mapped variables. Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for env, path := range l.mapping {
		val, ok := l.lookup(env)
		if !ok {
			continue
		}
		if l.lists[path] {
			setByPath(config, path, parseList(val))
			continue
		}
		setByPath(config, path, parseValue(val))
	}
	return config, nil
}

// parseValue converts a string into a bool, integer, float or string.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func parseList(s string) []any {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var v []any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	out := []any{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
