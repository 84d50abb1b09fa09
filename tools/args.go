package tools

import (
	"encoding/json"
	"fmt"
)

// Args is the loosely-typed argument map of one tool invocation. JSON
// numbers arrive as float64; the accessors normalize that and fill
// declared defaults for absent optional arguments.
type Args map[string]any

// RequireString returns the named string argument or an error
func (a Args) RequireString(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", &ValidationError{Message: fmt.Sprintf("%s parameter is required", key)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Message: fmt.Sprintf("%s must be a string", key)}
	}
	return s, nil
}

// String returns the named string argument or def when absent
func (a Args) String(key, def string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int returns the named integer argument or def when absent
func (a Args) Int(key string, def int) int {
	v, ok := a[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return def
}

// Bool returns the named boolean argument or def when absent
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Map returns the named object argument, or an empty map when absent
func (a Args) Map(key string) map[string]any {
	if v, ok := a[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}
