package gateway

import "net/http"

// apiKeyHeader and apiKeyParam are the two places a caller may supply a
// credential; the header wins when both are present.
const (
	apiKeyHeader = "X-API-Key"
	apiKeyParam  = "key"
)

// Gate checks caller credentials against the fixed key set loaded at
// startup. Possession of a listed key is binary authorization; there is
// no per-caller capability scoping.
type Gate struct {
	keys map[string]struct{}
}

// NewGate creates a Gate from the configured key list
func NewGate(keys []string) *Gate {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return &Gate{keys: set}
}

// Credential extracts the caller-supplied credential from the request,
// reporting false when none was supplied.
func (g *Gate) Credential(r *http.Request) (string, bool) {
	if key := r.Header.Get(apiKeyHeader); key != "" {
		return key, true
	}
	if key := r.URL.Query().Get(apiKeyParam); key != "" {
		return key, true
	}
	return "", false
}

// Authorized reports whether the request carries a valid credential
func (g *Gate) Authorized(r *http.Request) bool {
	key, ok := g.Credential(r)
	if !ok {
		return false
	}
	_, valid := g.keys[key]
	return valid
}
