package sandbox

import "strings"

// CommandPolicy gates the free-form command tool with a set of literal
// prefixes. This is a prefix match, not a grammar: everything after the
// matched prefix is unconstrained, so the policy is operator convenience
// rather than a shell-safety guarantee.
type CommandPolicy struct {
	prefixes []string
}

// NewCommandPolicy creates a CommandPolicy from configured prefixes
func NewCommandPolicy(prefixes []string) *CommandPolicy {
	return &CommandPolicy{prefixes: prefixes}
}

// Allowed reports whether command starts with one of the exact prefixes
func (p *CommandPolicy) Allowed(command string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(command, prefix) {
			return true
		}
	}
	return false
}

// Prefixes returns the configured prefix list, for error messages
func (p *CommandPolicy) Prefixes() []string {
	return p.prefixes
}

// mutationKeywords are the graph-query keywords that mark a write.
var mutationKeywords = []string{"CREATE", "MERGE", "DELETE", "SET", "REMOVE", "DROP"}

// QueryMutationKeyword scans query (case-insensitively) for mutating
// keywords and returns the first one found. This is a substring heuristic,
// not a parser: a keyword inside a string literal false-positives, and an
// obfuscated mutation can slip through. Read-only enforcement belongs to
// the database credential; this guard only catches the honest mistakes.
func QueryMutationKeyword(query string) (string, bool) {
	upper := strings.ToUpper(query)
	for _, kw := range mutationKeywords {
		if strings.Contains(upper, kw) {
			return kw, true
		}
	}
	return "", false
}
