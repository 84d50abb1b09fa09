package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

// DeniedError reports a path rejected by the sandbox policy.
type DeniedError struct {
	Path   string
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s %s", e.Path, e.Reason)
}

// PathPolicy validates filesystem paths against an allowlist of directory
// prefixes and a blocklist of sensitive-file patterns. Both checks run on
// the canonical (absolute, symlink-free) form of the path, so an allowed
// prefix cannot be reached through a symlink pointing elsewhere and a
// blocked file cannot be reached through an alias.
type PathPolicy struct {
	allowed []string
	blocked []*regexp.Regexp
}

// NewPathPolicy compiles a policy from configured prefixes and patterns.
// Patterns are matched case-insensitively.
func NewPathPolicy(allowedPrefixes, blockedPatterns []string) (*PathPolicy, error) {
	allowed := make([]string, 0, len(allowedPrefixes))
	for _, prefix := range allowedPrefixes {
		// Canonicalize the prefix itself so comparisons are
		// symlink-free on both sides
		if real, err := canonical(prefix); err == nil {
			prefix = real
		}
		allowed = append(allowed, filepath.Clean(prefix))
	}

	blocked := make([]*regexp.Regexp, 0, len(blockedPatterns))
	for _, pattern := range blockedPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked pattern %q: %w", pattern, err)
		}
		blocked = append(blocked, re)
	}

	return &PathPolicy{allowed: allowed, blocked: blocked}, nil
}

// Resolve canonicalizes path and returns the canonical form if the policy
// accepts it. Any resolution failure is an implicit reject (fail closed).
// The allowlist check runs first, then the blocklist; both always apply.
func (p *PathPolicy) Resolve(path string) (string, error) {
	real, err := canonical(path)
	if err != nil {
		return "", &DeniedError{Path: path, Reason: "cannot be resolved"}
	}

	if !p.prefixAllowed(real) {
		return "", &DeniedError{Path: path, Reason: "is outside allowed directories"}
	}

	for _, re := range p.blocked {
		if re.MatchString(real) {
			return "", &DeniedError{Path: path, Reason: "matches blocked pattern"}
		}
	}

	return real, nil
}

// Allowed reports whether the policy accepts path.
func (p *PathPolicy) Allowed(path string) bool {
	_, err := p.Resolve(path)
	return err == nil
}

func (p *PathPolicy) prefixAllowed(real string) bool {
	for _, prefix := range p.allowed {
		if real == prefix {
			return true
		}
		if strings.HasPrefix(real, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// canonical resolves path to its absolute, symlink-free form. For paths
// that do not exist yet, the nearest existing ancestor is resolved and the
// remaining components are re-joined, so a not-yet-created file under an
// allowed directory still canonicalizes.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	remainder := ""
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			if remainder == "" {
				return resolved, nil
			}
			return filepath.Join(resolved, remainder), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		remainder = filepath.Join(filepath.Base(cur), remainder)
		cur = parent
	}
}
