// Package match filters logical paths with doublestar glob patterns.
package match

import (
	"errors"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher evaluates include and exclude patterns against logical paths.
//
// A path matches when it matches at least one include (or there are no
// includes) and no exclude. Hidden paths, with a segment starting with '.',
// are rejected unless IncludeHidden is set.
//
// The Matcher is safe for concurrent use after creation.
type Matcher struct {
	includes      []string
	excludes      []string
	includeHidden bool
}

// Config configures a Matcher.
type Config struct {
	Includes      []string
	Excludes      []string
	IncludeHidden bool
}

// ErrInvalidPattern is returned when a pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// PatternError wraps pattern-related errors with context.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// New validates the patterns and returns a Matcher.
func New(cfg Config) (*Matcher, error) {
	includes, err := compile(cfg.Includes)
	if err != nil {
		return nil, err
	}
	excludes, err := compile(cfg.Excludes)
	if err != nil {
		return nil, err
	}
	return &Matcher{includes: includes, excludes: excludes, includeHidden: cfg.IncludeHidden}, nil
}

func compile(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimLeft(p, "/")
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p, Err: ErrInvalidPattern}
		}
		out = append(out, p)
	}
	return out, nil
}

// Match reports whether path passes the matcher.
func (m *Matcher) Match(path string) bool {
	if !m.includeHidden && IsHidden(path) {
		return false
	}
	if len(m.includes) > 0 && !anyMatch(m.includes, path) {
		return false
	}
	return !anyMatch(m.excludes, path)
}

// Empty reports whether the matcher accepts every non-hidden path.
func (m *Matcher) Empty() bool {
	return len(m.includes) == 0 && len(m.excludes) == 0
}

func anyMatch(patterns []string, path string) bool {
	for _, p := range patterns {
		// Patterns are validated in New, so Match cannot fail here.
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// IsHidden reports whether any segment of path starts with '.'.
func IsHidden(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
