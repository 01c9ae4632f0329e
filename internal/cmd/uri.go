package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/3leaps/bucketfs/pkg/match"
)

// URI parsing errors
var (
	// ErrInvalidURI indicates the argument could not be parsed.
	ErrInvalidURI = errors.New("invalid URI")

	// ErrUnsupportedProvider indicates the URI scheme is not supported.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingBucket indicates an s3:// URI without a bucket name.
	ErrMissingBucket = errors.New("missing bucket name")
)

// Target is a parsed path argument.
//
// Example arguments:
//   - docs/readme.md
//   - /docs/
//   - s3://bucket/docs/readme.md
//   - s3://bucket/docs/**/*.md
type Target struct {
	// Bucket is set when the argument was an s3:// URI. Empty means the
	// configured bucket.
	Bucket string

	// Path is the logical path, without leading or trailing separators.
	// For glob arguments it is the static directory before the first
	// metacharacter.
	Path string

	// Pattern is the full glob when the argument contains one.
	Pattern string
}

// IsPattern reports whether the argument contained glob characters.
func (t *Target) IsPattern() bool {
	return t.Pattern != ""
}

// String returns the argument in canonical form.
func (t *Target) String() string {
	p := t.Path
	if t.Pattern != "" {
		p = t.Pattern
	}
	if t.Bucket != "" {
		return fmt.Sprintf("s3://%s/%s", t.Bucket, p)
	}
	return p
}

// ParseTarget parses a bare path or an s3://bucket/path URI.
func ParseTarget(arg string) (*Target, error) {
	var bucket, key string

	// Parsed by hand: url.Parse treats '?' as a query delimiter.
	if i := strings.Index(arg, "://"); i >= 0 {
		scheme := strings.ToLower(arg[:i])
		if scheme != "s3" {
			return nil, fmt.Errorf("%w: %s (supported: s3)", ErrUnsupportedProvider, scheme)
		}
		rest := arg[i+3:]
		bucket, key, _ = strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, arg)
		}
		if strings.ContainsAny(bucket, " \\?*[]{}") {
			return nil, fmt.Errorf("%w: invalid bucket name %q", ErrInvalidURI, bucket)
		}
	} else {
		key = arg
	}

	key = strings.TrimLeft(key, "/")
	t := &Target{Bucket: bucket, Path: strings.Trim(match.DerivePrefix(key), "/")}
	if match.IsGlobPattern(key) {
		t.Pattern = key
	}
	return t, nil
}

// parsePath parses arg and rejects glob patterns.
func parsePath(arg string) (*Target, error) {
	t, err := ParseTarget(arg)
	if err != nil {
		return nil, err
	}
	if t.IsPattern() {
		return nil, fmt.Errorf("%w: glob patterns are only supported by ls", ErrInvalidURI)
	}
	return t, nil
}

// sameBucket returns the common bucket of two targets, resolving an empty
// bucket to def.
func sameBucket(a, b *Target, def string) (string, error) {
	ab, bb := a.Bucket, b.Bucket
	if ab == "" {
		ab = def
	}
	if bb == "" {
		bb = def
	}
	if ab != bb {
		return "", fmt.Errorf("%w: source and destination must be in the same bucket (%s, %s)", ErrInvalidURI, ab, bb)
	}
	return ab, nil
}
