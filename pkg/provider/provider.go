// Package provider defines the object storage backend contract used by the
// filesystem adapter.
//
// A provider is bound to a single bucket at construction and exposes the flat
// key/value operations of the store: objects are addressed by key, and
// directories only exist as key prefixes (or as zero-byte keys ending in "/").
// Authentication uses SDK default credential chains unless explicit
// credentials are configured.
package provider

import (
	"context"
	"io"
	"time"
)

// Provider abstracts a flat object store.
//
// Implementations should:
//   - Support delimiter listing with continuation markers
//   - Report backend failures as *ProviderError
//   - Be safe for concurrent use
type Provider interface {
	// PutObject creates or overwrites the object at key with body.
	// Options carries request headers (see the Option* constants).
	PutObject(ctx context.Context, key string, body io.Reader, opts Options) error

	// UploadFile uploads the local file at localPath to key.
	UploadFile(ctx context.Context, key, localPath string, opts Options) error

	// GetObject returns the object body. The caller must close it.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// ObjectExists reports whether key exists. A missing key is not an error.
	ObjectExists(ctx context.Context, key string) (bool, error)

	// DeleteObject removes a single key.
	DeleteObject(ctx context.Context, key string) error

	// DeleteObjects removes a batch of keys.
	DeleteObjects(ctx context.Context, keys []string) error

	// CopyObject copies srcKey to dstKey within the bound bucket.
	CopyObject(ctx context.Context, srcKey, dstKey string) error

	// ListObjects returns one page of a delimiter listing.
	// Use NextMarker from ListResult for subsequent pages.
	ListObjects(ctx context.Context, opts ListOptions) (*ListResult, error)

	// HeadObject returns the raw metadata fields of an object, keyed by
	// lower-case header name (content-length, content-type, last-modified, ...).
	// Returns ErrNotFound if the object does not exist.
	HeadObject(ctx context.Context, key string) (map[string]string, error)

	// GetObjectACL returns the canned ACL of an object (e.g. "public-read").
	GetObjectACL(ctx context.Context, key string) (string, error)

	// PutObjectACL applies a canned ACL to an object.
	PutObjectACL(ctx context.Context, key, acl string) error

	// Close releases any resources held by the provider.
	Close() error
}

// ListOptions configures a ListObjects call.
type ListOptions struct {
	// Prefix filters results to keys starting with this value.
	// Empty string lists the whole bucket.
	Prefix string

	// Delimiter groups keys sharing a path segment into CommonPrefixes
	// (e.g., "/"). Empty disables grouping.
	Delimiter string

	// MaxKeys limits the number of keys returned per page.
	// Zero uses provider default (typically 1000).
	MaxKeys int

	// Marker resumes listing from a previous ListResult.
	// Empty string starts from the beginning.
	Marker string
}

// ListResult contains one page of a delimiter listing.
type ListResult struct {
	// Objects are the object summaries directly under the requested prefix.
	Objects []ObjectSummary

	// CommonPrefixes are the immediate child prefixes (pseudo-directories),
	// each ending with the delimiter.
	CommonPrefixes []string

	// NextMarker is used to retrieve the next page.
	// Empty string indicates no more pages.
	NextMarker string
}

// ObjectSummary contains the metadata returned for each listed object.
type ObjectSummary struct {
	// Key is the full object key in the bucket.
	Key string

	// Size is the object size in bytes.
	Size int64

	// ETag is the entity tag, typically an MD5 hash of the object.
	ETag string

	// LastModified is when the object was last modified.
	LastModified time.Time

	// StorageClass is the backend storage tier (e.g. "STANDARD").
	StorageClass string
}

// ProviderType identifies a storage backend.
type ProviderType string

const (
	// ProviderS3 represents AWS S3 or S3-compatible storage.
	ProviderS3 ProviderType = "s3"

	// ProviderMemory represents the in-process memory backend.
	ProviderMemory ProviderType = "memory"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}
