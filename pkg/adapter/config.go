package adapter

import (
	"maps"

	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/pkg/provider"
)

// StorageConfig describes the bucket an Adapter serves.
//
// It is copied by New and never modified afterwards.
type StorageConfig struct {
	// Bucket is the bucket name.
	Bucket string

	// Endpoint is the public endpoint host (e.g. "oss-cn-hangzhou.aliyuncs.com").
	Endpoint string

	// EndpointInternal is the in-region endpoint host, if any.
	EndpointInternal string

	// Domain is a custom domain bound (CNAME) to the bucket. Optional.
	Domain string

	// SSL selects https:// for generated URLs.
	SSL bool

	// Prefix is prepended to every path to form object keys. Optional.
	Prefix string

	// Debug surfaces backend errors to callers instead of sentinel values.
	Debug bool
}

// Config is the per-call configuration accepted by write operations.
//
// Keys are either the option aliases (ConfigCacheControl, ConfigACL, ...) or
// the generic ConfigVisibility / ConfigMimetype settings.
type Config map[string]string

// Per-call configuration keys.
const (
	ConfigCacheControl         = "CacheControl"
	ConfigExpires              = "Expires"
	ConfigServerSideEncryption = "ServerSideEncryption"
	ConfigMetadata             = "Metadata"
	ConfigACL                  = "ACL"
	ConfigContentType          = "ContentType"
	ConfigContentDisposition   = "ContentDisposition"
	ConfigContentLanguage      = "ContentLanguage"
	ConfigContentEncoding      = "ContentEncoding"

	ConfigVisibility = "visibility"
	ConfigMimetype   = "mimetype"
)

// Has reports whether key is set.
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Get returns the value for key, or "" when unset.
func (c Config) Get(key string) string {
	return c[key]
}

// With returns a copy of c with key set to value.
func (c Config) With(key, value string) Config {
	out := make(Config, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for failure and listing diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDefaultOptions sets adapter-wide request options. They have the lowest
// merge priority.
func WithDefaultOptions(opts provider.Options) Option {
	return func(a *Adapter) {
		a.defaults = opts.Clone()
	}
}

// WithErrorHandler registers a callback invoked with every operation
// failure, regardless of Debug.
func WithErrorHandler(fn func(*OperationError)) Option {
	return func(a *Adapter) {
		a.onError = fn
	}
}

// WithSkipACLPreservation disables the ACL lookup Update performs before
// overwriting an object whose visibility was not given explicitly.
func WithSkipACLPreservation() Option {
	return func(a *Adapter) {
		a.skipACLPreservation = true
	}
}

// WithMaxKeys sets the listing page size. Zero keeps DefaultMaxKeys.
func WithMaxKeys(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxKeys = n
		}
	}
}
