// Package memory implements the provider contract with an in-process map.
//
// It mirrors S3 listing semantics (lexicographic key order, delimiter roll-up
// into common prefixes, exclusive continuation markers) and is used for local
// experimentation and tests. Nothing is persisted.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/3leaps/bucketfs/pkg/provider"
)

// DefaultMaxKeys is the page size used when ListOptions.MaxKeys is zero.
const DefaultMaxKeys = 1000

type object struct {
	data     []byte
	headers  provider.Options
	acl      string
	modified time.Time
}

// Provider is an in-memory provider.Provider bound to a single bucket name.
type Provider struct {
	bucket string
	now    func() time.Time

	mu      sync.RWMutex
	objects map[string]*object
}

// Ensure Provider implements the interface.
var _ provider.Provider = (*Provider)(nil)

// New creates an empty memory provider.
func New(bucket string) *Provider {
	return &Provider{
		bucket:  bucket,
		now:     time.Now,
		objects: map[string]*object{},
	}
}

// WithClock overrides the clock used for last-modified timestamps.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

func (p *Provider) Close() error { return nil }

func (p *Provider) PutObject(ctx context.Context, key string, body io.Reader, opts provider.Options) error {
	_ = ctx
	var data []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return p.wrapError("PutObject", key, err)
		}
		data = b
	}
	p.store(key, data, opts)
	return nil
}

func (p *Provider) UploadFile(ctx context.Context, key, localPath string, opts provider.Options) error {
	_ = ctx
	data, err := os.ReadFile(localPath)
	if err != nil {
		return p.wrapError("UploadFile", key, err)
	}
	p.store(key, data, opts)
	return nil
}

func (p *Provider) store(key string, data []byte, opts provider.Options) {
	headers := provider.Options{}
	acl := provider.ACLPrivate
	for name, value := range opts {
		switch name {
		case provider.OptionACL:
			acl = value
		case provider.OptionContentLength, provider.OptionCheckMD5:
		default:
			headers[strings.ToLower(name)] = value
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[key] = &object{data: data, headers: headers, acl: acl, modified: p.now().UTC()}
}

func (p *Provider) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	obj, err := p.lookup("GetObject", key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (p *Provider) ObjectExists(ctx context.Context, key string) (bool, error) {
	_ = ctx
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.objects[key]
	return ok, nil
}

// DeleteObject removes key. Deleting a missing key succeeds, as in S3.
func (p *Provider) DeleteObject(ctx context.Context, key string) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.objects, key)
	return nil
}

func (p *Provider) DeleteObjects(ctx context.Context, keys []string) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.objects, k)
	}
	return nil
}

func (p *Provider) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	src, ok := p.objects[srcKey]
	if !ok {
		return &provider.ProviderError{Op: "CopyObject", Provider: provider.ProviderMemory, Bucket: p.bucket, Key: srcKey, Err: provider.ErrNotFound}
	}
	p.objects[dstKey] = &object{
		data:     bytes.Clone(src.data),
		headers:  src.headers.Clone(),
		acl:      src.acl,
		modified: p.now().UTC(),
	}
	return nil
}

func (p *Provider) ListObjects(ctx context.Context, opts provider.ListOptions) (*provider.ListResult, error) {
	_ = ctx
	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, 0, len(p.objects))
	for k := range p.objects {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	skipSubtree := rolledUp(opts)

	res := &provider.ListResult{}
	count := 0
	last := ""
	for _, k := range keys {
		// Start strictly after the marker; a rolled-up prefix marker skips its subtree.
		if opts.Marker != "" {
			if k <= opts.Marker {
				continue
			}
			if skipSubtree && strings.HasPrefix(k, opts.Marker) {
				continue
			}
		}

		entry, isPrefix := k, false
		if opts.Delimiter != "" {
			rest := k[len(opts.Prefix):]
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				entry, isPrefix = opts.Prefix+rest[:i+len(opts.Delimiter)], true
			}
		}
		if isPrefix && entry == last {
			continue
		}

		if count == maxKeys {
			res.NextMarker = last
			break
		}

		if isPrefix {
			res.CommonPrefixes = append(res.CommonPrefixes, entry)
		} else {
			obj := p.objects[k]
			res.Objects = append(res.Objects, provider.ObjectSummary{
				Key:          k,
				Size:         int64(len(obj.data)),
				ETag:         etag(obj.data),
				LastModified: obj.modified,
				StorageClass: "STANDARD",
			})
		}
		last = entry
		count++
	}
	return res, nil
}

// rolledUp reports whether the marker names a common prefix of this listing.
// An object key that ends with the delimiter, such as the directory marker
// equal to the listing prefix, is an ordinary entry.
func rolledUp(opts provider.ListOptions) bool {
	if opts.Marker == "" || opts.Delimiter == "" || !strings.HasPrefix(opts.Marker, opts.Prefix) {
		return false
	}
	return strings.Contains(opts.Marker[len(opts.Prefix):], opts.Delimiter)
}

func (p *Provider) HeadObject(ctx context.Context, key string) (map[string]string, error) {
	_ = ctx
	obj, err := p.lookup("HeadObject", key)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"content-length":      strconv.Itoa(len(obj.data)),
		"etag":                etag(obj.data),
		"last-modified":       obj.modified.Format(http.TimeFormat),
		"x-amz-storage-class": "STANDARD",
	}
	for k, v := range obj.headers {
		fields[k] = v
	}
	if _, ok := fields["content-type"]; !ok {
		fields["content-type"] = "application/octet-stream"
	}
	return fields, nil
}

func (p *Provider) GetObjectACL(ctx context.Context, key string) (string, error) {
	_ = ctx
	obj, err := p.lookup("GetObjectACL", key)
	if err != nil {
		return "", err
	}
	return obj.acl, nil
}

func (p *Provider) PutObjectACL(ctx context.Context, key, acl string) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	obj, ok := p.objects[key]
	if !ok {
		return &provider.ProviderError{Op: "PutObjectACL", Provider: provider.ProviderMemory, Bucket: p.bucket, Key: key, Err: provider.ErrNotFound}
	}
	obj.acl = acl
	return nil
}

// Keys returns all stored keys in lexicographic order.
func (p *Provider) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.objects))
	for k := range p.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Provider) lookup(op, key string) (*object, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	obj, ok := p.objects[key]
	if !ok {
		return nil, &provider.ProviderError{Op: op, Provider: provider.ProviderMemory, Bucket: p.bucket, Key: key, Err: provider.ErrNotFound}
	}
	return obj, nil
}

func (p *Provider) wrapError(op, key string, err error) error {
	wrapped := &provider.ProviderError{Op: op, Provider: provider.ProviderMemory, Bucket: p.bucket, Key: key, Err: err}
	if os.IsNotExist(err) {
		wrapped.Err = provider.ErrNotFound
	}
	if os.IsPermission(err) {
		wrapped.Err = provider.ErrAccessDenied
	}
	return wrapped
}

func etag(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
