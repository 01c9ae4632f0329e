// Package adapter exposes an object-storage bucket as a filesystem-like
// store. Paths are translated into prefixed object keys, backend responses
// are normalized into Metadata records, and pseudo-directories are emulated
// from the "/"-separated key space.
package adapter

import (
	"context"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/pkg/provider"
)

// FileStore is the filesystem-style contract implemented by Adapter.
//
// Failures are reported according to StorageConfig.Debug: in debug mode the
// error is an *OperationError; otherwise the sentinel result (false, nil or
// an empty slice) is returned with a nil error.
type FileStore interface {
	Write(ctx context.Context, path string, contents []byte, cfg Config) (*Metadata, error)
	WriteStream(ctx context.Context, path string, r io.Reader, cfg Config) (*Metadata, error)
	WriteFile(ctx context.Context, path, localFile string, cfg Config) (*Metadata, error)
	Update(ctx context.Context, path string, contents []byte, cfg Config) (*Metadata, error)
	UpdateStream(ctx context.Context, path string, r io.Reader, cfg Config) (*Metadata, error)

	Rename(ctx context.Context, path, newPath string) (bool, error)
	Copy(ctx context.Context, path, newPath string) (bool, error)
	Delete(ctx context.Context, path string) (bool, error)
	DeleteDir(ctx context.Context, dirname string) (bool, error)
	CreateDir(ctx context.Context, dirname string, cfg Config) (*Metadata, error)

	SetVisibility(ctx context.Context, path string, v Visibility) (*Metadata, error)
	GetVisibility(ctx context.Context, path string) (*Metadata, error)

	Has(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) (*Metadata, error)
	ReadStream(ctx context.Context, path string) (*Metadata, error)
	ListContents(ctx context.Context, dirname string, recursive bool) ([]*Metadata, error)

	GetMetadata(ctx context.Context, path string) (*Metadata, error)
	GetSize(ctx context.Context, path string) (*Metadata, error)
	GetMimetype(ctx context.Context, path string) (*Metadata, error)
	GetTimestamp(ctx context.Context, path string) (*Metadata, error)

	GetURL(path string) string
}

var _ FileStore = (*Adapter)(nil)

// Adapter implements FileStore over a provider.Provider bound to one bucket.
//
// An Adapter holds no mutable state after New and is safe for concurrent use.
type Adapter struct {
	backend provider.Provider
	cfg     StorageConfig
	prefix  string

	logger              *zap.Logger
	defaults            provider.Options
	onError             func(*OperationError)
	skipACLPreservation bool
	maxKeys             int
}

// New creates an Adapter for backend. cfg is copied.
func New(backend provider.Provider, cfg StorageConfig, opts ...Option) *Adapter {
	a := &Adapter{
		backend:  backend,
		cfg:      cfg,
		prefix:   normalizePrefix(cfg.Prefix),
		logger:   zap.NewNop(),
		defaults: provider.Options{},
		maxKeys:  DefaultMaxKeys,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns a copy of the storage configuration.
func (a *Adapter) Config() StorageConfig {
	return a.cfg
}

// Prefix returns the normalized key prefix ("" or "dir/").
func (a *Adapter) Prefix() string {
	return a.prefix
}

// Has reports whether an object exists at path.
func (a *Adapter) Has(ctx context.Context, path string) (bool, error) {
	return attempt(a, "Has", path, func() (bool, error) {
		return a.backend.ObjectExists(ctx, a.ApplyPrefix(path))
	})
}

// Copy copies path to newPath within the bucket.
func (a *Adapter) Copy(ctx context.Context, path, newPath string) (bool, error) {
	return attempt(a, "Copy", path, func() (bool, error) {
		if err := a.backend.CopyObject(ctx, a.ApplyPrefix(path), a.ApplyPrefix(newPath)); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Rename copies path to newPath and then deletes path.
//
// The source is kept when the copy fails. When the delete fails both
// objects remain and false is returned.
func (a *Adapter) Rename(ctx context.Context, path, newPath string) (bool, error) {
	ok, err := a.Copy(ctx, path, newPath)
	if err != nil || !ok {
		return false, err
	}
	return a.Delete(ctx, path)
}

// Delete removes the object at path.
func (a *Adapter) Delete(ctx context.Context, path string) (bool, error) {
	return attempt(a, "Delete", path, func() (bool, error) {
		if err := a.backend.DeleteObject(ctx, a.ApplyPrefix(path)); err != nil {
			return false, err
		}
		return true, nil
	})
}

// DeleteDir removes every object below dirname, always recursively, and
// then the directory marker itself. Batches already deleted are not
// restored when a later step fails.
func (a *Adapter) DeleteDir(ctx context.Context, dirname string) (bool, error) {
	return attempt(a, "DeleteDir", dirname, func() (bool, error) {
		it := a.listDirObjects(a.listPrefix(dirname), true)
		for batch, err := range it.All(ctx) {
			if err != nil {
				return false, err
			}
			keys := make([]string, 0, len(batch))
			for _, obj := range batch {
				keys = append(keys, obj.Key)
			}
			if err := a.backend.DeleteObjects(ctx, keys); err != nil {
				return false, err
			}
			a.logger.Debug("Deleted batch", zap.String("dir", dirname), zap.Int("keys", len(keys)))
		}

		if err := a.backend.DeleteObject(ctx, a.dirKey(dirname)); err != nil {
			return false, err
		}
		return true, nil
	})
}

// CreateDir writes an empty directory marker object for dirname.
func (a *Adapter) CreateDir(ctx context.Context, dirname string, cfg Config) (*Metadata, error) {
	return attempt(a, "CreateDir", dirname, func() (*Metadata, error) {
		opts := optionsFromConfig(cfg)
		if err := a.backend.PutObject(ctx, a.dirKey(dirname), strings.NewReader(""), opts); err != nil {
			return nil, err
		}
		return &Metadata{Path: dirname, Dirname: parentDir(dirname), Type: TypeDir}, nil
	})
}

// SetVisibility sets the ACL of path from v.
func (a *Adapter) SetVisibility(ctx context.Context, path string, v Visibility) (*Metadata, error) {
	return attempt(a, "SetVisibility", path, func() (*Metadata, error) {
		if err := a.backend.PutObjectACL(ctx, a.ApplyPrefix(path), ACLFromVisibility(v)); err != nil {
			return nil, err
		}
		return &Metadata{Path: path, Dirname: parentDir(path), Visibility: v}, nil
	})
}

// GetVisibility reads the ACL of path and collapses it to a Visibility.
func (a *Adapter) GetVisibility(ctx context.Context, path string) (*Metadata, error) {
	return attempt(a, "GetVisibility", path, func() (*Metadata, error) {
		acl, err := a.backend.GetObjectACL(ctx, a.ApplyPrefix(path))
		if err != nil {
			return nil, err
		}
		return &Metadata{Path: path, Dirname: parentDir(path), Visibility: VisibilityFromACL(acl)}, nil
	})
}

// ListContents lists dirname, optionally recursively.
//
// Files are returned in traversal order followed by emulated directory
// records for every intermediate directory below dirname. Directory marker
// objects are reported as dir records, except the marker of dirname itself.
// A listing failure discards everything gathered so far.
func (a *Adapter) ListContents(ctx context.Context, dirname string, recursive bool) ([]*Metadata, error) {
	records, err := attempt(a, "ListContents", dirname, func() ([]*Metadata, error) {
		self := a.dirKey(dirname)
		var out []*Metadata

		it := a.listDirObjects(a.listPrefix(dirname), recursive)
		for batch, err := range it.All(ctx) {
			if err != nil {
				return nil, err
			}
			for _, obj := range batch {
				if obj.Key == self {
					continue
				}
				out = append(out, a.normalize(RawFields{
					rawKey:          obj.Key,
					rawSize:         obj.Size,
					rawLastModified: obj.LastModified,
					rawStorageClass: obj.StorageClass,
					rawETag:         obj.ETag,
				}, ""))
			}
		}
		return emulateDirectories(dirname, out), nil
	})
	if records == nil {
		records = []*Metadata{}
	}
	return records, err
}

// GetURL builds the public URL of path. No backend call is made.
func (a *Adapter) GetURL(path string) string {
	scheme := "http"
	if a.cfg.SSL {
		scheme = "https"
	}

	host := a.cfg.Domain
	if host == "" {
		host = a.cfg.Bucket + "." + endpointHost(a.cfg.Endpoint)
	}

	u := url.URL{Scheme: scheme, Host: host, Path: "/" + a.ApplyPrefix(path)}
	return u.String()
}

// endpointHost strips any scheme and leading dots from an endpoint.
func endpointHost(endpoint string) string {
	if i := strings.Index(endpoint, "://"); i >= 0 {
		endpoint = endpoint[i+3:]
	}
	return strings.TrimLeft(strings.TrimRight(endpoint, Separator), ".")
}
