package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/3leaps/bucketfs/pkg/provider"
)

const defaultMimetype = "application/octet-stream"

// Write stores contents at path.
//
// Content-Length and Content-Type are filled in when neither the adapter
// defaults nor cfg set them; the type is sniffed from contents with the
// file extension as a fallback.
func (a *Adapter) Write(ctx context.Context, path string, contents []byte, cfg Config) (*Metadata, error) {
	return attempt(a, "Write", path, func() (*Metadata, error) {
		return a.write(ctx, path, contents, cfg)
	})
}

// WriteStream reads r to the end and stores the result at path.
func (a *Adapter) WriteStream(ctx context.Context, path string, r io.Reader, cfg Config) (*Metadata, error) {
	return attempt(a, "WriteStream", path, func() (*Metadata, error) {
		contents, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}
		return a.write(ctx, path, contents, cfg)
	})
}

// WriteFile uploads the local file at localFile to path. The backend is
// asked to verify the upload checksum.
func (a *Adapter) WriteFile(ctx context.Context, path, localFile string, cfg Config) (*Metadata, error) {
	return attempt(a, "WriteFile", path, func() (*Metadata, error) {
		opts := a.buildOptions(cfg, provider.Options{provider.OptionCheckMD5: "true"})
		if !opts.Has(provider.OptionContentType) {
			opts[provider.OptionContentType] = guessMimeType(localFile, nil)
		}
		if err := a.backend.UploadFile(ctx, a.ApplyPrefix(path), localFile, opts); err != nil {
			return nil, err
		}
		return a.writeResult(path, opts), nil
	})
}

// Update overwrites the object at path, keeping its current visibility
// when cfg does not set one.
func (a *Adapter) Update(ctx context.Context, path string, contents []byte, cfg Config) (*Metadata, error) {
	cfg, err := a.preserveACL(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	return a.Write(ctx, path, contents, cfg)
}

// UpdateStream is Update for a reader.
func (a *Adapter) UpdateStream(ctx context.Context, path string, r io.Reader, cfg Config) (*Metadata, error) {
	cfg, err := a.preserveACL(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	return a.WriteStream(ctx, path, r, cfg)
}

// preserveACL injects the current ACL of path into cfg.
//
// A missing object, or any lookup failure outside debug mode, is treated
// as private.
func (a *Adapter) preserveACL(ctx context.Context, path string, cfg Config) (Config, error) {
	if a.skipACLPreservation || cfg.Has(ConfigVisibility) || cfg.Has(ConfigACL) {
		return cfg, nil
	}

	vis := VisibilityPrivate
	md, err := a.GetVisibility(ctx, path)
	switch {
	case err != nil && !provider.IsNotFound(err):
		return nil, err
	case md != nil:
		vis = md.Visibility
	}
	return cfg.With(ConfigACL, ACLFromVisibility(vis)), nil
}

func (a *Adapter) write(ctx context.Context, path string, contents []byte, cfg Config) (*Metadata, error) {
	opts := a.buildOptions(cfg, nil)
	if !opts.Has(provider.OptionContentLength) {
		opts[provider.OptionContentLength] = strconv.Itoa(len(contents))
	}
	if !opts.Has(provider.OptionContentType) {
		opts[provider.OptionContentType] = guessMimeType(path, contents)
	}

	if err := a.backend.PutObject(ctx, a.ApplyPrefix(path), bytes.NewReader(contents), opts); err != nil {
		return nil, err
	}
	return a.writeResult(path, opts), nil
}

// writeResult describes a stored object from the options it was sent with.
func (a *Adapter) writeResult(path string, opts provider.Options) *Metadata {
	fields := RawFields{}
	if v, ok := opts[provider.OptionContentLength]; ok {
		fields[rawContentLength] = v
	}
	if v, ok := opts[provider.OptionContentType]; ok {
		fields[rawContentType] = v
	}
	md := a.normalize(fields, path)
	if acl, ok := opts[provider.OptionACL]; ok && acl != provider.ACLDefault {
		md.Visibility = VisibilityFromACL(acl)
	}
	return md
}

// guessMimeType sniffs content, falling back to the extension of p when
// the sniffed type is generic or content is empty.
func guessMimeType(p string, content []byte) string {
	detected := ""
	if len(content) > 0 {
		detected = stripParams(mimetype.Detect(content).String())
	}
	if detected != "" && detected != "text/plain" && detected != defaultMimetype {
		return detected
	}

	if byExt := stripParams(mime.TypeByExtension(filepath.Ext(p))); byExt != "" {
		return byExt
	}
	if detected != "" {
		return detected
	}
	return defaultMimetype
}

func stripParams(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.TrimSpace(mediaType)
}
