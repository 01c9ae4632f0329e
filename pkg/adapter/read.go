package adapter

import (
	"context"
	"fmt"
	"io"
)

// Read returns the object at path with its contents loaded.
func (a *Adapter) Read(ctx context.Context, path string) (*Metadata, error) {
	return attempt(a, "Read", path, func() (*Metadata, error) {
		body, err := a.backend.GetObject(ctx, a.ApplyPrefix(path))
		if err != nil {
			return nil, err
		}
		defer body.Close()

		contents, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		md := a.normalize(RawFields{rawContentLength: int64(len(contents))}, path)
		md.Contents = contents
		return md, nil
	})
}

// ReadStream returns the object at path with an open body. The caller must
// close Metadata.Stream.
func (a *Adapter) ReadStream(ctx context.Context, path string) (*Metadata, error) {
	return attempt(a, "ReadStream", path, func() (*Metadata, error) {
		body, err := a.backend.GetObject(ctx, a.ApplyPrefix(path))
		if err != nil {
			return nil, err
		}
		md := a.normalize(RawFields{rawBody: body}, path)
		md.Stream, md.Raw = body, nil
		return md, nil
	})
}

// GetMetadata returns the head fields of path, normalized, with the raw
// fields kept in Headers.
func (a *Adapter) GetMetadata(ctx context.Context, path string) (*Metadata, error) {
	return attempt(a, "GetMetadata", path, func() (*Metadata, error) {
		fields, err := a.backend.HeadObject(ctx, a.ApplyPrefix(path))
		if err != nil {
			return nil, err
		}
		return a.fromHead(path, fields), nil
	})
}

// GetSize returns the size of path.
func (a *Adapter) GetSize(ctx context.Context, path string) (*Metadata, error) {
	return a.metadataField(ctx, "GetSize", path, func(md *Metadata) *Metadata {
		return &Metadata{Path: md.Path, Dirname: md.Dirname, Size: md.Size}
	})
}

// GetMimetype returns the content type of path.
func (a *Adapter) GetMimetype(ctx context.Context, path string) (*Metadata, error) {
	return a.metadataField(ctx, "GetMimetype", path, func(md *Metadata) *Metadata {
		return &Metadata{Path: md.Path, Dirname: md.Dirname, Mimetype: md.Mimetype}
	})
}

// GetTimestamp returns the last-modified time of path.
func (a *Adapter) GetTimestamp(ctx context.Context, path string) (*Metadata, error) {
	return a.metadataField(ctx, "GetTimestamp", path, func(md *Metadata) *Metadata {
		return &Metadata{Path: md.Path, Dirname: md.Dirname, Timestamp: md.Timestamp}
	})
}

func (a *Adapter) metadataField(ctx context.Context, op, path string, pick func(*Metadata) *Metadata) (*Metadata, error) {
	return attempt(a, op, path, func() (*Metadata, error) {
		fields, err := a.backend.HeadObject(ctx, a.ApplyPrefix(path))
		if err != nil {
			return nil, err
		}
		return pick(a.fromHead(path, fields)), nil
	})
}

// fromHead maps lower-case head fields onto the normalizer's raw names.
// Head responses carry no ACL; visibility comes from GetVisibility.
func (a *Adapter) fromHead(path string, fields map[string]string) *Metadata {
	raw := RawFields{}
	if v, ok := fields["content-length"]; ok {
		raw[rawContentLength] = v
	}
	if v, ok := fields["content-type"]; ok {
		raw[rawContentType] = v
	}
	if v, ok := fields["last-modified"]; ok {
		raw[rawLastModified] = v
	}
	if v, ok := fields["x-amz-storage-class"]; ok {
		raw[rawStorageClass] = v
	}

	md := a.normalize(raw, path)
	md.Headers = fields
	return md
}
