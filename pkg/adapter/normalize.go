package adapter

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ItemType classifies a Metadata record.
type ItemType string

const (
	TypeFile ItemType = "file"
	TypeDir  ItemType = "dir"
)

// Metadata is the canonical record returned by adapter operations.
//
// Optional fields are left at their zero value when the backend did not
// report them. Contents, Stream and Raw are transient handles and are never
// serialized.
type Metadata struct {
	Path         string     `json:"path" yaml:"path"`
	Dirname      string     `json:"dirname" yaml:"dirname"`
	Type         ItemType   `json:"type,omitempty" yaml:"type,omitempty"`
	Size         *int64     `json:"size,omitempty" yaml:"size,omitempty"`
	Mimetype     string     `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
	Timestamp    int64      `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	StorageClass string     `json:"storage_class,omitempty" yaml:"storage_class,omitempty"`
	Visibility   Visibility `json:"visibility,omitempty" yaml:"visibility,omitempty"`

	// Headers holds the raw backend metadata fields for metadata lookups.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Contents is the full object body (Read).
	Contents []byte `json:"-" yaml:"-"`

	// Stream is the object body handle (ReadStream). The caller closes it.
	Stream io.ReadCloser `json:"-" yaml:"-"`

	// Raw is the unconsumed backend body produced by normalization.
	Raw io.ReadCloser `json:"-" yaml:"-"`
}

// RawFields is a backend response before normalization. Field names follow
// the backend's own spelling (Key, Prefix, LastModified, Body, Content-Length,
// ContentType, Size, StorageClass).
type RawFields map[string]any

// Raw field names consumed by the normalizer.
const (
	rawKey           = "Key"
	rawPrefix        = "Prefix"
	rawLastModified  = "LastModified"
	rawBody          = "Body"
	rawContentLength = "Content-Length"
	rawContentType   = "ContentType"
	rawSize          = "Size"
	rawStorageClass  = "StorageClass"
	rawETag          = "ETag"
)

// normalize converts raw backend fields into a Metadata record.
//
// When p is empty it is derived from the Key (or Prefix) field and the
// storage prefix is stripped. Paths ending in the separator are directories.
func (a *Adapter) normalize(raw RawFields, p string) *Metadata {
	if p == "" {
		key, _ := raw[rawKey].(string)
		if key == "" {
			key, _ = raw[rawPrefix].(string)
		}
		p = a.StripPrefix(key)
	}

	md := &Metadata{Path: p, Dirname: parentDir(p)}

	if ts, ok := parseTimestamp(raw[rawLastModified]); ok {
		md.Timestamp = ts
	}

	if strings.HasSuffix(p, Separator) {
		md.Type = TypeDir
		md.Path = strings.TrimRight(p, Separator)
		return md
	}

	md.Type = TypeFile
	if body, ok := raw[rawBody].(io.ReadCloser); ok {
		md.Raw = body
	}
	for _, name := range []string{rawContentLength, rawSize} {
		if n, ok := toInt64(raw[name]); ok {
			md.Size = &n
		}
	}
	if ct, ok := raw[rawContentType].(string); ok {
		md.Mimetype = ct
	}
	if sc, ok := raw[rawStorageClass].(string); ok {
		md.StorageClass = sc
	}
	return md
}

// emulateDirectories appends dir records for every ancestor of a listed
// entry that lies below base and is not already present.
func emulateDirectories(base string, records []*Metadata) []*Metadata {
	base = strings.Trim(base, Separator)
	seen := map[string]bool{}
	for _, r := range records {
		if r.Type == TypeDir {
			seen[r.Path] = true
		}
	}

	out := records
	for _, r := range records {
		for parent := r.Dirname; parent != "" && parent != base && !seen[parent]; parent = parentDir(parent) {
			if base != "" && !strings.HasPrefix(parent, base+Separator) {
				break
			}
			seen[parent] = true
			out = append(out, &Metadata{Path: parent, Dirname: parentDir(parent), Type: TypeDir})
		}
	}
	return out
}

// parseTimestamp accepts time.Time, HTTP dates and RFC 3339 strings.
func parseTimestamp(v any) (int64, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return 0, false
		}
		return t.Unix(), true
	case string:
		if t == "" {
			return 0, false
		}
		if parsed, err := http.ParseTime(t); err == nil {
			return parsed.Unix(), true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.Unix(), true
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		return parsed, err == nil
	}
	return 0, false
}
