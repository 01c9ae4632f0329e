package memory

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/bucketfs/pkg/provider"
)

func seed(t *testing.T, p *Provider, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, p.PutObject(context.Background(), k, strings.NewReader("x"), nil))
	}
}

func TestPutGetHead(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	p := New("bucket").WithClock(func() time.Time { return fixed })

	err := p.PutObject(ctx, "a/b.txt", strings.NewReader("hello"), provider.Options{
		provider.OptionContentType: "text/plain",
		provider.OptionACL:         provider.ACLPublicRead,
		provider.OptionCheckMD5:    "true",
	})
	require.NoError(t, err)

	body, err := p.GetObject(ctx, "a/b.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "hello", string(data))

	fields, err := p.HeadObject(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "5", fields["content-length"])
	assert.Equal(t, "text/plain", fields["content-type"])
	assert.Equal(t, "Mon, 15 Jan 2024 12:00:00 GMT", fields["last-modified"])
	assert.NotContains(t, fields, "x-amz-acl")
	assert.NotContains(t, fields, strings.ToLower(provider.OptionCheckMD5))

	acl, err := p.GetObjectACL(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, provider.ACLPublicRead, acl)
}

func TestMissingKeys(t *testing.T) {
	ctx := context.Background()
	p := New("bucket")

	_, err := p.GetObject(ctx, "missing")
	assert.True(t, provider.IsNotFound(err))

	_, err = p.HeadObject(ctx, "missing")
	assert.True(t, provider.IsNotFound(err))

	assert.True(t, provider.IsNotFound(p.CopyObject(ctx, "missing", "dst")))
	assert.True(t, provider.IsNotFound(p.PutObjectACL(ctx, "missing", provider.ACLPrivate)))

	ok, err := p.ObjectExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, p.DeleteObject(ctx, "missing"))
}

func TestCopyDeleteACL(t *testing.T) {
	ctx := context.Background()
	p := New("bucket")
	seed(t, p, "src")

	require.NoError(t, p.PutObjectACL(ctx, "src", provider.ACLPublicRead))
	require.NoError(t, p.CopyObject(ctx, "src", "dst"))

	acl, err := p.GetObjectACL(ctx, "dst")
	require.NoError(t, err)
	assert.Equal(t, provider.ACLPublicRead, acl)

	require.NoError(t, p.DeleteObjects(ctx, []string{"src", "dst"}))
	assert.Empty(t, p.Keys())
}

func TestUploadFile(t *testing.T) {
	ctx := context.Background()
	p := New("bucket")

	local := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(local, []byte("from disk"), 0o600))

	require.NoError(t, p.UploadFile(ctx, "up.txt", local, nil))
	fields, err := p.HeadObject(ctx, "up.txt")
	require.NoError(t, err)
	assert.Equal(t, "9", fields["content-length"])

	err = p.UploadFile(ctx, "up.txt", filepath.Join(t.TempDir(), "nope"), nil)
	assert.True(t, provider.IsNotFound(err))
}

func TestListObjects_Delimiter(t *testing.T) {
	ctx := context.Background()
	p := New("bucket")
	seed(t, p, "a/", "a/x", "a/b/y", "a/b/z", "a/c/w", "top")

	res, err := p.ListObjects(ctx, provider.ListOptions{Prefix: "a/", Delimiter: "/"})
	require.NoError(t, err)

	var keys []string
	for _, o := range res.Objects {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"a/", "a/x"}, keys)
	assert.Equal(t, []string{"a/b/", "a/c/"}, res.CommonPrefixes)
	assert.Empty(t, res.NextMarker)

	root, err := p.ListObjects(ctx, provider.ListOptions{Delimiter: "/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/"}, root.CommonPrefixes)
	require.Len(t, root.Objects, 1)
	assert.Equal(t, "top", root.Objects[0].Key)
}

func TestListObjects_Pagination(t *testing.T) {
	ctx := context.Background()
	p := New("bucket")
	seed(t, p, "d/1", "d/2", "d/3", "d/sub/a", "d/sub/b", "d/z")

	var (
		objects  []string
		prefixes []string
		marker   string
		pages    int
	)
	for {
		res, err := p.ListObjects(ctx, provider.ListOptions{Prefix: "d/", Delimiter: "/", MaxKeys: 2, Marker: marker})
		require.NoError(t, err)
		pages++
		for _, o := range res.Objects {
			objects = append(objects, o.Key)
		}
		prefixes = append(prefixes, res.CommonPrefixes...)
		if res.NextMarker == "" {
			break
		}
		marker = res.NextMarker
	}

	assert.Equal(t, []string{"d/1", "d/2", "d/3", "d/z"}, objects)
	assert.Equal(t, []string{"d/sub/"}, prefixes)
	assert.Equal(t, 3, pages)
}

func listAll(t *testing.T, p *Provider, prefix string, maxKeys int) (objects, prefixes []string) {
	t.Helper()
	marker := ""
	for {
		res, err := p.ListObjects(context.Background(), provider.ListOptions{Prefix: prefix, Delimiter: "/", MaxKeys: maxKeys, Marker: marker})
		require.NoError(t, err)
		for _, o := range res.Objects {
			objects = append(objects, o.Key)
		}
		prefixes = append(prefixes, res.CommonPrefixes...)
		if res.NextMarker == "" {
			return objects, prefixes
		}
		marker = res.NextMarker
	}
}

func TestListObjects_DirectoryMarkerAtPageBoundary(t *testing.T) {
	p := New("bucket")
	seed(t, p, "pre/a/1", "pre/a/b/", "pre/a/b/x", "pre/a/b/y", "pre/a/b/sub/q", "pre/a/c")

	tests := []struct {
		name         string
		prefix       string
		wantObjects  []string
		wantPrefixes []string
	}{
		{
			name:         "marker object equal to the prefix",
			prefix:       "pre/a/b/",
			wantObjects:  []string{"pre/a/b/", "pre/a/b/x", "pre/a/b/y"},
			wantPrefixes: []string{"pre/a/b/sub/"},
		},
		{
			name:         "rolled-up prefix still skips its subtree",
			prefix:       "pre/a/",
			wantObjects:  []string{"pre/a/1", "pre/a/c"},
			wantPrefixes: []string{"pre/a/b/"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, maxKeys := range []int{1, 2, 1000} {
				objects, prefixes := listAll(t, p, tt.prefix, maxKeys)
				assert.Equal(t, tt.wantObjects, objects, "max keys %d", maxKeys)
				assert.Equal(t, tt.wantPrefixes, prefixes, "max keys %d", maxKeys)
			}
		})
	}
}
