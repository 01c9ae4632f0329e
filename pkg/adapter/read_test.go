package adapter

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{Prefix: "p"})
	_, err := a.Write(ctx, "a/hello.txt", []byte("hello"), nil)
	require.NoError(t, err)

	md, err := a.Read(ctx, "a/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(md.Contents))
	assert.Equal(t, "a", md.Dirname)
	require.NotNil(t, md.Size)
	assert.Equal(t, int64(5), *md.Size)

	md, err = a.Read(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, md)
}

func TestReadStream(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "blob")
	a := New(rec, StorageConfig{})

	md, err := a.ReadStream(ctx, "blob")
	require.NoError(t, err)
	require.NotNil(t, md.Stream)
	assert.Nil(t, md.Raw)

	data, err := io.ReadAll(md.Stream)
	require.NoError(t, err)
	require.NoError(t, md.Stream.Close())
	assert.Equal(t, "x", string(data))

	md, err = New(rec, StorageConfig{Debug: true}).ReadStream(ctx, "missing")
	assert.Nil(t, md)
	assert.Error(t, err)
}

func TestGetMetadata(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{})
	_, err := a.Write(ctx, "site/index.html", []byte("<html></html>"), Config{ConfigCacheControl: "max-age=60"})
	require.NoError(t, err)

	md, err := a.GetMetadata(ctx, "site/index.html")
	require.NoError(t, err)
	assert.Equal(t, "site/index.html", md.Path)
	assert.Equal(t, TypeFile, md.Type)
	require.NotNil(t, md.Size)
	assert.Equal(t, int64(13), *md.Size)
	assert.Equal(t, "text/html", md.Mimetype)
	assert.Equal(t, fixedTime.Unix(), md.Timestamp)
	assert.Equal(t, "STANDARD", md.StorageClass)
	assert.Equal(t, "max-age=60", md.Headers["cache-control"])
	assert.NotEmpty(t, md.Headers["etag"])
}

func TestMetadataFields(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "f")
	a := New(rec, StorageConfig{})

	size, err := a.GetSize(ctx, "f")
	require.NoError(t, err)
	require.NotNil(t, size.Size)
	assert.Equal(t, int64(1), *size.Size)
	assert.Empty(t, size.Mimetype)

	mt, err := a.GetMimetype(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", mt.Mimetype)
	assert.Nil(t, mt.Size)

	ts, err := a.GetTimestamp(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, fixedTime.Unix(), ts.Timestamp)
	assert.Equal(t, "f", ts.Path)

	rec.failOn("HeadObject")
	for _, get := range []func(context.Context, string) (*Metadata, error){a.GetMetadata, a.GetSize, a.GetMimetype, a.GetTimestamp} {
		md, err := get(ctx, "f")
		assert.NoError(t, err)
		assert.Nil(t, md)
	}
}

func TestGetMetadata_VisibilityNeedsACLLookup(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{})
	_, err := a.Write(ctx, "pub.txt", []byte("x"), Config{ConfigVisibility: "public"})
	require.NoError(t, err)

	md, err := a.GetMetadata(ctx, "pub.txt")
	require.NoError(t, err)
	assert.Empty(t, md.Visibility)
	assert.NotContains(t, md.Headers, "x-amz-acl")

	vis, err := a.GetVisibility(ctx, "pub.txt")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, vis.Visibility)
}
