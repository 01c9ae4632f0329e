package adapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/bucketfs/pkg/provider"
)

func TestWrite(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{Prefix: "root"})

	md, err := a.Write(ctx, "docs/index.html", []byte("<p>hi</p>"), Config{ConfigVisibility: "public"})
	require.NoError(t, err)

	assert.Equal(t, "docs/index.html", md.Path)
	assert.Equal(t, "docs", md.Dirname)
	assert.Equal(t, TypeFile, md.Type)
	require.NotNil(t, md.Size)
	assert.Equal(t, int64(9), *md.Size)
	assert.Equal(t, "text/html", md.Mimetype)
	assert.Equal(t, VisibilityPublic, md.Visibility)

	opts := rec.lastOpts()
	assert.Equal(t, "9", opts[provider.OptionContentLength])
	assert.Equal(t, "text/html", opts[provider.OptionContentType])
	assert.Equal(t, provider.ACLPublicRead, opts[provider.OptionACL])

	acl, err := rec.GetObjectACL(ctx, "root/docs/index.html")
	require.NoError(t, err)
	assert.Equal(t, provider.ACLPublicRead, acl)
}

func TestWrite_ExplicitOptionsKept(t *testing.T) {
	rec := newRecorder()
	a := New(rec, StorageConfig{}, WithDefaultOptions(provider.Options{provider.OptionContentLength: "3"}))

	_, err := a.Write(context.Background(), "f.bin", []byte("abc"), Config{ConfigMimetype: "application/x-custom"})
	require.NoError(t, err)

	opts := rec.lastOpts()
	assert.Equal(t, "3", opts[provider.OptionContentLength])
	assert.Equal(t, "application/x-custom", opts[provider.OptionContentType])
}

func TestWrite_Failure(t *testing.T) {
	rec := newRecorder()
	rec.failOn("PutObject")

	md, err := New(rec, StorageConfig{}).Write(context.Background(), "f", []byte("x"), nil)
	assert.NoError(t, err)
	assert.Nil(t, md)

	md, err = New(rec, StorageConfig{Debug: true}).Write(context.Background(), "f", []byte("x"), nil)
	assert.Nil(t, md)
	assert.ErrorIs(t, err, errInjected)
}

func TestWriteStream(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{})

	md, err := a.WriteStream(ctx, "data.json", strings.NewReader(`{"a":1}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", md.Mimetype)
	assert.Equal(t, []string{"data.json"}, rec.Keys())

	md, err = New(rec, StorageConfig{Debug: true}).WriteStream(ctx, "broken", iotest.ErrReader(errInjected), nil)
	assert.Nil(t, md)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, 1, rec.count("PutObject"))
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{Prefix: "up"})

	local := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"ok":true}`), 0o600))

	md, err := a.WriteFile(ctx, "reports/r.json", local, nil)
	require.NoError(t, err)
	assert.Equal(t, "reports/r.json", md.Path)
	assert.Equal(t, "application/json", md.Mimetype)
	assert.Equal(t, 1, rec.count("UploadFile"))

	opts := rec.lastOpts()
	assert.Equal(t, "true", opts[provider.OptionCheckMD5])
	assert.Equal(t, []string{"up/reports/r.json"}, rec.Keys())

	md, err = a.WriteFile(ctx, "missing", filepath.Join(t.TempDir(), "nope"), nil)
	assert.NoError(t, err)
	assert.Nil(t, md)
}

func TestUpdate_PreservesVisibility(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{})

	_, err := a.Write(ctx, "page.html", []byte("v1"), Config{ConfigVisibility: "public"})
	require.NoError(t, err)

	md, err := a.Update(ctx, "page.html", []byte("v2"), nil)
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, md.Visibility)
	assert.Equal(t, 1, rec.count("GetObjectACL"))

	acl, err := rec.GetObjectACL(ctx, "page.html")
	require.NoError(t, err)
	assert.Equal(t, provider.ACLPublicRead, acl)
}

func TestUpdate_ExplicitVisibilitySkipsLookup(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "f")
	a := New(rec, StorageConfig{})

	_, err := a.Update(ctx, "f", []byte("x"), Config{ConfigVisibility: "private"})
	require.NoError(t, err)
	_, err = a.UpdateStream(ctx, "f", strings.NewReader("y"), Config{ConfigACL: provider.ACLPublicRead})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.count("GetObjectACL"))
}

func TestUpdate_SkipACLPreservation(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{}, WithSkipACLPreservation())

	_, err := a.Write(ctx, "f", []byte("v1"), Config{ConfigVisibility: "public"})
	require.NoError(t, err)
	_, err = a.Update(ctx, "f", []byte("v2"), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, rec.count("GetObjectACL"))
	acl, err := rec.GetObjectACL(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, provider.ACLPrivate, acl)
}

func TestUpdate_MissingObjectIsPrivate(t *testing.T) {
	ctx := context.Background()
	for _, debug := range []bool{false, true} {
		rec := newRecorder()
		a := New(rec, StorageConfig{Debug: debug})

		md, err := a.UpdateStream(ctx, "new", strings.NewReader("x"), nil)
		require.NoError(t, err, "debug=%v", debug)
		assert.Equal(t, VisibilityPrivate, md.Visibility)
		assert.Equal(t, provider.ACLPrivate, rec.lastOpts()[provider.OptionACL])
	}
}

func TestUpdate_ACLLookupFailure(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "f")
	rec.failOn("GetObjectACL")

	md, err := New(rec, StorageConfig{Debug: true}).Update(ctx, "f", []byte("x"), nil)
	assert.Nil(t, md)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, 0, rec.count("PutObject"))

	md, err = New(rec, StorageConfig{}).Update(ctx, "f", []byte("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, VisibilityPrivate, md.Visibility)
}

func TestGuessMimeType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

	tests := []struct {
		name    string
		path    string
		content []byte
		want    string
	}{
		{"sniffed png ignores extension", "image.dat", png, "image/png"},
		{"plain text falls back to extension", "page.html", []byte("hello"), "text/html"},
		{"plain text without extension", "notes", []byte("hello"), "text/plain"},
		{"empty content uses extension", "data.json", nil, "application/json"},
		{"nothing known", "blob", nil, "application/octet-stream"},
		{"unknown extension", "x.unknownext", nil, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guessMimeType(tt.path, tt.content))
		})
	}
}
