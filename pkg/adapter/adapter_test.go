package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/bucketfs/pkg/provider"
)

func TestNew_Defaults(t *testing.T) {
	cfg := StorageConfig{Bucket: "b", Prefix: "/x/"}
	a := New(newRecorder(), cfg, WithLogger(nil), WithMaxKeys(0))

	assert.Equal(t, cfg, a.Config())
	assert.Equal(t, "x/", a.Prefix())
	assert.Equal(t, DefaultMaxKeys, a.maxKeys)
	assert.NotNil(t, a.logger)
	assert.NotNil(t, a.defaults)
}

func TestDelete_DebugPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rec := newRecorder()
		seedKeys(t, rec, "a.txt")
		ok, err := New(rec, StorageConfig{}).Delete(ctx, "a.txt")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, rec.Keys())
	})

	t.Run("failure swallowed", func(t *testing.T) {
		rec := newRecorder()
		rec.failOn("DeleteObject")
		ok, err := New(rec, StorageConfig{Debug: false}).Delete(ctx, "a.txt")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("failure surfaced in debug", func(t *testing.T) {
		rec := newRecorder()
		rec.failOn("DeleteObject")
		ok, err := New(rec, StorageConfig{Debug: true}).Delete(ctx, "a.txt")
		assert.False(t, ok)
		require.Error(t, err)
		assert.ErrorIs(t, err, errInjected)

		var opErr *OperationError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, "Delete", opErr.Op)
		assert.Equal(t, "a.txt", opErr.Path)
		assert.Equal(t, "Delete a.txt: injected failure", opErr.Error())
	})
}

func TestErrorHandler_CalledInBothModes(t *testing.T) {
	for _, debug := range []bool{false, true} {
		rec := newRecorder()
		rec.failOn("CopyObject")

		var seen []*OperationError
		a := New(rec, StorageConfig{Debug: debug}, WithErrorHandler(func(e *OperationError) {
			seen = append(seen, e)
		}))

		_, _ = a.Copy(context.Background(), "src", "dst")
		require.Len(t, seen, 1, "debug=%v", debug)
		assert.Equal(t, "Copy", seen[0].Op)
		assert.ErrorIs(t, seen[0], errInjected)
	}
}

func TestOperationError_NoPath(t *testing.T) {
	err := &OperationError{Op: "ListContents", Err: errInjected}
	assert.Equal(t, "ListContents: injected failure", err.Error())
	assert.Equal(t, errInjected, err.Unwrap())
}

func TestHas(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "p/here")
	a := New(rec, StorageConfig{Prefix: "p"})

	ok, err := a.Has(ctx, "here")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Has(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	rec.failOn("ObjectExists")
	ok, err = a.Has(ctx, "here")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "p/src")
	a := New(rec, StorageConfig{Prefix: "p"})

	ok, err := a.Copy(ctx, "src", "dir/dst")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"p/dir/dst", "p/src"}, rec.Keys())

	ok, err = a.Copy(ctx, "missing", "x")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRename(t *testing.T) {
	ctx := context.Background()

	t.Run("moves object", func(t *testing.T) {
		rec := newRecorder()
		seedKeys(t, rec, "old")
		ok, err := New(rec, StorageConfig{}).Rename(ctx, "old", "new")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"new"}, rec.Keys())
	})

	t.Run("copy failure keeps source and skips delete", func(t *testing.T) {
		rec := newRecorder()
		seedKeys(t, rec, "old")
		rec.failOn("CopyObject")
		ok, err := New(rec, StorageConfig{}).Rename(ctx, "old", "new")
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, rec.count("DeleteObject"))
		assert.Equal(t, []string{"old"}, rec.Keys())
	})

	t.Run("delete failure leaves both objects", func(t *testing.T) {
		rec := newRecorder()
		seedKeys(t, rec, "old")
		rec.failOn("DeleteObject")
		ok, err := New(rec, StorageConfig{Debug: true}).Rename(ctx, "old", "new")
		assert.False(t, ok)
		assert.ErrorIs(t, err, errInjected)
		assert.Equal(t, []string{"new", "old"}, rec.Keys())
	})
}

func TestDeleteDir(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "p/dir/", "p/dir/a", "p/dir/sub/", "p/dir/sub/b", "p/other")
	a := New(rec, StorageConfig{Prefix: "p"})

	ok, err := a.DeleteDir(ctx, "dir")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"p/other"}, rec.Keys())
	assert.Equal(t, 2, rec.count("DeleteObjects"))
	assert.Equal(t, 1, rec.count("DeleteObject"))
}

func TestDeleteDir_EmptyStillDeletesMarker(t *testing.T) {
	rec := newRecorder()
	a := New(rec, StorageConfig{})

	ok, err := a.DeleteDir(context.Background(), "nothing")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, rec.count("DeleteObjects"))
	assert.Equal(t, 1, rec.count("DeleteObject"))
}

func TestDeleteDir_DirectoryMarkerAtPageBoundary(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "pre/a/1", "pre/a/b/", "pre/a/b/x", "pre/a/b/y", "pre/a/c/z", "pre/a/d", "pre/a/e/f/g", "pre/a/z", "pre/keep")

	paged := New(rec, StorageConfig{Prefix: "pre"}, WithMaxKeys(1))
	whole := New(rec, StorageConfig{Prefix: "pre"})

	pathsOf := func(items []*Metadata) []string {
		var out []string
		for _, md := range items {
			out = append(out, md.Path)
		}
		return out
	}
	want, err := whole.ListContents(ctx, "a", true)
	require.NoError(t, err)
	got, err := paged.ListContents(ctx, "a", true)
	require.NoError(t, err)
	assert.Contains(t, pathsOf(got), "a/b/x")
	assert.Contains(t, pathsOf(got), "a/b/y")
	assert.ElementsMatch(t, pathsOf(want), pathsOf(got))

	ok, err := paged.DeleteDir(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"pre/keep"}, rec.Keys())
}

func TestDeleteDir_Failures(t *testing.T) {
	for _, op := range []string{"ListObjects", "DeleteObjects", "DeleteObject"} {
		t.Run(op, func(t *testing.T) {
			rec := newRecorder()
			seedKeys(t, rec, "d/a")
			rec.failOn(op)
			ok, err := New(rec, StorageConfig{}).DeleteDir(context.Background(), "d")
			assert.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCreateDir(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	a := New(rec, StorageConfig{Prefix: "p"}, WithDefaultOptions(provider.Options{provider.OptionCacheControl: "no-store"}))

	md, err := a.CreateDir(ctx, "photos/2024", Config{ConfigVisibility: "public"})
	require.NoError(t, err)
	assert.Equal(t, &Metadata{Path: "photos/2024", Dirname: "photos", Type: TypeDir}, md)
	assert.Equal(t, []string{"p/photos/2024/"}, rec.Keys())

	acl, err := rec.GetObjectACL(ctx, "p/photos/2024/")
	require.NoError(t, err)
	assert.Equal(t, provider.ACLPublicRead, acl)
	assert.NotContains(t, rec.lastOpts(), provider.OptionCacheControl)

	rec.failOn("PutObject")
	md, err = a.CreateDir(ctx, "x", nil)
	assert.NoError(t, err)
	assert.Nil(t, md)
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "doc")
	a := New(rec, StorageConfig{})

	md, err := a.GetVisibility(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPrivate, md.Visibility)

	md, err = a.SetVisibility(ctx, "doc", VisibilityPublic)
	require.NoError(t, err)
	assert.Equal(t, &Metadata{Path: "doc", Visibility: VisibilityPublic}, md)

	md, err = a.GetVisibility(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, md.Visibility)

	md, err = a.GetVisibility(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, md)
}

func TestListContents(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	seedKeys(t, rec, "p/a/", "p/a/x", "p/a/b/y", "p/a/e/", "p/z")
	a := New(rec, StorageConfig{Prefix: "p"})

	records, err := a.ListContents(ctx, "a", true)
	require.NoError(t, err)

	got := map[string]ItemType{}
	var order []string
	for _, r := range records {
		got[r.Path] = r.Type
		order = append(order, r.Path)
	}
	assert.Equal(t, map[string]ItemType{
		"a/b/y": TypeFile,
		"a/e":   TypeDir,
		"a/x":   TypeFile,
		"a/b":   TypeDir,
	}, got)
	assert.Equal(t, []string{"a/b/y", "a/e", "a/x", "a/b"}, order)

	for _, r := range records {
		if r.Path == "a/x" {
			require.NotNil(t, r.Size)
			assert.Equal(t, int64(1), *r.Size)
			assert.Equal(t, "a", r.Dirname)
			assert.Equal(t, fixedTime.Unix(), r.Timestamp)
			assert.Equal(t, "STANDARD", r.StorageClass)
		}
	}
}

func TestListContents_Root(t *testing.T) {
	rec := newRecorder()
	seedKeys(t, rec, "a/x", "a/b/y", "top")
	a := New(rec, StorageConfig{})

	flat, err := a.ListContents(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "top", flat[0].Path)

	deep, err := a.ListContents(context.Background(), "", true)
	require.NoError(t, err)
	var paths []string
	for _, r := range deep {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"a/b/y", "a/x", "top", "a/b", "a"}, paths)
}

func TestListContents_FailureDiscardsRecords(t *testing.T) {
	rec := newRecorder()
	seedKeys(t, rec, "a/x")
	rec.failOn("ListObjects")

	records, err := New(rec, StorageConfig{}).ListContents(context.Background(), "a", true)
	assert.NoError(t, err)
	assert.Empty(t, records)

	records, err = New(rec, StorageConfig{Debug: true}).ListContents(context.Background(), "a", true)
	assert.ErrorIs(t, err, errInjected)
	assert.Empty(t, records)
}

func TestGetURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  StorageConfig
		path string
		want string
	}{
		{
			name: "bucket endpoint https",
			cfg:  StorageConfig{Bucket: "b", Endpoint: "oss.example.com", SSL: true},
			path: "file.txt",
			want: "https://b.oss.example.com/file.txt",
		},
		{
			name: "custom domain with prefix",
			cfg:  StorageConfig{Bucket: "b", Endpoint: "oss.example.com", Domain: "cdn.example.com", Prefix: "p"},
			path: "/file.txt",
			want: "http://cdn.example.com/p/file.txt",
		},
		{
			name: "endpoint with scheme",
			cfg:  StorageConfig{Bucket: "b", Endpoint: "https://.s3.example.com/"},
			path: "a/b",
			want: "http://b.s3.example.com/a/b",
		},
		{
			name: "escaped path",
			cfg:  StorageConfig{Bucket: "b", Endpoint: "s3.example.com", SSL: true},
			path: "my file.txt",
			want: "https://b.s3.example.com/my%20file.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			assert.Equal(t, tt.want, New(rec, tt.cfg).GetURL(tt.path))
			assert.Empty(t, rec.calls)
		})
	}
}

func TestEndpointHost(t *testing.T) {
	assert.Equal(t, "s3.example.com", endpointHost("s3.example.com"))
	assert.Equal(t, "s3.example.com", endpointHost("http://s3.example.com"))
	assert.Equal(t, "s3.example.com", endpointHost(".s3.example.com/"))
	assert.Equal(t, "localhost:9000", endpointHost("localhost:9000"))
}
