package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/3leaps/bucketfs/pkg/adapter"
	"github.com/3leaps/bucketfs/pkg/provider/memory"
)

// replacingStore overwrites the object between the metadata lookup and the
// body read.
type replacingStore struct {
	*adapter.Adapter
	replacement []byte
}

func (s *replacingStore) ReadStream(ctx context.Context, path string) (*adapter.Metadata, error) {
	if _, err := s.Write(ctx, path, s.replacement, nil); err != nil {
		return nil, err
	}
	return s.Adapter.ReadStream(ctx, path)
}

func TestFilesGet_ObjectReplacedDuringRead(t *testing.T) {
	ctx := context.Background()
	store := adapter.New(memory.New("media"), adapter.StorageConfig{Bucket: "media"})
	_, err := store.Write(ctx, "notes.txt", []byte("short"), nil)
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	files := NewFiles(&replacingStore{Adapter: store, replacement: []byte("a much longer body")}, zap.New(core))

	r := chi.NewRouter()
	r.Get("/files/*", files.Get)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/notes.txt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	assert.Equal(t, "a muc", rec.Body.String())
	assert.Equal(t, 0, logs.FilterMessage("Object changed during read").Len())
}

func TestFilesGet_ObjectShrunkDuringRead(t *testing.T) {
	ctx := context.Background()
	store := adapter.New(memory.New("media"), adapter.StorageConfig{Bucket: "media"})
	_, err := store.Write(ctx, "notes.txt", []byte("a longer original"), nil)
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	files := NewFiles(&replacingStore{Adapter: store, replacement: []byte("tiny")}, zap.New(core))

	r := chi.NewRouter()
	r.Get("/files/*", files.Get)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/notes.txt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "17", rec.Header().Get("Content-Length"))
	assert.Equal(t, "tiny", rec.Body.String())

	entries := logs.FilterMessage("Object changed during read").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(17), entries[0].ContextMap()["want"])
	assert.Equal(t, int64(4), entries[0].ContextMap()["got"])
}
