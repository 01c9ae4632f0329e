package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/internal/server/middleware"
	"github.com/3leaps/bucketfs/pkg/adapter"
)

// Files serves read-only access to a FileStore.
type Files struct {
	store  adapter.FileStore
	logger *zap.Logger
}

// NewFiles creates the file handlers. A nil logger disables logging.
func NewFiles(store adapter.FileStore, logger *zap.Logger) *Files {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Files{store: store, logger: logger}
}

// ListResponse is the body of GET /list.
type ListResponse struct {
	Dir       string              `json:"dir"`
	Recursive bool                `json:"recursive"`
	Items     []*adapter.Metadata `json:"items"`
}

// URLResponse is the body of GET /url/*.
type URLResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Get streams the object at the wildcard path.
//
// Headers come from a metadata lookup made before the body is opened; the
// backend read returns a bare stream. An object replaced between the two
// calls is served with the earlier headers, and the body is cut at the
// advertised Content-Length.
func (f *Files) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := f.path(w, r)
	if !ok {
		return
	}

	md, err := f.store.GetMetadata(r.Context(), p)
	if !f.found(w, r, md, err) {
		return
	}
	body, err := f.store.ReadStream(r.Context(), p)
	if !f.found(w, r, body, err) {
		return
	}
	defer body.Stream.Close()

	setFileHeaders(w, md)
	w.WriteHeader(http.StatusOK)

	var src io.Reader = body.Stream
	if md.Size != nil {
		src = io.LimitReader(body.Stream, *md.Size)
	}
	n, err := io.Copy(w, src)
	switch {
	case err != nil:
		f.logger.Debug("Stream aborted", zap.String("path", p), zap.Error(err))
	case md.Size != nil && n != *md.Size:
		f.logger.Debug("Object changed during read", zap.String("path", p), zap.Int64("want", *md.Size), zap.Int64("got", n))
	}
}

// Head reports the metadata of the object at the wildcard path.
func (f *Files) Head(w http.ResponseWriter, r *http.Request) {
	p, ok := f.path(w, r)
	if !ok {
		return
	}
	md, err := f.store.GetMetadata(r.Context(), p)
	if !f.found(w, r, md, err) {
		return
	}
	setFileHeaders(w, md)
	w.WriteHeader(http.StatusOK)
}

// List returns the contents of ?dir=, recursively when ?recursive=true.
func (f *Files) List(w http.ResponseWriter, r *http.Request) {
	dir := strings.Trim(r.URL.Query().Get("dir"), "/")
	recursive := false
	if raw := r.URL.Query().Get("recursive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.WriteError(w, r, http.StatusBadRequest, middleware.CodeBadRequest, fmt.Sprintf("invalid recursive value %q", raw))
			return
		}
		recursive = v
	}

	items, err := f.store.ListContents(r.Context(), dir, recursive)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Dir: dir, Recursive: recursive, Items: items})
}

// URL returns the public URL of the wildcard path.
func (f *Files) URL(w http.ResponseWriter, r *http.Request) {
	p, ok := f.path(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{Path: p, URL: f.store.GetURL(p)})
}

func (f *Files) path(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := strings.Trim(chi.URLParam(r, "*"), "/")
	if p == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.CodeBadRequest, "path is required")
		return "", false
	}
	return p, true
}

// found handles the adapter failure policy: a debug error is mapped by the
// error responder, a nil result is a 404.
func (f *Files) found(w http.ResponseWriter, r *http.Request, md *adapter.Metadata, err error) bool {
	if err != nil {
		respondWithError(w, r, err)
		return false
	}
	if md == nil {
		respondWithError(w, r, errPathNotFound)
		return false
	}
	return true
}

func setFileHeaders(w http.ResponseWriter, md *adapter.Metadata) {
	h := w.Header()
	if md.Mimetype != "" {
		h.Set("Content-Type", md.Mimetype)
	}
	if md.Size != nil {
		h.Set("Content-Length", strconv.FormatInt(*md.Size, 10))
	}
	if md.Timestamp > 0 {
		h.Set("Last-Modified", time.Unix(md.Timestamp, 0).UTC().Format(http.TimeFormat))
	}
	if etag := md.Headers["etag"]; etag != "" {
		h.Set("ETag", `"`+strings.Trim(etag, `"`)+`"`)
	}
}
