package adapter

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/3leaps/bucketfs/pkg/provider"
	"github.com/3leaps/bucketfs/pkg/provider/memory"
)

var errInjected = errors.New("injected failure")

var fixedTime = time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

// recorder counts backend calls and fails the operations named in fail.
type recorder struct {
	*memory.Provider

	mu    sync.Mutex
	calls map[string]int
	lists []provider.ListOptions
	opts  []provider.Options
	fail  map[string]error
}

func newRecorder() *recorder {
	return &recorder{
		Provider: memory.New("test-bucket").WithClock(func() time.Time { return fixedTime }),
		calls:    map[string]int{},
		fail:     map[string]error{},
	}
}

func (r *recorder) hit(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	return r.fail[op]
}

func (r *recorder) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *recorder) failOn(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = errInjected
}

func (r *recorder) record(opts provider.Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = append(r.opts, opts.Clone())
}

// lastOpts returns the options of the most recent put or upload.
func (r *recorder) lastOpts() provider.Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opts) == 0 {
		return nil
	}
	return r.opts[len(r.opts)-1]
}

func (r *recorder) PutObject(ctx context.Context, key string, body io.Reader, opts provider.Options) error {
	r.record(opts)
	if err := r.hit("PutObject"); err != nil {
		return err
	}
	return r.Provider.PutObject(ctx, key, body, opts)
}

func (r *recorder) UploadFile(ctx context.Context, key, localPath string, opts provider.Options) error {
	r.record(opts)
	if err := r.hit("UploadFile"); err != nil {
		return err
	}
	return r.Provider.UploadFile(ctx, key, localPath, opts)
}

func (r *recorder) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := r.hit("GetObject"); err != nil {
		return nil, err
	}
	return r.Provider.GetObject(ctx, key)
}

func (r *recorder) ObjectExists(ctx context.Context, key string) (bool, error) {
	if err := r.hit("ObjectExists"); err != nil {
		return false, err
	}
	return r.Provider.ObjectExists(ctx, key)
}

func (r *recorder) DeleteObject(ctx context.Context, key string) error {
	if err := r.hit("DeleteObject"); err != nil {
		return err
	}
	return r.Provider.DeleteObject(ctx, key)
}

func (r *recorder) DeleteObjects(ctx context.Context, keys []string) error {
	if err := r.hit("DeleteObjects"); err != nil {
		return err
	}
	return r.Provider.DeleteObjects(ctx, keys)
}

func (r *recorder) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	if err := r.hit("CopyObject"); err != nil {
		return err
	}
	return r.Provider.CopyObject(ctx, srcKey, dstKey)
}

func (r *recorder) ListObjects(ctx context.Context, opts provider.ListOptions) (*provider.ListResult, error) {
	r.mu.Lock()
	r.lists = append(r.lists, opts)
	r.mu.Unlock()
	if err := r.hit("ListObjects"); err != nil {
		return nil, err
	}
	return r.Provider.ListObjects(ctx, opts)
}

func (r *recorder) HeadObject(ctx context.Context, key string) (map[string]string, error) {
	if err := r.hit("HeadObject"); err != nil {
		return nil, err
	}
	return r.Provider.HeadObject(ctx, key)
}

func (r *recorder) GetObjectACL(ctx context.Context, key string) (string, error) {
	if err := r.hit("GetObjectACL"); err != nil {
		return "", err
	}
	return r.Provider.GetObjectACL(ctx, key)
}

func (r *recorder) PutObjectACL(ctx context.Context, key, acl string) error {
	if err := r.hit("PutObjectACL"); err != nil {
		return err
	}
	return r.Provider.PutObjectACL(ctx, key, acl)
}

// seedKeys stores a one-byte object under each raw key, bypassing the recorder.
func seedKeys(t *testing.T, r *recorder, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, r.Provider.PutObject(context.Background(), k, strings.NewReader("x"), nil))
	}
}
