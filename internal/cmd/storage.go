package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/internal/config"
	"github.com/3leaps/bucketfs/internal/observability"
	"github.com/3leaps/bucketfs/pkg/adapter"
	"github.com/3leaps/bucketfs/pkg/provider"
	"github.com/3leaps/bucketfs/pkg/provider/memory"
	"github.com/3leaps/bucketfs/pkg/provider/s3"
)

// openBackend creates the provider for a storage configuration. Tests
// replace it to share an in-memory backend between commands.
var openBackend = newBackend

func newBackend(ctx context.Context, st config.StorageConfig) (provider.Provider, error) {
	switch st.Backend {
	case string(provider.ProviderMemory):
		return memory.New(st.Bucket), nil
	case string(provider.ProviderS3), "":
		return s3.New(ctx, s3.Config{
			Bucket:          st.Bucket,
			Region:          st.Region,
			Endpoint:        endpointURL(st.ActiveEndpoint(), st.SSL),
			Profile:         st.Profile,
			AccessKeyID:     st.AccessID,
			SecretAccessKey: st.AccessKey,
			ForcePathStyle:  st.ForcePathStyle,
			MaxKeys:         st.MaxKeys,
			RateLimit:       st.RateLimit,
		})
	}
	return nil, fmt.Errorf("unsupported backend %q", st.Backend)
}

// endpointURL adds a scheme to bare endpoint hosts.
func endpointURL(endpoint string, ssl bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if ssl {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// session is an adapter bound to one bucket for the duration of a command.
type session struct {
	store    *adapter.Adapter
	backend  provider.Provider
	provider string

	// lastErr is the most recent operation failure, reported when a
	// non-debug adapter returns a sentinel result.
	lastErr *adapter.OperationError
}

// openSession opens the configured bucket, or bucket when non-empty.
func openSession(ctx context.Context, bucket string) (*session, error) {
	if appConfig == nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Configuration not loaded", errors.New("no configuration"))
	}
	st := appConfig.Storage
	if bucket != "" {
		st.Bucket = bucket
	}
	if st.Bucket == "" {
		return nil, exitError(foundry.ExitInvalidArgument, "No bucket configured",
			errors.New("set storage.bucket, BUCKETFS_BUCKET, --bucket or use an s3://bucket/ URI"))
	}

	be, err := openBackend(ctx, st)
	if err != nil {
		observability.CLILogger.Error("Failed to create provider", zap.Error(err))
		return nil, exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to storage provider", err)
	}

	s := &session{backend: be, provider: st.Backend}
	s.store = adapter.New(be, adapter.StorageConfig{
		Bucket:           st.Bucket,
		Endpoint:         st.Endpoint,
		EndpointInternal: st.EndpointInternal,
		Domain:           st.Domain,
		SSL:              st.SSL,
		Prefix:           st.Prefix,
		Debug:            st.Debug,
	},
		adapter.WithLogger(observability.CLILogger),
		adapter.WithMaxKeys(st.MaxKeys),
		adapter.WithDefaultOptions(provider.Options(st.Options).Canonical()),
		adapter.WithErrorHandler(func(e *adapter.OperationError) { s.lastErr = e }),
	)
	return s, nil
}

// Close releases the backend.
func (s *session) Close() error {
	return s.backend.Close()
}

// check turns an adapter outcome into a command error. A failed outcome
// without an error is a non-debug sentinel; the recorded failure, if any,
// becomes the cause.
func (s *session) check(message string, ok bool, err error) error {
	if err == nil && ok {
		return nil
	}
	if err == nil {
		if s.lastErr != nil {
			err = s.lastErr
		} else {
			err = errors.New("operation reported failure")
		}
	}
	observability.CLILogger.Error(message, zap.Error(err))

	code := foundry.ExitExternalServiceUnavailable
	if provider.IsNotFound(err) {
		code = foundry.ExitFileNotFound
	}
	return exitError(code, message, err)
}

// checkMetadata is check for operations returning a metadata record.
func (s *session) checkMetadata(message string, md *adapter.Metadata, err error) error {
	return s.check(message, md != nil, err)
}
