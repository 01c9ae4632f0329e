package handlers

import (
	"errors"
	"net/http"

	"github.com/3leaps/bucketfs/internal/server/middleware"
	"github.com/3leaps/bucketfs/pkg/provider"
)

// HTTPErrorResponder writes the response for a failed request.
type HTTPErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

var httpErrorResponder HTTPErrorResponder = defaultErrorResponder

// SetHTTPErrorResponder replaces the error responder. Nil restores the default.
func SetHTTPErrorResponder(fn HTTPErrorResponder) {
	if fn == nil {
		fn = defaultErrorResponder
	}
	httpErrorResponder = fn
}

// ResetHTTPErrorResponder restores the default error responder.
func ResetHTTPErrorResponder() {
	httpErrorResponder = defaultErrorResponder
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}

// errPathNotFound reports a sentinel (nil) adapter result.
var errPathNotFound = errors.New("path not found")

// defaultErrorResponder maps provider error codes onto HTTP statuses.
func defaultErrorResponder(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errPathNotFound) {
		middleware.WriteError(w, r, http.StatusNotFound, middleware.CodeNotFound, err.Error())
		return
	}

	code := provider.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case provider.CodeNotFound, provider.CodeBucketNotFound:
		status = http.StatusNotFound
	case provider.CodeAccessDenied, provider.CodeInvalidCredentials:
		status = http.StatusForbidden
	case provider.CodeThrottled:
		status = http.StatusTooManyRequests
	case provider.CodeUnavailable:
		status = http.StatusBadGateway
	}
	middleware.WriteError(w, r, status, code, err.Error())
}
