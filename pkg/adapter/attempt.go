package adapter

import (
	"fmt"

	"go.uber.org/zap"
)

// OperationError records a failed adapter operation.
type OperationError struct {
	// Op is the adapter operation (e.g. "Write", "DeleteDir").
	Op string

	// Path is the adapter path the operation was called with.
	Path string

	// Err is the underlying backend error.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// attempt runs fn under the adapter failure policy.
//
// On failure the zero value of T is returned. The error is only returned
// when the adapter is in debug mode; otherwise the zero value is the whole
// answer ("false means failure").
func attempt[T any](a *Adapter, op, path string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil {
		return v, nil
	}
	var zero T
	return zero, a.fail(op, path, err)
}

// fail reports err to the logger and error handler and applies the debug policy.
func (a *Adapter) fail(op, path string, err error) error {
	opErr := &OperationError{Op: op, Path: path, Err: err}

	a.logger.Debug("Operation failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.String("bucket", a.cfg.Bucket),
		zap.Error(err))

	if a.onError != nil {
		a.onError(opErr)
	}

	if a.cfg.Debug {
		return opErr
	}
	return nil
}
