// Package middleware provides HTTP middleware and the JSON error envelope
// shared by all gateway responses.
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Error codes used in error envelopes.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError writes an error envelope with status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(r.Context()),
	}})
}

// Recovery converts handler panics into INTERNAL_ERROR responses.
func Recovery(next http.Handler) http.Handler {
	return RecoveryWithLogger(zap.NewNop())(next)
}

// RecoveryWithLogger is Recovery that also logs the panic.
func RecoveryWithLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					msg := fmt.Sprintf("panic: %v", rec)
					logger.Error("Handler panic",
						zap.String("path", r.URL.Path),
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("panic", msg))
					WriteError(w, r, http.StatusInternalServerError, CodeInternal, msg)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ErrorHandler is an alias of Recovery.
func ErrorHandler(next http.Handler) http.Handler {
	return Recovery(next)
}
