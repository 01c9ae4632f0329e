// Package output provides JSONL output for bucketfs commands.
//
// Every line is a typed record envelope carrying a file listing entry, an
// operation result, an error or a final summary. Each line is a
// self-contained JSON object that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: bucketfs.<type>.v<version>
const (
	// TypeFile identifies file and directory metadata records.
	TypeFile = "bucketfs.file.v1"

	// TypeResult identifies mutating operation outcomes.
	TypeResult = "bucketfs.result.v1"

	// TypeError identifies error records.
	TypeError = "bucketfs.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "bucketfs.summary.v1"
)

// Record is the envelope for all JSONL output.
type Record struct {
	// Type identifies the record type (e.g., "bucketfs.file.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID correlates all records of one command invocation.
	JobID string `json:"job_id"`

	// Provider identifies the storage backend (e.g., "s3", "memory").
	Provider string `json:"provider"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// FileRecord is the data payload for one listed or inspected path.
type FileRecord struct {
	Path         string `json:"path"`
	Dirname      string `json:"dirname"`
	Type         string `json:"type"`
	Size         *int64 `json:"size,omitempty"`
	Mimetype     string `json:"mimetype,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
	StorageClass string `json:"storage_class,omitempty"`
	Visibility   string `json:"visibility,omitempty"`

	// URL is the public URL of the path, when requested.
	URL string `json:"url,omitempty"`

	// Headers carries raw backend metadata (stat only).
	Headers map[string]string `json:"headers,omitempty"`
}

// ResultRecord is the data payload for a mutating operation such as put,
// rm, cp or mv.
type ResultRecord struct {
	// Op is the operation name (e.g., "put", "mv").
	Op string `json:"op"`

	// Path is the source or only path.
	Path string `json:"path"`

	// Target is the destination path for cp and mv.
	Target string `json:"target,omitempty"`

	// OK reports whether the operation succeeded.
	OK bool `json:"ok"`
}

// ErrorRecord is the data payload for errors.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Path is the path related to this error, if applicable.
	Path string `json:"path,omitempty"`

	// Details contains additional error context.
	Details any `json:"details,omitempty"`
}

// SummaryRecord is the data payload for final summaries.
type SummaryRecord struct {
	// Files is the number of file records emitted.
	Files int64 `json:"files"`

	// Dirs is the number of directory records emitted.
	Dirs int64 `json:"dirs"`

	// BytesTotal is the sum of reported file sizes.
	BytesTotal int64 `json:"bytes_total"`

	// Duration is the total command duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`

	// Errors is the count of errors encountered.
	Errors int64 `json:"errors"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // marshal_data, marshal_record or write
	Err error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
