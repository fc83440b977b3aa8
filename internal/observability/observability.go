// Package observability provides structured logging and metrics collection
// for the backup pipeline.
//
// Core code depends on the interfaces defined here, never on a concrete
// logger or metrics backend.
package observability

import "context"

// Fields holds additional structured context for a log entry.
type Fields map[string]interface{}

// Logger defines the contract for structured logging.
// All methods are context-aware to support correlation across a batch run.
type Logger interface {
	// Info logs general operational information.
	Info(ctx context.Context, msg string, fields Fields)

	// Error logs a failure together with the associated error.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// Warn logs a potentially harmful situation that does not stop the run.
	Warn(ctx context.Context, msg string, fields Fields)

	// Debug logs detailed information useful during troubleshooting.
	Debug(ctx context.Context, msg string, fields Fields)

	// WithFields returns a Logger that includes the given fields in every
	// subsequent entry. Used to stamp the run ID on all pipeline logs.
	WithFields(fields Fields) Logger
}

// Metrics defines the contract for metrics collection.
type Metrics interface {
	// RecordSuccess increments the success counter for an operation type.
	RecordSuccess(operationType string)

	// RecordError increments the error counter for an operation and error type.
	RecordError(operationType string, errorType string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, duration float64)

	// RecordFileSize records the size of a processed file in bytes.
	RecordFileSize(fileType string, bytes int64)

	// StartOperation increments the in-progress gauge for an operation.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge for an operation.
	// Pair with StartOperation, usually in a defer.
	EndOperation(operation string)
}
