package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a pipeline failure. The orchestrator uses codes to
// decide containment: DataSource aborts the run, everything else is scoped
// to a single asset.
type ErrorCode string

const (
	// CodeDataSource covers listing API fetch and parse failures. Fatal to
	// the whole run.
	CodeDataSource ErrorCode = "DATA_SOURCE"

	// CodeTransport covers asset download failures. Fatal to that asset only.
	CodeTransport ErrorCode = "TRANSPORT"

	// CodeUnsupportedContentType means the response declared a type outside
	// the allow-list. Fatal to that asset only; no file is written.
	CodeUnsupportedContentType ErrorCode = "UNSUPPORTED_CONTENT_TYPE"

	// CodeCompressionMismatch means a compression tool reported the file is
	// not in the expected format. Triggers the sibling-format fallback.
	CodeCompressionMismatch ErrorCode = "COMPRESSION_MISMATCH"

	// CodeCompression covers other compression tool failures. Logged; the
	// original file is kept.
	CodeCompression ErrorCode = "COMPRESSION"

	// CodeStorage covers upload failures. Logged, never fatal.
	CodeStorage ErrorCode = "STORAGE"

	// CodeCleanup covers local file deletion failures. Logged, never fatal.
	CodeCleanup ErrorCode = "CLEANUP"
)

// Error is a classified pipeline error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error wrapping cause, which may be nil.
func E(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// Ef builds a classified error with a formatted message and no cause.
func Ef(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the classification of err, or "" if err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is classified with code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
