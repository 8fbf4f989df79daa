// Package errors provides the standardized error taxonomy for a matching run.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	ErrCodeDataAccess ErrorCode = "DATA_ACCESS_ERROR"
	ErrCodeAuth       ErrorCode = "AUTH_ERROR"

	ErrCodeDirectoryLookup ErrorCode = "DIRECTORY_LOOKUP_ERROR"

	ErrCodeMatchService ErrorCode = "MATCH_SERVICE_ERROR"
	ErrCodeMatchParse   ErrorCode = "MATCH_PARSE_ERROR"

	ErrCodeResultParse ErrorCode = "RESULT_PARSE_ERROR"
	ErrCodeResultWrite ErrorCode = "RESULT_WRITE_ERROR"

	ErrCodeArchive ErrorCode = "ARCHIVE_ERROR"
	ErrCodePublish ErrorCode = "PUBLISH_ERROR"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata attaches a metadata entry and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

func causeDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewConfigError creates a non-retryable configuration error.
func NewConfigError(details string) *StandardError {
	return newError(ErrCodeConfigInvalid, "Invalid configuration", details, false, nil)
}

// NewDataAccessError reports a missing, unreadable or mis-shaped input file.
func NewDataAccessError(path string, err error) *StandardError {
	return newError(ErrCodeDataAccess, "Participant data could not be loaded",
		fmt.Sprintf("path: %s, error: %s", path, causeDetails(err)), false, err).
		WithMetadata("path", path)
}

// NewAuthError reports a missing, expired or rejected credential.
func NewAuthError(service, details string) *StandardError {
	return newError(ErrCodeAuth, fmt.Sprintf("Authentication failed for %s", service), details, false, nil).
		WithMetadata("service", service)
}

// NewDirectoryLookupError reports a single failed directory lookup.
func NewDirectoryLookupError(lookup, user string, err error) *StandardError {
	return newError(ErrCodeDirectoryLookup, "Directory lookup failed",
		fmt.Sprintf("lookup: %s, user: %s, error: %s", lookup, user, causeDetails(err)), true, err).
		WithMetadata("lookup", lookup).
		WithMetadata("user", user)
}

// NewMatchServiceError reports a failed or timed-out completion request.
func NewMatchServiceError(err error) *StandardError {
	return newError(ErrCodeMatchService, "Completion service request failed", causeDetails(err), true, err)
}

// NewMatchParseError reports a completion that is not the documented JSON array.
func NewMatchParseError(details string, err error) *StandardError {
	if err != nil {
		details = fmt.Sprintf("%s: %s", details, err.Error())
	}
	return newError(ErrCodeMatchParse, "Completion response is not a valid match list", details, false, err)
}

// NewResultParseError reports match data that does not map onto rows and columns.
func NewResultParseError(details string) *StandardError {
	return newError(ErrCodeResultParse, "Match results do not map onto a table", details, false, nil)
}

// NewResultWriteError reports a failure to persist the output file.
func NewResultWriteError(path string, err error) *StandardError {
	return newError(ErrCodeResultWrite, "Match results could not be written",
		fmt.Sprintf("path: %s, error: %s", path, causeDetails(err)), false, err).
		WithMetadata("path", path)
}

func NewArchiveError(err error) *StandardError {
	return newError(ErrCodeArchive, "Run archive failed", causeDetails(err), true, err)
}

func NewPublishError(target string, err error) *StandardError {
	return newError(ErrCodePublish, fmt.Sprintf("Publishing to %s failed", target), causeDetails(err), true, err)
}

// ==========================
// 3. Inspection
// ==========================

// Is and As forward to the standard library so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err's chain carries a StandardError with code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return false
	}
	return stdErr.Code == code
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case ErrCodeConfigInvalid:
		return 2
	case ErrCodeDataAccess:
		return 3
	case ErrCodeAuth:
		return 4
	case ErrCodeMatchService:
		return 5
	case ErrCodeMatchParse:
		return 6
	case ErrCodeResultParse:
		return 7
	case ErrCodeResultWrite:
		return 8
	default:
		return 1
	}
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDirectoryLookup:
		return 2
	case ErrCodeMatchService, ErrCodeArchive, ErrCodePublish:
		return 1
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	case strings.Contains(codeStr, "DATA") || strings.Contains(codeStr, "RESULT"):
		return "IO"
	case strings.Contains(codeStr, "DIRECTORY"):
		return "DIRECTORY"
	case strings.Contains(codeStr, "MATCH"):
		return "AI"
	case strings.Contains(codeStr, "ARCHIVE") || strings.Contains(codeStr, "PUBLISH"):
		return "DELIVERY"
	default:
		return "OTHER"
	}
}
