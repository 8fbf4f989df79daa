package errors

import "time"

// ErrorHandler reports a failed run and decides the process exit status.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRunError logs err with its taxonomy fields and returns the exit code.
func (h *ErrorHandler) HandleRunError(runID string, err error) int {
	if err == nil {
		return 0
	}
	stdErr := h.normalizeError(err)

	fields := map[string]interface{}{
		"runId":         runID,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"exitCode":      ExitCode(stdErr),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	h.logger.Error("Run failed", fields)

	return ExitCode(stdErr)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}
