package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	msg    string
	fields map[string]interface{}
}

func (r *recordingLogger) Error(msg string, fields map[string]interface{}) {
	r.msg = msg
	r.fields = fields
}

func TestExitCode_PerTaxonomyEntry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", NewConfigError("bad provider"), 2},
		{"data access", NewDataAccessError("responses.xlsx", os.ErrNotExist), 3},
		{"auth", NewAuthError("directory", "token expired"), 4},
		{"match service", NewMatchServiceError(fmt.Errorf("503")), 5},
		{"match parse", NewMatchParseError("not json", nil), 6},
		{"result parse", NewResultParseError("nested value"), 7},
		{"result write", NewResultWriteError("matches.xlsx", os.ErrPermission), 8},
		{"plain error", fmt.Errorf("boom"), 1},
		{"wrapped auth", fmt.Errorf("enrich: %w", NewAuthError("directory", "401")), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestStandardError_UnwrapKeepsCause(t *testing.T) {
	err := NewDataAccessError("responses.xlsx", os.ErrNotExist)

	assert.True(t, stderrors.Is(err, os.ErrNotExist))
	assert.Equal(t, "responses.xlsx", err.Metadata["path"])
	assert.Contains(t, err.Error(), "DATA_ACCESS_ERROR")
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewMatchParseError("no array", nil))

	assert.True(t, HasCode(err, ErrCodeMatchParse))
	assert.False(t, HasCode(err, ErrCodeResultParse))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeMatchParse))
	assert.Equal(t, ErrCodeInternal, CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeAuth))
	assert.Equal(t, "IO", GetErrorCategory(ErrCodeDataAccess))
	assert.Equal(t, "IO", GetErrorCategory(ErrCodeResultWrite))
	assert.Equal(t, "DIRECTORY", GetErrorCategory(ErrCodeDirectoryLookup))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeMatchParse))
	assert.Equal(t, "DELIVERY", GetErrorCategory(ErrCodePublish))
	assert.True(t, IsRetryableErrorCode(ErrCodeDirectoryLookup))
	assert.False(t, IsRetryableErrorCode(ErrCodeAuth))
}

func TestErrorHandler_HandleRunError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	code := h.HandleRunError("run-1", NewAuthError("completion", "missing api key"))

	assert.Equal(t, 4, code)
	assert.Equal(t, "Run failed", log.msg)
	require.NotNil(t, log.fields)
	assert.Equal(t, "AUTH_ERROR", log.fields["errorCode"])
	assert.Equal(t, "completion", log.fields["service"])
	assert.Equal(t, "run-1", log.fields["runId"])
}

func TestErrorHandler_NormalizesPlainErrors(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	assert.Equal(t, 1, h.HandleRunError("run-2", fmt.Errorf("unexpected")))
	assert.Equal(t, "INTERNAL_ERROR", log.fields["errorCode"])
	assert.Equal(t, 0, h.HandleRunError("run-3", nil))
}
