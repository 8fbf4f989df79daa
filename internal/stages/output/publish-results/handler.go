// internal/stages/output/publish-results/handler.go
package publishresults

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
)

const (
	TaskType = "publish-results"
)

type Uploader interface {
	UploadFile(ctx context.Context, bucket, key, path, contentType string) error
}

type Mailer interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

type Handler struct {
	config   *Config
	uploader Uploader
	mailer   Mailer
	logger   logger.Logger
}

// NewHandler wires the optional delivery clients. A nil uploader or mailer
// disables that half of the stage.
func NewHandler(config *Config, uploader Uploader, mailer Mailer, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		uploader: uploader,
		mailer:   mailer,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute uploads the output file and mails a run summary. Both steps are
// attempted; the first failure is returned alongside whatever succeeded.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{}
	var firstErr error

	if h.uploader != nil && h.config.UploadEnabled() {
		key := ObjectKey(h.config.Prefix, input.RunID, input.Path)
		if err := h.uploader.UploadFile(ctx, h.config.Bucket, key, input.Path, contentType(input.Path)); err != nil {
			firstErr = apperrors.NewPublishError("s3", err)
			h.logger.Warn("Upload failed", map[string]interface{}{"bucket": h.config.Bucket, "key": key, "error": err.Error()})
		} else {
			out.ObjectKey = key
			h.logger.Info("Matches uploaded", map[string]interface{}{"bucket": h.config.Bucket, "key": key})
		}
	}

	if h.mailer != nil && h.config.NotifyEnabled() {
		subject := fmt.Sprintf("Mentorship matches ready (run %s)", input.RunID)
		id, err := h.mailer.SendText(ctx, h.config.FromEmail, h.config.Recipients, subject, h.summary(input, out))
		if err != nil {
			if firstErr == nil {
				firstErr = apperrors.NewPublishError("ses", err)
			}
			h.logger.Warn("Summary email failed", map[string]interface{}{"error": err.Error()})
		} else {
			out.MessageID = id
			h.logger.Info("Summary email sent", map[string]interface{}{"messageId": id, "recipients": len(h.config.Recipients)})
		}
	}

	return out, firstErr
}

// ObjectKey is <prefix>/<run-id>/<file name>.
func ObjectKey(prefix, runID, filePath string) string {
	return path.Join(strings.Trim(prefix, "/"), runID, filepath.Base(filePath))
}

func (h *Handler) summary(input *Input, out *Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished.\n\n", input.RunID)
	fmt.Fprintf(&b, "Participants:          %d\n", input.Participants)
	fmt.Fprintf(&b, "Unresolved directory:  %d\n", input.Unresolved)
	fmt.Fprintf(&b, "Matched mentees:       %d\n", input.Matched)
	fmt.Fprintf(&b, "Unmatched mentees:     %d\n", input.Unmatched)
	fmt.Fprintf(&b, "Validation findings:   %d\n", input.Violations)
	fmt.Fprintf(&b, "Rubric version:        %s\n\n", input.RubricVersion)
	if out.ObjectKey != "" {
		fmt.Fprintf(&b, "Results: s3://%s/%s\n", h.config.Bucket, out.ObjectKey)
	} else {
		fmt.Fprintf(&b, "Results: %s\n", input.Path)
	}
	return b.String()
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".csv":
		return "text/csv"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}
