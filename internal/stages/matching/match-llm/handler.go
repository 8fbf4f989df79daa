// internal/stages/matching/match-llm/handler.go
package matchllm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
)

const (
	TaskType = "match-llm"
)

type Handler struct {
	config   *Config
	provider Provider
	logger   logger.Logger
}

func NewHandler(config *Config, provider Provider, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		provider: provider,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute sends the rubric and the participant set in a single request and
// returns the raw completion text.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Rubric == nil {
		return nil, apperrors.NewConfigError("matching rubric not loaded")
	}

	payload, err := json.Marshal(input.Participants)
	if err != nil {
		return nil, fmt.Errorf("serialize participants: %w", err)
	}
	h.logger.Debug("Preprocess data", map[string]interface{}{"payload": string(payload)})

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	h.logger.Info("Requesting matches", map[string]interface{}{
		"provider":      h.provider.Name(),
		"model":         h.config.Model,
		"participants":  len(input.Participants),
		"rubricVersion": input.Rubric.Version,
	})

	start := time.Now()
	raw, err := h.provider.Complete(ctx, input.Rubric.System, string(payload))
	elapsed := time.Since(start)
	if err != nil {
		var stdErr *apperrors.StandardError
		if !errors.As(err, &stdErr) {
			err = apperrors.NewMatchServiceError(err)
		}
		h.logger.Error("completion request failed", map[string]interface{}{
			"error":      err.Error(),
			"durationMs": elapsed.Milliseconds(),
		})
		return nil, err
	}

	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewMatchServiceError(errors.New("completion returned empty content"))
	}

	h.logger.Debug("Matching response", map[string]interface{}{"response": raw})
	h.logger.Info("Matches received", map[string]interface{}{
		"durationMs": elapsed.Milliseconds(),
		"length":     len(raw),
	})

	return &Output{
		Raw:      raw,
		Provider: h.provider.Name(),
		Model:    h.config.Model,
		Duration: elapsed,
	}, nil
}
