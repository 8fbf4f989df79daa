// internal/stages/enrichment/enrich-directory/handler.go
package enrichdirectory

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/common/metrics"
	"mentor-matcher/internal/models"
)

const (
	TaskType = "enrich-directory"
)

type Handler struct {
	config    *Config
	directory Directory
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewHandler builds the enricher. m may be nil.
func NewHandler(config *Config, directory Directory, m *metrics.Metrics, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		directory: directory,
		metrics:   m,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute resolves manager, skip-manager and title for every participant on
// a bounded pool. Each task writes only its own record. Lookup failures tag
// the field unresolved; an auth failure cancels the remaining work.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	h.logger.Info("Pre-processing participants", map[string]interface{}{
		"count":       len(input.Participants),
		"concurrency": h.concurrency(),
	})

	p := pool.New().
		WithMaxGoroutines(h.concurrency()).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for _, participant := range input.Participants {
		participant := participant
		p.Go(func(ctx context.Context) error {
			return h.enrich(ctx, participant)
		})
	}

	if err := p.Wait(); err != nil {
		h.logger.Error("enrichment aborted", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Output{
		Participants:     input.Participants,
		UnresolvedFields: map[string]int{},
	}
	for _, participant := range input.Participants {
		if len(participant.Unresolved) == 0 {
			continue
		}
		out.UnresolvedRecords++
		for _, f := range participant.Unresolved {
			out.UnresolvedFields[f]++
		}
	}
	if h.metrics != nil {
		h.metrics.UnresolvedParticipants.Set(float64(out.UnresolvedRecords))
	}

	fields := map[string]interface{}{
		"count":      len(input.Participants),
		"unresolved": out.UnresolvedRecords,
	}
	if out.UnresolvedRecords > 0 {
		fields["unresolvedFields"] = out.UnresolvedFields
		h.logger.Warn("Done pre-processing participants with unresolved records", fields)
	} else {
		h.logger.Info("Done pre-processing participants", fields)
	}
	return out, nil
}

func (h *Handler) enrich(ctx context.Context, p *models.Participant) error {
	p.ResetEnrichment()

	manager, err := h.directory.Manager(ctx, p.Email)
	h.count(models.FieldManager, err)
	if err != nil {
		if fatal(err) {
			return err
		}
		h.unresolved(p, err, models.FieldManager, models.FieldSkipManager)
	} else {
		p.Manager = manager
		if manager != "" {
			skip, err := h.directory.Manager(ctx, manager)
			h.count(models.FieldSkipManager, err)
			if err != nil {
				if fatal(err) {
					return err
				}
				h.unresolved(p, err, models.FieldSkipManager)
			} else {
				p.SkipManager = skip
			}
		}
	}

	title, err := h.directory.Title(ctx, p.Email)
	h.count(models.FieldTitle, err)
	if err != nil {
		if fatal(err) {
			return err
		}
		h.unresolved(p, err, models.FieldTitle)
	} else {
		p.Title = title
	}

	h.logger.Debug("participant enriched", map[string]interface{}{
		"email":       p.Email,
		"manager":     p.Manager,
		"skipManager": p.SkipManager,
		"title":       p.Title,
	})
	return nil
}

func fatal(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeAuth)
}

func (h *Handler) unresolved(p *models.Participant, err error, fields ...string) {
	for _, f := range fields {
		p.MarkUnresolved(f)
	}
	h.logger.Warn("directory lookup failed", map[string]interface{}{
		"email":  p.Email,
		"fields": fields,
		"error":  err.Error(),
	})
}

func (h *Handler) count(kind string, err error) {
	if h.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case fatal(err):
		result = "auth_error"
	default:
		result = "error"
	}
	h.metrics.DirectoryLookups.WithLabelValues(kind, result).Inc()
}

func (h *Handler) concurrency() int {
	if h.config.Concurrency > 0 {
		return h.config.Concurrency
	}
	return 1
}
