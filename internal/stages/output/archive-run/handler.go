// internal/stages/output/archive-run/handler.go
package archiverun

import (
	"context"
	"database/sql"
	"fmt"

	"mentor-matcher/internal/common/database"
	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/models"
)

const (
	TaskType = "archive-run"
)

type Handler struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewHandler(db *database.PostgresClient, log logger.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// EnsureSchema creates the archive tables when they do not exist.
func (h *Handler) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := h.db.Exec(ctx, stmt); err != nil {
			return apperrors.NewArchiveError(fmt.Errorf("ensure schema: %w", err))
		}
	}
	return nil
}

// Execute stores the run and its match rows in a single transaction.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	set := input.Matches
	if set == nil {
		set = &models.MatchSet{}
	}
	matched, unmatched := set.Counts()

	err := h.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertRun,
			input.RunID, input.StartedAt, input.FinishedAt, input.InputPath, input.OutputPath,
			input.Provider, input.Model, input.RubricVersion, input.RubricChecksum,
			input.Participants, input.Unresolved, matched, unmatched,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for i := range set.Records {
			rec := &set.Records[i]
			score := sql.NullFloat64{}
			if rec.AlignmentScore != nil {
				score = sql.NullFloat64{Float64: *rec.AlignmentScore, Valid: true}
			}
			notes, _ := rec.Value(models.ColValidationNotes).(string)

			if _, err := tx.ExecContext(ctx, insertMatch,
				input.RunID, i+1, rec.Mentor, rec.Mentee, rec.ReasonFor, rec.ReasonAgainst,
				score, rec.OverCapacity, notes,
			); err != nil {
				return fmt.Errorf("insert match %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewArchiveError(err)
	}

	h.logger.Info("Run archived", map[string]interface{}{
		"runId": input.RunID,
		"rows":  len(set.Records),
	})
	return &Output{RunID: input.RunID, Rows: len(set.Records)}, nil
}
