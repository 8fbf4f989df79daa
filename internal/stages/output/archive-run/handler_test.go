// internal/stages/output/archive-run/handler_test.go
package archiverun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-matcher/internal/common/database"
	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/models"
)

func newMock(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(database.NewPostgresFromDB(db), logger.NewTestLogger(t)), mock
}

func createTestInput() *Input {
	eight := 8.0
	rec := models.MatchRecord{Mentor: "ada@contoso.com", Mentee: "ed@contoso.com", ReasonFor: "goals", AlignmentScore: &eight}
	unmatched := models.MatchRecord{Mentee: "fay@contoso.com"}
	unmatched.Unmatch("mentee missing from model output")

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &Input{
		RunID:          "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		StartedAt:      now,
		FinishedAt:     now.Add(time.Minute),
		InputPath:      "responses.xlsx",
		OutputPath:     "matches.xlsx",
		Provider:       "azure",
		Model:          "chat",
		RubricVersion:  "2",
		RubricChecksum: "abcdef012345",
		Participants:   3,
		Unresolved:     1,
		Matches:        &models.MatchSet{Records: []models.MatchRecord{rec, unmatched}},
	}
}

func TestEnsureSchema(t *testing.T) {
	h, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS mentorship_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS mentorship_matches").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, h.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_Error(t *testing.T) {
	h, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err := h.EnsureSchema(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArchive))
}

func TestExecute_InsertsRunAndMatches(t *testing.T) {
	h, mock := newMock(t)
	input := createTestInput()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO mentorship_runs").
		WithArgs(input.RunID, sqlmock.AnyArg(), sqlmock.AnyArg(), "responses.xlsx", "matches.xlsx",
			"azure", "chat", "2", "abcdef012345", 3, 1, 1, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mentorship_matches").
		WithArgs(input.RunID, 1, "ada@contoso.com", "ed@contoso.com", "goals", "", 8.0, false, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mentorship_matches").
		WithArgs(input.RunID, 2, models.NoMatchSentinel, "fay@contoso.com", "", "", 0.0, false,
			"mentee missing from model output").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RollsBackOnFailure(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO mentorship_runs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mentorship_matches").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	out, err := h.Execute(context.Background(), createTestInput())
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArchive))
	assert.Contains(t, err.Error(), "insert match 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
