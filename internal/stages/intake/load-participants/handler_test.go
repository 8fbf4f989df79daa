// internal/stages/intake/load-participants/handler_test.go
package loadparticipants

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mentor-matcher/internal/common/config"
	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/models"
)

func createTestConfig() *Config {
	return &Config{Columns: config.ColumnMapping{
		Email:      "Email",
		Role:       "Role",
		Objectives: "Objectives",
		Details:    "Details",
		Capacity:   "Capacity",
	}}
}

func createHandler(t *testing.T) *Handler {
	return NewHandler(createTestConfig(), logger.NewTestLogger(t))
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "responses.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExecute_WorkbookPreservesCountAndOrder(t *testing.T) {
	path := writeWorkbook(t, "Form1", [][]interface{}{
		{"Email", "Role", "Objectives", "Details", "Capacity", "Location"},
		{"m1@contoso.com", "Mentor", "Career growth", "10 years in infra", 2, "Seattle"},
		{"e1@contoso.com", "Mentee", "Career growth", "New to infra"},
		{"m2@contoso.com", "mentor", "Public speaking", "", "1"},
		{"e2@contoso.com", "I want to be a mentee", "Public speaking", ""},
	})

	out, err := createHandler(t).Execute(context.Background(), &Input{Path: path})
	require.NoError(t, err)

	require.Len(t, out.Participants, 4)
	emails := []string{}
	for _, p := range out.Participants {
		emails = append(emails, p.Email)
	}
	assert.Equal(t, []string{"m1@contoso.com", "e1@contoso.com", "m2@contoso.com", "e2@contoso.com"}, emails)

	m1 := out.Participants[0]
	assert.Equal(t, models.RoleMentor, m1.Role)
	require.NotNil(t, m1.Capacity)
	assert.Equal(t, 2, *m1.Capacity)
	assert.Equal(t, "Seattle", m1.Attributes["Location"])
	assert.Equal(t, models.RoleMentee, out.Participants[3].Role)
	assert.Equal(t, models.CapacityOf(1), out.Participants[2].Capacity)
	assert.Nil(t, out.Participants[1].Capacity)
	assert.Equal(t, 2, out.Mentors)
	assert.Equal(t, 2, out.Mentees)
}

func TestExecute_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Responses", [][]interface{}{
		{"email", "role"},
		{"a@contoso.com", "Mentor"},
	})

	cfg := createTestConfig()
	cfg.Sheet = "Responses"
	out, err := NewHandler(cfg, logger.NewNoOpLogger()).Execute(context.Background(), &Input{Path: path})
	require.NoError(t, err)
	require.Len(t, out.Participants, 1)
	assert.Equal(t, "a@contoso.com", out.Participants[0].Email)
}

func TestExecute_CSVSkipsBlankRowsAndPads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	body := "\ufeffEmail,Role,Objectives,Details,Capacity\n" +
		"m@contoso.com,Mentor,Leadership,Manages a team,3\n" +
		",,,,\n" +
		"e@contoso.com,Mentee\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	out, err := createHandler(t).Execute(context.Background(), &Input{Path: path})
	require.NoError(t, err)

	require.Len(t, out.Participants, 2)
	assert.Equal(t, models.CapacityOf(3), out.Participants[0].Capacity)
	assert.Equal(t, "e@contoso.com", out.Participants[1].Email)
	assert.Empty(t, out.Participants[1].Objectives)
}

func TestExecute_InvalidCapacityAndEmailStillLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	body := "Email,Role,Capacity\nnot-an-email,Mentor,lots\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	out, err := createHandler(t).Execute(context.Background(), &Input{Path: path})
	require.NoError(t, err)
	require.Len(t, out.Participants, 1)
	assert.Nil(t, out.Participants[0].Capacity)
	assert.Equal(t, 1, out.InvalidEmails)
}

func TestExecute_StatedZeroCapacityIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	body := "Email,Role,Capacity\n" +
		"busy@contoso.com,Mentor,0\n" +
		"open@contoso.com,Mentor,\n" +
		"vague@contoso.com,Mentor,lots\n" +
		"e@contoso.com,Mentee,4\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := createTestConfig()
	cfg.DefaultCapacity = 1
	out, err := NewHandler(cfg, logger.NewTestLogger(t)).Execute(context.Background(), &Input{Path: path})
	require.NoError(t, err)
	require.Len(t, out.Participants, 4)

	assert.Equal(t, models.CapacityOf(0), out.Participants[0].Capacity)
	assert.Equal(t, models.CapacityOf(1), out.Participants[1].Capacity)
	assert.Equal(t, models.CapacityOf(1), out.Participants[2].Capacity)
	assert.Nil(t, out.Participants[3].Capacity)
}

func TestExecute_DataAccessErrors(t *testing.T) {
	dir := t.TempDir()
	noEmail := filepath.Join(dir, "no_email.csv")
	require.NoError(t, os.WriteFile(noEmail, []byte("Name,Role\nAda,Mentor\n"), 0o644))
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	unsupported := filepath.Join(dir, "responses.json")
	require.NoError(t, os.WriteFile(unsupported, []byte("[]"), 0o644))
	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.xlsx")},
		{"no email column", noEmail},
		{"empty file", empty},
		{"unsupported extension", unsupported},
		{"corrupt workbook", corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createHandler(t).Execute(context.Background(), &Input{Path: tt.path})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDataAccess))
			assert.Equal(t, 3, apperrors.ExitCode(err))
		})
	}
}

func TestExecute_MissingSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{{"Email"}, {"a@contoso.com"}})
	cfg := createTestConfig()
	cfg.Sheet = "Nope"

	_, err := NewHandler(cfg, logger.NewNoOpLogger()).Execute(context.Background(), &Input{Path: path})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDataAccess))
}

func TestParseCapacity(t *testing.T) {
	n, err := parseCapacity("2.0")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = parseCapacity("1.5")
	assert.Error(t, err)
	_, err = parseCapacity("-1")
	assert.Error(t, err)
}
