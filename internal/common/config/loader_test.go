package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mentor-matcher/internal/common/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
input:
  path: survey.csv
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "survey.csv", cfg.Input.Path)
	assert.Equal(t, "Email", cfg.Input.Columns.Email)
	assert.Equal(t, "matches.xlsx", cfg.Output.Path)
	assert.Equal(t, "matching_response.txt", cfg.Output.RawResponsePath)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.Directory.BaseURL)
	assert.Equal(t, 8, cfg.Directory.Concurrency)
	assert.Equal(t, "azure", cfg.Completion.Provider)
	assert.Equal(t, "chat", cfg.Completion.Model)
	assert.Equal(t, "2023-05-15", cfg.Completion.APIVersion)
	assert.Equal(t, "enforce", cfg.Validation.Mode)
	assert.True(t, cfg.Validation.Enabled)
	assert.Equal(t, 1, cfg.Validation.DefaultCapacity)
	assert.Equal(t, "matching.log", cfg.Logging.File)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("MM_TEST_TOKEN", "graph-token")
	path := writeConfig(t, `
directory:
  access_token: ${MM_TEST_TOKEN}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "graph-token", cfg.Directory.AccessToken)
}

func TestLoadFromFile_LegacyCredentialVariables(t *testing.T) {
	t.Setenv("ACCESS_TOKEN", "legacy-token")
	t.Setenv("AZURE_OPENAI_KEY", "azure-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com/")
	path := writeConfig(t, "completion:\n  provider: azure\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", cfg.Directory.AccessToken)
	assert.Equal(t, "azure-key", cfg.Completion.APIKey)
	assert.Equal(t, "https://example.openai.azure.com/", cfg.Completion.Endpoint)
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	t.Setenv("COMPLETION_MODEL", "gpt-4o-mini")
	path := writeConfig(t, "completion:\n  provider: openai\n  model: gpt-4o\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown provider", "completion:\n  provider: bard\n"},
		{"unknown mode", "validation:\n  mode: strict\n"},
		{"negative concurrency", "directory:\n  concurrency: -1\n"},
		{"archive without host", "database:\n  postgres:\n    enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid))
			assert.Equal(t, 2, apperrors.ExitCode(err))
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "m", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=m sslmode=disable", p.GetDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, "1.5s", GetDuration(1500).String())
}
