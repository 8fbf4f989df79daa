// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "mentor-matcher/internal/common/errors"
)

var providers = map[string]bool{"azure": true, "openai": true, "gemini": true}

var validationModes = map[string]bool{"enforce": true, "annotate": true}

// Load reads configs/config.yaml (plus an APP_ENVIRONMENT overlay) and env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.NewConfigError(fmt.Sprintf("error reading base config: %v", err))
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read config file %s: %v", path, err))
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	registerKeys(v)
	return v
}

// registerKeys makes every leaf key known to viper so AutomaticEnv can
// override it (DIRECTORY_ACCESS_TOKEN, COMPLETION_API_KEY, ...).
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.name", "app.version", "app.environment",
		"input.path", "input.sheet",
		"input.columns.email", "input.columns.role", "input.columns.objectives",
		"input.columns.details", "input.columns.capacity",
		"output.path", "output.raw_response_path",
		"directory.base_url", "directory.access_token", "directory.timeout",
		"directory.max_retries", "directory.concurrency", "directory.cache_ttl",
		"completion.provider", "completion.endpoint", "completion.api_key",
		"completion.api_version", "completion.model", "completion.timeout",
		"completion.max_retries", "completion.temperature",
		"rubric.path",
		"validation.mode", "validation.default_capacity",
		"database.postgres.enabled", "database.postgres.host", "database.postgres.port",
		"database.postgres.database", "database.postgres.user", "database.postgres.password",
		"database.postgres.max_connections", "database.postgres.max_idle", "database.postgres.sslmode",
		"database.redis.address", "database.redis.password", "database.redis.db",
		"integrations.aws.region", "integrations.aws.s3.bucket", "integrations.aws.s3.prefix",
		"integrations.aws.s3.endpoint", "integrations.aws.ses.from_email",
		"metrics.pushgateway_url", "metrics.job",
		"logging.level", "logging.console_level", "logging.file",
	} {
		v.SetDefault(key, nil)
	}
	v.SetDefault("validation.enabled", true)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to unmarshal config: %v", err))
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, apperrors.NewConfigError(err.Error())
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig falls back to the credential variables the matching
// script has always been run with.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Directory.AccessToken == "" {
		cfg.Directory.AccessToken = os.Getenv("ACCESS_TOKEN")
	}

	switch cfg.Completion.Provider {
	case "azure":
		if cfg.Completion.APIKey == "" {
			cfg.Completion.APIKey = os.Getenv("AZURE_OPENAI_KEY")
		}
		if cfg.Completion.Endpoint == "" {
			cfg.Completion.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
		}
	case "openai":
		if cfg.Completion.APIKey == "" {
			cfg.Completion.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "gemini":
		if cfg.Completion.APIKey == "" {
			cfg.Completion.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}

	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "mentor-matcher"
	}

	if cfg.Input.Path == "" {
		cfg.Input.Path = "responses.xlsx"
	}
	cols := &cfg.Input.Columns
	if cols.Email == "" {
		cols.Email = "Email"
	}
	if cols.Role == "" {
		cols.Role = "Role"
	}
	if cols.Objectives == "" {
		cols.Objectives = "Objectives"
	}
	if cols.Details == "" {
		cols.Details = "Details"
	}
	if cols.Capacity == "" {
		cols.Capacity = "Capacity"
	}

	if cfg.Output.Path == "" {
		cfg.Output.Path = "matches.xlsx"
	}
	if cfg.Output.RawResponsePath == "" {
		cfg.Output.RawResponsePath = "matching_response.txt"
	}

	if cfg.Directory.BaseURL == "" {
		cfg.Directory.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if cfg.Directory.Timeout == 0 {
		cfg.Directory.Timeout = 10000
	}
	if cfg.Directory.MaxRetries == 0 {
		cfg.Directory.MaxRetries = 2
	}
	if cfg.Directory.Concurrency == 0 {
		cfg.Directory.Concurrency = 8
	}
	if cfg.Directory.CacheTTL == 0 {
		cfg.Directory.CacheTTL = 3600000
	}

	if cfg.Completion.Provider == "" {
		cfg.Completion.Provider = "azure"
	}
	if cfg.Completion.APIVersion == "" {
		cfg.Completion.APIVersion = "2023-05-15"
	}
	if cfg.Completion.Model == "" {
		switch cfg.Completion.Provider {
		case "gemini":
			cfg.Completion.Model = "gemini-2.5-pro"
		case "openai":
			cfg.Completion.Model = "gpt-4o"
		default:
			cfg.Completion.Model = "chat"
		}
	}
	if cfg.Completion.Timeout == 0 {
		cfg.Completion.Timeout = 120000
	}

	if cfg.Validation.Mode == "" {
		cfg.Validation.Mode = "enforce"
	}
	if cfg.Validation.DefaultCapacity == 0 {
		cfg.Validation.DefaultCapacity = 1
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "us-east-1"
	}

	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "mentor-matcher"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	if cfg.Logging.ConsoleLevel == "" {
		cfg.Logging.ConsoleLevel = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = "matching.log"
	}
}

// validateConfig validates critical configuration fields. Credentials are
// checked at pipeline pre-flight so that they surface as auth failures.
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Input.Path) == "" {
		return fmt.Errorf("input.path is required")
	}
	if strings.TrimSpace(cfg.Output.Path) == "" {
		return fmt.Errorf("output.path is required")
	}
	if !providers[cfg.Completion.Provider] {
		return fmt.Errorf("completion.provider %q is not one of azure, openai, gemini", cfg.Completion.Provider)
	}
	if !validationModes[cfg.Validation.Mode] {
		return fmt.Errorf("validation.mode %q is not one of enforce, annotate", cfg.Validation.Mode)
	}
	if cfg.Directory.Concurrency < 0 {
		return fmt.Errorf("directory.concurrency must be positive")
	}
	if cfg.Directory.MaxRetries < 0 || cfg.Completion.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if cfg.Validation.DefaultCapacity < 0 {
		return fmt.Errorf("validation.default_capacity must not be negative")
	}
	if cfg.Database.Postgres.Enabled && (cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "") {
		return fmt.Errorf("database.postgres.host and database.postgres.database are required when the archive is enabled")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
