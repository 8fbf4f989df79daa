// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Input        InputConfig       `mapstructure:"input"`
	Output       OutputConfig      `mapstructure:"output"`
	Directory    DirectoryConfig   `mapstructure:"directory"`
	Completion   CompletionConfig  `mapstructure:"completion"`
	Rubric       RubricConfig      `mapstructure:"rubric"`
	Validation   ValidationConfig  `mapstructure:"validation"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Metrics      MetricsConfig     `mapstructure:"metrics"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// InputConfig locates the survey responses and names their columns.
type InputConfig struct {
	Path    string        `mapstructure:"path"`
	Sheet   string        `mapstructure:"sheet"`
	Columns ColumnMapping `mapstructure:"columns"`
}

type ColumnMapping struct {
	Email      string `mapstructure:"email"`
	Role       string `mapstructure:"role"`
	Objectives string `mapstructure:"objectives"`
	Details    string `mapstructure:"details"`
	Capacity   string `mapstructure:"capacity"`
}

type OutputConfig struct {
	Path            string `mapstructure:"path"`
	RawResponsePath string `mapstructure:"raw_response_path"`
}

// DirectoryConfig configures the organizational directory lookups.
type DirectoryConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"access_token"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
	MaxRetries  int    `mapstructure:"max_retries"`
	Concurrency int    `mapstructure:"concurrency"`
	CacheTTL    int    `mapstructure:"cache_ttl"` // milliseconds
}

// CompletionConfig configures the chat-completion endpoint.
type CompletionConfig struct {
	Provider    string  `mapstructure:"provider"` // azure | openai | gemini
	Endpoint    string  `mapstructure:"endpoint"`
	APIKey      string  `mapstructure:"api_key"`
	APIVersion  string  `mapstructure:"api_version"`
	Model       string  `mapstructure:"model"` // deployment name for azure
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float64 `mapstructure:"temperature"`
}

type RubricConfig struct {
	Path string `mapstructure:"path"`
}

type ValidationConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Mode            string `mapstructure:"mode"` // enforce | annotate
	DefaultCapacity int    `mapstructure:"default_capacity"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntegrationConfig holds settings for delivery of the finished match sheet.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		S3     struct {
			Bucket   string `mapstructure:"bucket"`
			Prefix   string `mapstructure:"prefix"`
			Endpoint string `mapstructure:"endpoint"`
		} `mapstructure:"s3"`
		SES struct {
			FromEmail  string   `mapstructure:"from_email"`
			Recipients []string `mapstructure:"recipients"`
		} `mapstructure:"ses"`
	} `mapstructure:"aws"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`         // file threshold
	ConsoleLevel string `mapstructure:"console_level"` // stdout threshold
	File         string `mapstructure:"file"`
}
