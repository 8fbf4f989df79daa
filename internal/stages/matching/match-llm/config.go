// internal/stages/matching/match-llm/config.go
package matchllm

import (
	"time"

	"mentor-matcher/internal/common/config"
)

type Config struct {
	Provider    string
	Endpoint    string
	APIKey      string
	APIVersion  string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

func LoadConfig(app *config.Config) *Config {
	c := app.Completion
	return &Config{
		Provider:    c.Provider,
		Endpoint:    c.Endpoint,
		APIKey:      c.APIKey,
		APIVersion:  c.APIVersion,
		Model:       c.Model,
		Timeout:     config.GetDuration(c.Timeout),
		MaxRetries:  c.MaxRetries,
		Temperature: c.Temperature,
	}
}
