// internal/stages/enrichment/enrich-directory/config.go
package enrichdirectory

import (
	"time"

	"mentor-matcher/internal/common/config"
)

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Concurrency int
	CacheTTL    time.Duration
}

func LoadConfig(app *config.Config) *Config {
	return &Config{
		BaseURL:     app.Directory.BaseURL,
		AccessToken: app.Directory.AccessToken,
		Timeout:     config.GetDuration(app.Directory.Timeout),
		MaxRetries:  app.Directory.MaxRetries,
		RetryDelay:  500 * time.Millisecond,
		Concurrency: app.Directory.Concurrency,
		CacheTTL:    config.GetDuration(app.Directory.CacheTTL),
	}
}
