// internal/stages/intake/load-participants/config.go
package loadparticipants

import "mentor-matcher/internal/common/config"

type Config struct {
	Sheet           string
	Columns         config.ColumnMapping
	DefaultCapacity int // fills a mentor's blank capacity cell; 0 leaves it unset
}

func LoadConfig(app *config.Config) *Config {
	return &Config{
		Sheet:           app.Input.Sheet,
		Columns:         app.Input.Columns,
		DefaultCapacity: app.Validation.DefaultCapacity,
	}
}
