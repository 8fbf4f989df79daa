// internal/stages/matching/validate-matches/config.go
package validatematches

import "mentor-matcher/internal/common/config"

const (
	ModeEnforce  = "enforce"
	ModeAnnotate = "annotate"
)

type Config struct {
	Mode            string
	DefaultCapacity int
}

func LoadConfig(app *config.Config) *Config {
	return &Config{
		Mode:            app.Validation.Mode,
		DefaultCapacity: app.Validation.DefaultCapacity,
	}
}
