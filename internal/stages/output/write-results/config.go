// internal/stages/output/write-results/config.go
package writeresults

import "mentor-matcher/internal/common/config"

const DefaultSheet = "Matches"

type Config struct {
	Sheet string
}

func LoadConfig(_ *config.Config) *Config {
	return &Config{Sheet: DefaultSheet}
}
