// internal/stages/output/archive-run/models.go
package archiverun

import (
	"time"

	"mentor-matcher/internal/models"
)

// Input describes one finished run.
type Input struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	InputPath      string
	OutputPath     string
	Provider       string
	Model          string
	RubricVersion  string
	RubricChecksum string
	Participants   int
	Unresolved     int
	Matches        *models.MatchSet
}

type Output struct {
	RunID string `json:"runId"`
	Rows  int    `json:"rows"`
}
