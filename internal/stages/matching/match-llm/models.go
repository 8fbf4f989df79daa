// internal/stages/matching/match-llm/models.go
package matchllm

import (
	"time"

	"mentor-matcher/internal/models"
	"mentor-matcher/pkg/rubric"
)

type Input struct {
	Participants []*models.Participant `json:"participants"`
	Rubric       *rubric.Rubric        `json:"-"`
}

type Output struct {
	Raw      string        `json:"raw"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Duration time.Duration `json:"duration"`
}
