// internal/stages/matching/parse-matches/models.go
package parsematches

import "mentor-matcher/internal/models"

type Input struct {
	Raw string `json:"raw"`
}

type Output struct {
	Matches  *models.MatchSet `json:"-"`
	Warnings []string         `json:"warnings,omitempty"`
}
