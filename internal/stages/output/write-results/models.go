// internal/stages/output/write-results/models.go
package writeresults

import "mentor-matcher/internal/models"

type Input struct {
	Matches *models.MatchSet
	Path    string
}

type Output struct {
	Path    string   `json:"path"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}
