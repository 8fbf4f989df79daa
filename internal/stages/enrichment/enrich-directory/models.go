// internal/stages/enrichment/enrich-directory/models.go
package enrichdirectory

import "mentor-matcher/internal/models"

type Input struct {
	Participants []*models.Participant `json:"participants"`
}

type Output struct {
	Participants      []*models.Participant `json:"participants"`
	UnresolvedRecords int                   `json:"unresolvedRecords"`
	UnresolvedFields  map[string]int        `json:"unresolvedFields"`
}

// graphUser is the part of a directory user object the enricher reads.
type graphUser struct {
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
	JobTitle          string `json:"jobTitle"`
}
