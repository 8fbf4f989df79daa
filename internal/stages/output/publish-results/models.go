// internal/stages/output/publish-results/models.go
package publishresults

type Input struct {
	RunID         string
	Path          string
	RubricVersion string
	Participants  int
	Unresolved    int
	Matched       int
	Unmatched     int
	Violations    int
}

type Output struct {
	ObjectKey string `json:"objectKey,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}
