// internal/stages/matching/validate-matches/models.go
package validatematches

import "mentor-matcher/internal/models"

type Input struct {
	Matches      *models.MatchSet
	Participants []*models.Participant
}

type Output struct {
	Matches *models.MatchSet
	// Violations counts findings per rule.
	Violations map[string]int
	Dropped    int
}

// Rule names, also used as the metric label.
const (
	RuleUnknownMentor   = "unknown_mentor"
	RuleUnknownMentee   = "unknown_mentee"
	RuleMentorRole      = "mentor_role"
	RuleSelfMatch       = "self_match"
	RuleDuplicateMentee = "duplicate_mentee"
	RuleSharedManager   = "shared_manager"
	RuleSeniority       = "seniority"
	RuleCapacity        = "capacity"
	RuleScoreRange      = "score_range"
	RuleOmittedMentee   = "omitted_mentee"
)
