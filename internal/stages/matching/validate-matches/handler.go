// internal/stages/matching/validate-matches/handler.go
package validatematches

import (
	"context"
	"fmt"

	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/common/metrics"
	"mentor-matcher/internal/models"
)

const (
	TaskType = "validate-matches"
)

type Handler struct {
	config  *Config
	metrics *metrics.Metrics
	logger  logger.Logger
}

func NewHandler(config *Config, m *metrics.Metrics, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		metrics: m,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// run carries the per-execution state; records are checked in model order.
type run struct {
	enforce    bool
	defaultCap int
	index      map[string]*models.Participant
	seen       map[string]bool
	load       map[string]int
	violations map[string]int
}

// Execute checks every record against the participant set. In enforce mode
// violating records are turned into "No match found" rows (or dropped when
// the mentee itself is invalid); in annotate mode they are only noted.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	r := &run{
		enforce:    h.config.Mode != ModeAnnotate,
		defaultCap: h.config.DefaultCapacity,
		index:      models.IndexByEmail(input.Participants),
		seen:       make(map[string]bool),
		load:       make(map[string]int),
		violations: make(map[string]int),
	}

	out := &Output{
		Matches:    &models.MatchSet{},
		Violations: r.violations,
	}
	if input.Matches != nil {
		out.Matches.Columns = append([]string(nil), input.Matches.Columns...)
		for _, in := range input.Matches.Records {
			rec := in
			rec.Notes = append([]string(nil), in.Notes...)
			if keep := r.check(&rec); !keep {
				out.Dropped++
				continue
			}
			out.Matches.Records = append(out.Matches.Records, rec)
		}
	}

	for _, p := range input.Participants {
		if !p.IsMentee() || r.seen[models.Key(p.Email)] {
			continue
		}
		r.seen[models.Key(p.Email)] = true
		rec := models.MatchRecord{Mentee: p.Email}
		rec.Unmatch("mentee missing from model output")
		r.violations[RuleOmittedMentee]++
		out.Matches.Records = append(out.Matches.Records, rec)
	}

	total := 0
	for rule, n := range r.violations {
		total += n
		if h.metrics != nil {
			h.metrics.ValidationViolations.WithLabelValues(rule).Add(float64(n))
		}
	}
	matched, unmatched := out.Matches.Counts()

	fields := map[string]interface{}{
		"mode":       h.config.Mode,
		"violations": total,
		"dropped":    out.Dropped,
		"matched":    matched,
		"unmatched":  unmatched,
	}
	if total > 0 {
		fields["byRule"] = r.violations
		h.logger.Warn("Match validation found violations", fields)
	} else {
		h.logger.Info("Match validation passed", fields)
	}
	return out, nil
}

// check validates one record in place and reports whether it stays in the set.
func (r *run) check(rec *models.MatchRecord) bool {
	menteeKey := models.Key(rec.Mentee)
	mentee, ok := r.index[menteeKey]
	switch {
	case !ok:
		return r.reject(rec, RuleUnknownMentee, fmt.Sprintf("mentee %s is not a survey participant", rec.Mentee))
	case !mentee.IsMentee():
		return r.reject(rec, RuleUnknownMentee, fmt.Sprintf("%s did not sign up as a mentee", rec.Mentee))
	case r.seen[menteeKey]:
		return r.reject(rec, RuleDuplicateMentee, fmt.Sprintf("mentee %s already has a record", rec.Mentee))
	}
	r.seen[menteeKey] = true

	if rec.IsUnmatched() {
		rec.Mentor = models.NoMatchSentinel
		return true
	}

	mentorKey := models.Key(rec.Mentor)
	mentor, ok := r.index[mentorKey]
	switch {
	case !ok:
		r.violate(rec, RuleUnknownMentor, fmt.Sprintf("mentor %s is not a survey participant", rec.Mentor))
		return true
	case mentorKey == menteeKey:
		r.violate(rec, RuleSelfMatch, "mentor and mentee are the same person")
		return true
	case !mentor.IsMentor():
		r.violate(rec, RuleMentorRole, fmt.Sprintf("%s did not sign up as a mentor", rec.Mentor))
		return true
	}

	if mentor.Manager != "" && models.Key(mentor.Manager) == models.Key(mentee.Manager) {
		if r.violate(rec, RuleSharedManager, fmt.Sprintf("mentor and mentee share manager %s", mentor.Manager)) {
			return true
		}
	}

	if senior, checked := outranks(mentor.Title, mentee.Title); checked && !senior {
		note := fmt.Sprintf("mentor title %q is not senior to mentee title %q", mentor.Title, mentee.Title)
		if r.violate(rec, RuleSeniority, note) {
			return true
		}
	}

	if rec.AlignmentScore != nil && (*rec.AlignmentScore < 0 || *rec.AlignmentScore > 10) {
		r.violations[RuleScoreRange]++
		note := fmt.Sprintf("alignment score %g outside 0-10", *rec.AlignmentScore)
		if r.enforce {
			clamped := clamp(*rec.AlignmentScore)
			rec.AlignmentScore = &clamped
		}
		rec.AddNote(note)
	}

	// The model's over_capacity flag is replaced by the local count in both modes.
	capacity := mentor.EffectiveCapacity(r.defaultCap)
	rec.OverCapacity = r.load[mentorKey] >= capacity
	if rec.OverCapacity {
		r.violations[RuleCapacity]++
		note := fmt.Sprintf("mentor %s is already at capacity %d", rec.Mentor, capacity)
		if r.enforce {
			rec.Unmatch(note)
			return true
		}
		rec.AddNote(note)
	}
	r.load[mentorKey]++
	return true
}

// violate records a finding; in enforce mode the record is unmatched and
// violate returns true so no further rules are applied to it.
func (r *run) violate(rec *models.MatchRecord, rule, note string) bool {
	r.violations[rule]++
	if r.enforce {
		rec.Unmatch(note)
		return true
	}
	rec.AddNote(note)
	return false
}

// reject handles records whose mentee is invalid: dropped when enforcing,
// kept with a note otherwise.
func (r *run) reject(rec *models.MatchRecord, rule, note string) bool {
	r.violations[rule]++
	if r.enforce {
		return false
	}
	rec.AddNote(note)
	return true
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
