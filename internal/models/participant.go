// internal/models/participant.go
package models

import "strings"

type Role string

const (
	RoleMentor  Role = "mentor"
	RoleMentee  Role = "mentee"
	RoleUnknown Role = ""
)

// Enrichment field names, used for unresolved tagging and log fields.
const (
	FieldManager     = "manager"
	FieldSkipManager = "skip_manager"
	FieldTitle       = "title"
)

// ParseRole reads a survey role cell. "mentee" is checked first because
// free-text answers such as "Mentee (looking for a mentor)" mention both.
func ParseRole(s string) Role {
	v := strings.ToLower(s)
	switch {
	case strings.Contains(v, "mentee"):
		return RoleMentee
	case strings.Contains(v, "mentor"):
		return RoleMentor
	default:
		return RoleUnknown
	}
}

// Participant is one survey response, later enriched from the directory.
type Participant struct {
	Email      string            `json:"email"`
	Role       Role              `json:"role"`
	Objectives string            `json:"objectives"`
	Details    string            `json:"details"`
	Capacity   *int              `json:"capacity,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`

	Manager     string `json:"manager"`
	SkipManager string `json:"skip_manager"`
	Title       string `json:"title"`

	Unresolved []string `json:"-"`
}

func (p *Participant) IsMentor() bool { return p.Role == RoleMentor }

func (p *Participant) IsMentee() bool { return p.Role == RoleMentee }

// EffectiveCapacity is the stated capacity, or def when the mentor left it blank.
// A stated 0 stays 0.
func (p *Participant) EffectiveCapacity(def int) int {
	if p.Capacity != nil {
		return *p.Capacity
	}
	return def
}

// CapacityOf returns a pointer for a stated capacity.
func CapacityOf(n int) *int {
	return &n
}

// ResetEnrichment clears directory fields so enrichment can be re-applied.
func (p *Participant) ResetEnrichment() {
	p.Manager = ""
	p.SkipManager = ""
	p.Title = ""
	p.Unresolved = nil
}

func (p *Participant) MarkUnresolved(field string) {
	if !p.IsUnresolved(field) {
		p.Unresolved = append(p.Unresolved, field)
	}
}

func (p *Participant) IsUnresolved(field string) bool {
	for _, f := range p.Unresolved {
		if f == field {
			return true
		}
	}
	return false
}

// Key normalizes an email for lookups; survey and model output differ in case.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IndexByEmail maps normalized email to participant. The first row wins on duplicates.
func IndexByEmail(participants []*Participant) map[string]*Participant {
	idx := make(map[string]*Participant, len(participants))
	for _, p := range participants {
		k := Key(p.Email)
		if _, ok := idx[k]; !ok {
			idx[k] = p
		}
	}
	return idx
}
