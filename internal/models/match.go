// internal/models/match.go
package models

import "strings"

// NoMatchSentinel is written in the mentor column for mentees left unpaired.
const NoMatchSentinel = "No match found"

const (
	ColMentor          = "mentor"
	ColMentee          = "mentee"
	ColReasonFor       = "reason_for"
	ColReasonAgainst   = "reason_against"
	ColAlignmentScore  = "alignment_score"
	ColOverCapacity    = "over_capacity"
	ColValidationNotes = "validation_notes"
)

// DefaultColumns is the column order used when the model returned no records.
var DefaultColumns = []string{
	ColMentor, ColMentee, ColReasonFor, ColReasonAgainst, ColAlignmentScore, ColOverCapacity,
}

type MatchRecord struct {
	Mentor        string
	Mentee        string
	ReasonFor     string
	ReasonAgainst string
	// AlignmentScore is nil when the model's value could not be read as a number;
	// RawScore then keeps the original text.
	AlignmentScore *float64
	RawScore       string
	OverCapacity   bool

	// Extras holds keys the model emitted beyond the known columns.
	Extras map[string]interface{}
	Notes  []string
}

func (r *MatchRecord) IsUnmatched() bool {
	return r.Mentor == NoMatchSentinel || r.Mentor == ""
}

// Unmatch turns the record into a "No match found" row and records why.
func (r *MatchRecord) Unmatch(note string) {
	r.Mentor = NoMatchSentinel
	zero := 0.0
	r.AlignmentScore = &zero
	r.RawScore = ""
	r.OverCapacity = false
	r.AddNote(note)
}

func (r *MatchRecord) AddNote(note string) {
	if note != "" {
		r.Notes = append(r.Notes, note)
	}
}

// Value returns the cell value for column.
func (r *MatchRecord) Value(column string) interface{} {
	switch column {
	case ColMentor:
		return r.Mentor
	case ColMentee:
		return r.Mentee
	case ColReasonFor:
		return r.ReasonFor
	case ColReasonAgainst:
		return r.ReasonAgainst
	case ColAlignmentScore:
		if r.AlignmentScore != nil {
			return *r.AlignmentScore
		}
		return r.RawScore
	case ColOverCapacity:
		return r.OverCapacity
	case ColValidationNotes:
		return strings.Join(r.Notes, "; ")
	default:
		return r.Extras[column]
	}
}

// MatchSet is the ordered list of match records plus the column order the
// model used.
type MatchSet struct {
	Columns []string
	Records []MatchRecord
}

func (s *MatchSet) HasNotes() bool {
	for i := range s.Records {
		if len(s.Records[i].Notes) > 0 {
			return true
		}
	}
	return false
}

// OutputColumns is Columns (or DefaultColumns when empty), plus
// validation_notes when any record carries notes.
func (s *MatchSet) OutputColumns() []string {
	cols := s.Columns
	if len(cols) == 0 {
		cols = DefaultColumns
	}
	out := append([]string(nil), cols...)
	if s.HasNotes() {
		has := false
		for _, c := range out {
			if c == ColValidationNotes {
				has = true
			}
		}
		if !has {
			out = append(out, ColValidationNotes)
		}
	}
	return out
}

// Counts returns matched and unmatched record counts.
func (s *MatchSet) Counts() (matched, unmatched int) {
	for i := range s.Records {
		if s.Records[i].IsUnmatched() {
			unmatched++
		} else {
			matched++
		}
	}
	return matched, unmatched
}
