// internal/stages/intake/load-participants/models.go
package loadparticipants

import "mentor-matcher/internal/models"

type Input struct {
	Path string `json:"path"`
}

type Output struct {
	Participants  []*models.Participant `json:"participants"`
	Mentors       int                   `json:"mentors"`
	Mentees       int                   `json:"mentees"`
	UnknownRole   int                   `json:"unknownRole"`
	InvalidEmails int                   `json:"invalidEmails"`
}
