package models

import (
	"errors"
	"strings"
	"time"
)

// RSVP is a single guest response as persisted by the response store.
type RSVP struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Attending bool      `json:"attending"`
	CreatedAt time.Time `json:"created_at"`
}

// Attendance represents the guest's answer to the invitation
type Attendance string

const (
	AttendanceYes Attendance = "yes"
	AttendanceNo  Attendance = "no"
)

// ErrInvalidAttendance is returned for any answer other than yes or no.
var ErrInvalidAttendance = errors.New("attendance must be \"yes\" or \"no\"")

// ParseAttendance parses a guest-supplied answer. Surrounding whitespace and
// letter case are ignored.
func ParseAttendance(value string) (Attendance, error) {
	switch Attendance(strings.ToLower(strings.TrimSpace(value))) {
	case AttendanceYes:
		return AttendanceYes, nil
	case AttendanceNo:
		return AttendanceNo, nil
	}
	return "", ErrInvalidAttendance
}

// Attending reports whether the answer is a yes.
func (a Attendance) Attending() bool {
	return a == AttendanceYes
}

// AttendanceOf maps a stored flag back to its answer.
func AttendanceOf(attending bool) Attendance {
	if attending {
		return AttendanceYes
	}
	return AttendanceNo
}

// Event describes the celebration the RSVPs are collected for.
type Event struct {
	BrideName string
	GroomName string
	Date      string
	Location  string
}

// Couple returns the display name used in headings and messages.
func (e Event) Couple() string {
	return e.GroomName + " & " + e.BrideName
}
