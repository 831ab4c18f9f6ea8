package models

import "time"

// EventType is the kind of badge scan recorded in the attendance log.
type EventType string

const (
	EventSignIn  EventType = "sign-in"
	EventSignOut EventType = "sign-out"
)

// Valid reports whether the event type is supported.
func (e EventType) Valid() bool {
	return e == EventSignIn || e == EventSignOut
}

// AttendanceEvent is one append-only row in the attendance log. Rows are
// created by the recorder and never mutated or deleted.
type AttendanceEvent struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserType  UserType  `db:"user_type" json:"user_type"`
	EventType EventType `db:"event_type" json:"event_type"`
	Timestamp time.Time `db:"ts" json:"timestamp"`
}

// AttendanceRecordDetail joins the event with a read-time snapshot of user
// display fields. The join is per user_type, so a deleted user leaves the
// snapshot columns null rather than dropping the row.
type AttendanceRecordDetail struct {
	AttendanceEvent
	FirstName     *string `db:"first_name" json:"first_name,omitempty"`
	MiddleName    *string `db:"middle_name" json:"middle_name,omitempty"`
	LastName      *string `db:"last_name" json:"last_name,omitempty"`
	StudentNumber *string `db:"student_number" json:"student_number,omitempty"`
	Position      *string `db:"position" json:"position,omitempty"`
}

// AttendanceSummary is one derived per-user per-day row. It is computed by
// the aggregator and never persisted.
type AttendanceSummary struct {
	UserID        string     `json:"user_id"`
	UserType      UserType   `json:"user_type"`
	FirstName     *string    `json:"first_name,omitempty"`
	MiddleName    *string    `json:"middle_name,omitempty"`
	LastName      *string    `json:"last_name,omitempty"`
	StudentNumber *string    `json:"student_number,omitempty"`
	Position      *string    `json:"position,omitempty"`
	Date          string     `json:"date"`
	SignInTime    *time.Time `json:"sign_in_time"`
	SignOutTime   *time.Time `json:"sign_out_time"`
}
