package models

import "time"

// ClassState is the lifecycle state of a booked class.
type ClassState string

const (
	ClassScheduled   ClassState = "scheduled"
	ClassExecuted    ClassState = "executed"
	ClassCancelled   ClassState = "cancelled"
	ClassRescheduled ClassState = "rescheduled"
)

// ParseClassState validates a raw state value.
func ParseClassState(raw string) (ClassState, bool) {
	switch ClassState(raw) {
	case ClassScheduled, ClassExecuted, ClassCancelled, ClassRescheduled:
		return ClassState(raw), true
	}
	return "", false
}

// classTransitions is the closed transition table. Executing an already
// executed class is accepted as a no-op so the room release stays idempotent.
var classTransitions = map[ClassState]map[ClassState]bool{
	ClassScheduled: {
		ClassExecuted:  true,
		ClassCancelled: true,
	},
	ClassExecuted: {
		ClassExecuted: true,
	},
	ClassCancelled: {
		ClassRescheduled: true,
	},
	ClassRescheduled: {},
}

// CanTransition reports whether moving from the current state to the target is legal.
func (s ClassState) CanTransition(to ClassState) bool {
	targets, ok := classTransitions[s]
	if !ok {
		return false
	}
	return targets[to]
}

// Blocks reports whether a class in this state occupies its slot. Executed
// classes free their resources; rescheduled classes are excluded permanently.
func (s ClassState) Blocks() bool {
	return s == ClassScheduled || s == ClassCancelled
}

// Class is a discrete booked slot referencing a weekly schedule and a room.
// EndTime is always StartTime plus the fixed slot duration.
type Class struct {
	ID           string     `db:"id" json:"id"`
	ScheduleID   string     `db:"schedule_id" json:"schedule_id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	RoomID       string     `db:"room_id" json:"room_id"`
	Weekday      Weekday    `db:"weekday" json:"weekday"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	Specialty    string     `db:"specialty" json:"specialty"`
	Observations string     `db:"observations" json:"observations,omitempty"`
	Reason       string     `db:"reason" json:"reason,omitempty"`
	State        ClassState `db:"state" json:"state"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	Beneficiaries []ClassBeneficiary `db:"-" json:"beneficiaries"`
}

// ClassBeneficiary links a class to an external enrollment, with display
// fields resolved from the enrollment store.
type ClassBeneficiary struct {
	ClassID         string `db:"class_id" json:"-"`
	EnrollmentID    string `db:"enrollment_id" json:"enrollment_id"`
	Position        int    `db:"position" json:"-"`
	BeneficiaryName string `db:"beneficiary_name" json:"beneficiary_name,omitempty"`
	Course          string `db:"course" json:"course,omitempty"`
}

// BookingConflict identifies the existing class that blocked a booking.
type BookingConflict struct {
	ClassID   string  `json:"class_id"`
	TeacherID string  `json:"teacher_id"`
	RoomID    string  `json:"room_id"`
	Weekday   Weekday `json:"weekday"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Dimension string  `json:"dimension"`
}

// BookingConflictError is returned when a booking collides with an existing class.
type BookingConflictError struct {
	Type     string          `json:"type"`
	Message  string          `json:"message"`
	Conflict BookingConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
