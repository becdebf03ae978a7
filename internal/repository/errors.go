package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Constraint names from db/schema.sql that close the evaluate-then-commit
// race: a losing concurrent writer hits one of these instead of double-booking.
const (
	ConstraintOneActiveSchedule = "weekly_schedules_one_active"
	ConstraintSlotTeacher       = "classes_slot_teacher"
	ConstraintSlotRoom          = "classes_slot_room"
)

// UniqueViolation reports the violated constraint name when err is a
// Postgres unique_violation.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}
