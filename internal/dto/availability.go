package dto

import "github.com/academia-hub/agenda-api/internal/models"

// SlotEvaluation is the classification of one generated slot for a candidate
// teacher. Cause is set for occupied slots; the reopen fields are set when a
// cancelled class makes the slot reopenable for the same teacher.
type SlotEvaluation struct {
	Weekday     models.Weekday    `json:"weekday"`
	WeekdayName string            `json:"weekday_name"`
	StartTime   string            `json:"start_time"`
	EndTime     string            `json:"end_time"`
	Status      models.SlotStatus `json:"status"`
	Cause       string            `json:"cause,omitempty"`
	ReopenID    string            `json:"reopen_class_id,omitempty"`
	ReopenNote  string            `json:"reopen_reason,omitempty"`
}

// AvailabilityResponse is the evaluated weekly horizon for one teacher.
type AvailabilityResponse struct {
	TeacherID string           `json:"teacher_id"`
	Slots     []SlotEvaluation `json:"slots"`
}
