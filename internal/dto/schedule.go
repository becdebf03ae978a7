package dto

// ScheduleWindowRequest is one per-weekday availability range.
type ScheduleWindowRequest struct {
	Weekday   string `json:"weekday" binding:"required,weekday"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// CreateScheduleRequest registers a teacher's weekly availability.
type CreateScheduleRequest struct {
	TeacherID string                  `json:"teacher_id" binding:"required"`
	Windows   []ScheduleWindowRequest `json:"windows" binding:"required,min=1,dive"`
}

// TransitionScheduleRequest moves a weekly schedule through its lifecycle.
// Cancellation is the only transition and it carries an audit reason.
type TransitionScheduleRequest struct {
	State  string `json:"state" binding:"required"`
	Reason string `json:"reason"`
}
