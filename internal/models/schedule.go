package models

import "time"

// ScheduleStatus is the lifecycle state of a weekly availability record.
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// WeeklySchedule is a teacher's recurring availability: one window per weekday.
// At most one active record exists per teacher; cancellation supersedes deletion.
type WeeklySchedule struct {
	ID        string         `db:"id" json:"id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	Status    ScheduleStatus `db:"status" json:"status"`
	Reason    string         `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`

	Windows []ScheduleWindow `db:"-" json:"windows"`
}

// ScheduleWindow is a per-weekday availability range. Times are HH:MM strings.
type ScheduleWindow struct {
	ID         string  `db:"id" json:"id"`
	ScheduleID string  `db:"schedule_id" json:"-"`
	Weekday    Weekday `db:"weekday" json:"weekday"`
	StartTime  string  `db:"start_time" json:"start_time"`
	EndTime    string  `db:"end_time" json:"end_time"`
}
