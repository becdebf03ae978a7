package dto

// CreateClassRequest books one slot against a weekly schedule, a room and a
// set of enrolled beneficiaries. The teacher is derived from the schedule.
type CreateClassRequest struct {
	ScheduleID    string   `json:"schedule_id" binding:"required"`
	RoomID        string   `json:"room_id" binding:"required"`
	Weekday       string   `json:"weekday" binding:"required,weekday"`
	StartTime     string   `json:"start_time" binding:"required"`
	EndTime       string   `json:"end_time" binding:"required"`
	Specialty     string   `json:"specialty"`
	Observations  string   `json:"observations"`
	EnrollmentIDs []string `json:"enrollment_ids" binding:"required,min=1"`
}

// TransitionClassRequest moves a class through its lifecycle. Reason is
// mandatory for cancellations.
type TransitionClassRequest struct {
	State  string `json:"state" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateClassRequest replaces the beneficiary list and observations of a
// scheduled class without touching its slot.
type UpdateClassRequest struct {
	EnrollmentIDs []string `json:"enrollment_ids" binding:"required,min=1"`
	Observations  string   `json:"observations"`
}
