package models

// SlotDurationMinutes is the fixed length of every bookable slot.
const SlotDurationMinutes = 45

// Slot is a weekday-anchored 45-minute interval derived from a teacher's
// weekly availability window. Times are canonical HH:MM strings, so Slot is
// usable directly as a map key.
type Slot struct {
	Weekday   Weekday `json:"weekday"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
}

// SlotStatus classifies a slot for a candidate teacher.
type SlotStatus string

const (
	SlotAvailable  SlotStatus = "available"
	SlotOccupied   SlotStatus = "occupied"
	SlotReopenable SlotStatus = "reopenable"
)

// Occupancy causes reported with occupied slots.
const (
	CauseTeacherBusy       = "teacher_busy"
	CauseRoomsExhausted    = "rooms_exhausted"
	CauseTeachersExhausted = "teachers_exhausted"
)
