package models

import "time"

// RoomStatus is the registry status of a room.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "available"
	RoomOccupied  RoomStatus = "occupied"
	RoomInactive  RoomStatus = "inactive"
)

// ValidRoomStatus reports whether the raw value is a known status.
func ValidRoomStatus(raw string) bool {
	switch RoomStatus(raw) {
	case RoomAvailable, RoomOccupied, RoomInactive:
		return true
	}
	return false
}

// Room is a bookable space. The registry is owned externally; this engine reads
// capacity and status and resets status to available when a class executes.
type Room struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Capacity  int        `db:"capacity" json:"capacity"`
	Status    RoomStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
