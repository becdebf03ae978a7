package service

import "github.com/academia-hub/agenda-api/internal/models"

// ReopeningCandidate points at a cancelled class whose slot the same teacher
// may take again.
type ReopeningCandidate struct {
	ClassID string
	Reason  string
}

// OccupancyEntry aggregates the resources occupying one slot.
type OccupancyEntry struct {
	Teachers   map[string]struct{}
	Rooms      map[string]struct{}
	Reopenable map[string]ReopeningCandidate
}

// OccupancyIndex maps each slot to its occupying teachers and rooms. It is a
// derived, non-persistent structure rebuilt from a class snapshot per request.
type OccupancyIndex map[models.Slot]*OccupancyEntry

// BuildOccupancyIndex scans a snapshot of class records. Rescheduled classes
// are excluded permanently; executed classes contribute to neither set, since
// execution frees the room for the same recurring slot; scheduled and
// cancelled classes occupy teacher and room, and each cancelled class is the
// reopening candidate for its teacher in that slot.
func BuildOccupancyIndex(classes []models.Class) OccupancyIndex {
	index := make(OccupancyIndex)
	for _, class := range classes {
		if !class.State.Blocks() {
			continue
		}
		key := models.Slot{Weekday: class.Weekday, StartTime: class.StartTime, EndTime: class.EndTime}
		entry, ok := index[key]
		if !ok {
			entry = &OccupancyEntry{
				Teachers:   make(map[string]struct{}),
				Rooms:      make(map[string]struct{}),
				Reopenable: make(map[string]ReopeningCandidate),
			}
			index[key] = entry
		}
		entry.Teachers[class.TeacherID] = struct{}{}
		entry.Rooms[class.RoomID] = struct{}{}
		if class.State == models.ClassCancelled {
			entry.Reopenable[class.TeacherID] = ReopeningCandidate{ClassID: class.ID, Reason: class.Reason}
		}
	}
	return index
}

// Lookup returns the entry for a slot, or nil when the slot is unoccupied.
func (idx OccupancyIndex) Lookup(slot models.Slot) *OccupancyEntry {
	return idx[slot]
}
