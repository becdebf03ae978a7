package service

import (
	"fmt"
	"sort"

	"github.com/academia-hub/agenda-api/internal/models"
)

// GenerateSlots derives the discrete bookable slots implied by a weekly
// schedule's availability windows. Each window yields consecutive slots of
// the fixed duration starting at the window's start; a partial trailing slot
// is discarded. An empty window set yields an empty list, not an error.
func GenerateSlots(windows []models.ScheduleWindow) ([]models.Slot, error) {
	slots := make([]models.Slot, 0, len(windows)*4)
	for _, window := range windows {
		start, err := models.ParseClock(window.StartTime)
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", window.Weekday, err)
		}
		end, err := models.ParseClock(window.EndTime)
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", window.Weekday, err)
		}
		if end <= start {
			return nil, fmt.Errorf("window %s: end %s not after start %s", window.Weekday, window.EndTime, window.StartTime)
		}

		for cursor := start; cursor.AddMinutes(models.SlotDurationMinutes) <= end; cursor = cursor.AddMinutes(models.SlotDurationMinutes) {
			slots = append(slots, models.Slot{
				Weekday:   window.Weekday,
				StartTime: cursor.String(),
				EndTime:   cursor.AddMinutes(models.SlotDurationMinutes).String(),
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Weekday.Order() == slots[j].Weekday.Order() {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].Weekday.Order() < slots[j].Weekday.Order()
	})
	return slots, nil
}
