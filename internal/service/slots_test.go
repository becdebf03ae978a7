package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia-hub/agenda-api/internal/models"
)

func TestGenerateSlots(t *testing.T) {
	windows := []models.ScheduleWindow{
		{Weekday: models.Monday, StartTime: "08:00", EndTime: "10:15"},
	}

	slots, err := GenerateSlots(windows)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, models.Slot{Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45"}, slots[0])
	assert.Equal(t, models.Slot{Weekday: models.Monday, StartTime: "08:45", EndTime: "09:30"}, slots[1])
	assert.Equal(t, models.Slot{Weekday: models.Monday, StartTime: "09:30", EndTime: "10:15"}, slots[2])
}

func TestGenerateSlotsDiscardsPartialTrailingSlot(t *testing.T) {
	windows := []models.ScheduleWindow{
		{Weekday: models.Tuesday, StartTime: "08:00", EndTime: "09:00"},
	}

	slots, err := GenerateSlots(windows)
	require.NoError(t, err)
	// 08:00-09:00 holds one full 45-minute slot; the 15-minute remainder is dropped.
	require.Len(t, slots, 1)
	assert.Equal(t, "08:45", slots[0].EndTime)
}

func TestGenerateSlotsWindowShorterThanSlot(t *testing.T) {
	windows := []models.ScheduleWindow{
		{Weekday: models.Friday, StartTime: "08:00", EndTime: "08:30"},
	}

	slots, err := GenerateSlots(windows)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlotsSortedAcrossWeekdays(t *testing.T) {
	windows := []models.ScheduleWindow{
		{Weekday: models.Friday, StartTime: "08:00", EndTime: "09:30"},
		{Weekday: models.Monday, StartTime: "14:00", EndTime: "15:30"},
		{Weekday: models.Monday, StartTime: "08:00", EndTime: "09:30"},
	}

	slots, err := GenerateSlots(windows)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, models.Monday, slots[0].Weekday)
	assert.Equal(t, "08:00", slots[0].StartTime)
	assert.Equal(t, models.Monday, slots[2].Weekday)
	assert.Equal(t, "14:00", slots[2].StartTime)
	assert.Equal(t, models.Friday, slots[4].Weekday)
}

func TestGenerateSlotsRejectsInvertedWindow(t *testing.T) {
	windows := []models.ScheduleWindow{
		{Weekday: models.Monday, StartTime: "10:00", EndTime: "09:00"},
	}
	_, err := GenerateSlots(windows)
	assert.Error(t, err)
}

func TestGenerateSlotsRejectsMalformedTime(t *testing.T) {
	windows := []models.ScheduleWindow{
		{Weekday: models.Monday, StartTime: "9am", EndTime: "10:00"},
	}
	_, err := GenerateSlots(windows)
	assert.Error(t, err)
}

func TestGenerateSlotsEmptyWindows(t *testing.T) {
	slots, err := GenerateSlots(nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
}
