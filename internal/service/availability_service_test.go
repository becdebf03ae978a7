package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-hub/agenda-api/internal/models"
	"github.com/academia-hub/agenda-api/pkg/config"
)

func fixtureTeachers() *stubTeachers {
	return &stubTeachers{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", FullName: "Ana Silva", Active: true},
		"t2": {ID: "t2", FullName: "Bruno Costa", Active: true},
	}}
}

func fixtureRooms() *stubRooms {
	return &stubRooms{rooms: map[string]*models.Room{
		"r1": {ID: "r1", Name: "Room 1", Capacity: 4, Status: models.RoomAvailable},
		"r2": {ID: "r2", Name: "Room 2", Capacity: 6, Status: models.RoomAvailable},
	}}
}

func fixtureSchedules() *stubSchedules {
	schedule := &models.WeeklySchedule{
		ID: "sch1", TeacherID: "t1", Status: models.ScheduleActive,
		Windows: []models.ScheduleWindow{
			{Weekday: models.Monday, StartTime: "08:00", EndTime: "09:30"},
		},
	}
	return &stubSchedules{
		active: map[string]*models.WeeklySchedule{"t1": schedule},
		byID:   map[string]*models.WeeklySchedule{"sch1": schedule},
	}
}

func newAvailabilityFixture(schedules *stubSchedules, classes *stubClasses, rooms *stubRooms, teachers *stubTeachers, globalCheck bool) *AvailabilityService {
	cacheSvc := NewCacheService(nil, nil, time.Second, zap.NewNop(), false)
	cfg := config.AvailabilityConfig{RegistryTTL: time.Minute, GlobalTeacherCheck: globalCheck}
	return NewAvailabilityService(schedules, classes, rooms, teachers, cacheSvc, nil, zap.NewNop(), cfg)
}

func TestAvailabilityEvaluateAllSlotsFree(t *testing.T) {
	svc := newAvailabilityFixture(fixtureSchedules(), &stubClasses{}, fixtureRooms(), fixtureTeachers(), false)

	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, result.Slots, 2)
	for _, slot := range result.Slots {
		assert.Equal(t, models.SlotAvailable, slot.Status)
		assert.Empty(t, slot.Cause)
	}
	assert.Equal(t, "Monday", result.Slots[0].WeekdayName)
}

func TestAvailabilityEvaluateTeacherBusy(t *testing.T) {
	classes := &stubClasses{snapshot: []models.Class{
		{ID: "c1", TeacherID: "t1", RoomID: "r1", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
	}}
	svc := newAvailabilityFixture(fixtureSchedules(), classes, fixtureRooms(), fixtureTeachers(), false)

	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotOccupied, result.Slots[0].Status)
	assert.Equal(t, models.CauseTeacherBusy, result.Slots[0].Cause)
	assert.Equal(t, models.SlotAvailable, result.Slots[1].Status)
}

func TestAvailabilityEvaluateRoomsExhausted(t *testing.T) {
	classes := &stubClasses{snapshot: []models.Class{
		{ID: "c1", TeacherID: "t2", RoomID: "r1", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
		{ID: "c2", TeacherID: "t3", RoomID: "r2", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
	}}
	svc := newAvailabilityFixture(fixtureSchedules(), classes, fixtureRooms(), fixtureTeachers(), false)

	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotOccupied, result.Slots[0].Status)
	assert.Equal(t, models.CauseRoomsExhausted, result.Slots[0].Cause)
}

func TestAvailabilityInactiveRoomsDoNotCount(t *testing.T) {
	rooms := fixtureRooms()
	rooms.rooms["r2"].Status = models.RoomInactive
	classes := &stubClasses{snapshot: []models.Class{
		{ID: "c1", TeacherID: "t2", RoomID: "r1", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
	}}
	svc := newAvailabilityFixture(fixtureSchedules(), classes, rooms, fixtureTeachers(), false)

	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	// r2 is inactive, so r1 alone exhausts the usable room census.
	assert.Equal(t, models.SlotOccupied, result.Slots[0].Status)
	assert.Equal(t, models.CauseRoomsExhausted, result.Slots[0].Cause)
}

func TestAvailabilityInactiveRoomOccupantDoesNotExhaust(t *testing.T) {
	rooms := fixtureRooms()
	rooms.rooms["r2"].Status = models.RoomInactive
	// The blocking class sits in the room that has since gone inactive, so the
	// active room r1 is still free and the slot stays available.
	classes := &stubClasses{snapshot: []models.Class{
		{ID: "c1", TeacherID: "t2", RoomID: "r2", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
	}}
	svc := newAvailabilityFixture(fixtureSchedules(), classes, rooms, fixtureTeachers(), false)

	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, result.Slots[0].Status)
	assert.Empty(t, result.Slots[0].Cause)
}

func TestAvailabilityEvaluateReopenableWinsOverOccupied(t *testing.T) {
	classes := &stubClasses{snapshot: []models.Class{
		{ID: "c1", TeacherID: "t1", RoomID: "r1", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45",
			State: models.ClassCancelled, Reason: "holiday"},
	}}
	svc := newAvailabilityFixture(fixtureSchedules(), classes, fixtureRooms(), fixtureTeachers(), false)

	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotReopenable, result.Slots[0].Status)
	assert.Equal(t, "c1", result.Slots[0].ReopenID)
	assert.Equal(t, "holiday", result.Slots[0].ReopenNote)
}

func TestAvailabilityCancelledClassOfAnotherTeacherOccupiesRoom(t *testing.T) {
	classes := &stubClasses{snapshot: []models.Class{
		{ID: "c1", TeacherID: "t2", RoomID: "r1", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassCancelled},
		{ID: "c2", TeacherID: "t3", RoomID: "r2", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
	}}
	svc := newAvailabilityFixture(fixtureSchedules(), classes, fixtureRooms(), fixtureTeachers(), false)

	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	// The cancelled class belongs to t2, so t1 sees occupied, not reopenable.
	assert.Equal(t, models.SlotOccupied, result.Slots[0].Status)
	assert.Equal(t, models.CauseRoomsExhausted, result.Slots[0].Cause)
}

func TestAvailabilityGlobalTeacherCheckGated(t *testing.T) {
	rooms := &stubRooms{rooms: map[string]*models.Room{
		"r1": {ID: "r1", Capacity: 4, Status: models.RoomAvailable},
		"r2": {ID: "r2", Capacity: 4, Status: models.RoomAvailable},
		"r3": {ID: "r3", Capacity: 4, Status: models.RoomAvailable},
	}}
	classes := &stubClasses{snapshot: []models.Class{
		{ID: "c1", TeacherID: "t2", RoomID: "r1", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
		{ID: "c2", TeacherID: "t3", RoomID: "r2", Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
	}}
	teachers := &stubTeachers{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", Active: true},
		"t2": {ID: "t2", Active: true},
	}}

	svc := newAvailabilityFixture(fixtureSchedules(), classes, rooms, teachers, false)
	result, err := svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, result.Slots[0].Status)

	svc = newAvailabilityFixture(fixtureSchedules(), classes, rooms, teachers, true)
	result, err = svc.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotOccupied, result.Slots[0].Status)
	assert.Equal(t, models.CauseTeachersExhausted, result.Slots[0].Cause)
}

func TestAvailabilityEvaluateNoActiveSchedule(t *testing.T) {
	svc := newAvailabilityFixture(&stubSchedules{}, &stubClasses{}, fixtureRooms(), fixtureTeachers(), false)

	_, err := svc.Evaluate(context.Background(), "t1")
	require.Error(t, err)
}

func TestAvailabilityEvaluateUnknownTeacher(t *testing.T) {
	svc := newAvailabilityFixture(fixtureSchedules(), &stubClasses{}, fixtureRooms(), fixtureTeachers(), false)

	_, err := svc.Evaluate(context.Background(), "ghost")
	require.Error(t, err)
}

func TestAvailabilityEvaluateSlotOutsideWindows(t *testing.T) {
	svc := newAvailabilityFixture(fixtureSchedules(), &stubClasses{}, fixtureRooms(), fixtureTeachers(), false)

	_, err := svc.EvaluateSlot(context.Background(), "t1",
		models.Slot{Weekday: models.Friday, StartTime: "08:00", EndTime: "08:45"})
	require.Error(t, err)
}

func TestAvailabilityEvaluateSlotFresh(t *testing.T) {
	svc := newAvailabilityFixture(fixtureSchedules(), &stubClasses{}, fixtureRooms(), fixtureTeachers(), false)

	evaluation, err := svc.EvaluateSlot(context.Background(), "t1",
		models.Slot{Weekday: models.Monday, StartTime: "08:45", EndTime: "09:30"})
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, evaluation.Status)
}
