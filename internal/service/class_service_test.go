package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-hub/agenda-api/internal/dto"
	"github.com/academia-hub/agenda-api/internal/models"
	appErrors "github.com/academia-hub/agenda-api/pkg/errors"
)

type stubEvaluator struct {
	evaluation  *dto.SlotEvaluation
	err         error
	invalidated int
}

func (s *stubEvaluator) EvaluateSlot(ctx context.Context, teacherID string, slot models.Slot) (*dto.SlotEvaluation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.evaluation, nil
}

func (s *stubEvaluator) Invalidate(ctx context.Context) {
	s.invalidated++
}

func fixtureEnrollments() *stubEnrollments {
	return &stubEnrollments{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", BeneficiaryName: "Joao", Course: "Guitar"},
		"e2": {ID: "e2", BeneficiaryName: "Maria", Course: "Piano"},
	}}
}

func availableEvaluation() *dto.SlotEvaluation {
	return &dto.SlotEvaluation{Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", Status: models.SlotAvailable}
}

func bookingRequest() dto.CreateClassRequest {
	return dto.CreateClassRequest{
		ScheduleID:    "sch1",
		RoomID:        "r1",
		Weekday:       "M",
		StartTime:     "08:00",
		EndTime:       "08:45",
		Specialty:     "guitar",
		EnrollmentIDs: []string{"e1", "e2"},
	}
}

func TestClassCreateBooksAvailableSlot(t *testing.T) {
	classes := &stubClasses{}
	evaluator := &stubEvaluator{evaluation: availableEvaluation()}
	svc := NewClassService(classes, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(), evaluator, nil, zap.NewNop())

	class, err := svc.Create(context.Background(), bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ClassScheduled, class.State)
	assert.Equal(t, "sch1", class.ScheduleID)
	assert.Equal(t, "t1", class.TeacherID)
	assert.Len(t, class.Beneficiaries, 2)
	assert.Equal(t, "Joao", class.Beneficiaries[0].BeneficiaryName)
	assert.Len(t, classes.booked, 1)
	assert.Empty(t, classes.reopened)
	assert.Equal(t, 1, evaluator.invalidated)
}

func TestClassCreateRejectsOccupiedSlot(t *testing.T) {
	evaluator := &stubEvaluator{evaluation: &dto.SlotEvaluation{
		Status: models.SlotOccupied, Cause: models.CauseTeacherBusy,
	}}
	svc := NewClassService(&stubClasses{}, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(), evaluator, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), bookingRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErr.Code)
}

func TestClassCreateRejectsWrongDuration(t *testing.T) {
	svc := NewClassService(&stubClasses{}, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	req := bookingRequest()
	req.EndTime = "09:00"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestClassCreateRejectsCapacityOverflow(t *testing.T) {
	rooms := &stubRooms{rooms: map[string]*models.Room{
		"r1": {ID: "r1", Capacity: 1, Status: models.RoomAvailable},
	}}
	svc := NewClassService(&stubClasses{}, fixtureSchedules(), rooms, fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), bookingRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
}

func TestClassCreateRejectsUnknownEnrollment(t *testing.T) {
	svc := NewClassService(&stubClasses{}, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	req := bookingRequest()
	req.EnrollmentIDs = []string{"e1", "ghost"}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestClassCreateRejectsUnknownSchedule(t *testing.T) {
	svc := NewClassService(&stubClasses{}, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	req := bookingRequest()
	req.ScheduleID = "ghost"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassCreateRejectsCancelledSchedule(t *testing.T) {
	schedules := fixtureSchedules()
	schedules.byID["sch1"].Status = models.ScheduleCancelled
	svc := NewClassService(&stubClasses{}, schedules, fixtureRooms(), fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), bookingRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassCreateRejectsInactiveRoom(t *testing.T) {
	rooms := &stubRooms{rooms: map[string]*models.Room{
		"r1": {ID: "r1", Capacity: 4, Status: models.RoomInactive},
	}}
	svc := NewClassService(&stubClasses{}, fixtureSchedules(), rooms, fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), bookingRequest())
	require.Error(t, err)
}

func TestClassCreateMapsUniqueViolationToTeacherConflict(t *testing.T) {
	blocking := &models.Class{ID: "existing", TeacherID: "t1", RoomID: "r2",
		Weekday: models.Monday, StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled}
	classes := &stubClasses{
		bookErr:  &pq.Error{Code: "23505", Constraint: "classes_slot_teacher"},
		blocking: blocking,
	}
	svc := NewClassService(classes, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), bookingRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrTeacherConflict.Code, appErr.Code)

	var conflictErr *models.BookingConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, "existing", conflictErr.Conflict.ClassID)
	assert.Equal(t, "teacher", conflictErr.Conflict.Dimension)
}

func TestClassCreateMapsUniqueViolationToRoomConflict(t *testing.T) {
	classes := &stubClasses{bookErr: &pq.Error{Code: "23505", Constraint: "classes_slot_room"}}
	svc := NewClassService(classes, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(),
		&stubEvaluator{evaluation: availableEvaluation()}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), bookingRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrRoomConflict.Code, appErr.Code)
}

func TestClassTransitionExecuteReleasesRoom(t *testing.T) {
	rooms := fixtureRooms()
	rooms.rooms["r1"].Status = models.RoomOccupied
	classes := &stubClasses{byID: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1", RoomID: "r1", Weekday: models.Monday,
			StartTime: "08:00", EndTime: "08:45", State: models.ClassScheduled},
	}}
	svc := NewClassService(classes, fixtureSchedules(), rooms, fixtureEnrollments(), &stubEvaluator{}, nil, zap.NewNop())

	class, err := svc.Transition(context.Background(), "c1", dto.TransitionClassRequest{State: "executed"})
	require.NoError(t, err)
	assert.Equal(t, models.ClassExecuted, class.State)
	assert.Equal(t, models.RoomAvailable, rooms.statusUpdates["r1"])
}

func TestClassTransitionExecuteIdempotent(t *testing.T) {
	rooms := fixtureRooms()
	classes := &stubClasses{byID: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1", RoomID: "r1", State: models.ClassExecuted},
	}}
	svc := NewClassService(classes, fixtureSchedules(), rooms, fixtureEnrollments(), &stubEvaluator{}, nil, zap.NewNop())

	class, err := svc.Transition(context.Background(), "c1", dto.TransitionClassRequest{State: "executed"})
	require.NoError(t, err)
	assert.Equal(t, models.ClassExecuted, class.State)
	// The no-op re-execute still releases the room but writes no state.
	assert.Empty(t, classes.stateUpdates)
	assert.Equal(t, models.RoomAvailable, rooms.statusUpdates["r1"])
}

func TestClassTransitionCancelRequiresReason(t *testing.T) {
	classes := &stubClasses{byID: map[string]*models.Class{
		"c1": {ID: "c1", State: models.ClassScheduled},
	}}
	svc := NewClassService(classes, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(), &stubEvaluator{}, nil, zap.NewNop())

	_, err := svc.Transition(context.Background(), "c1", dto.TransitionClassRequest{State: "cancelled"})
	require.Error(t, err)

	_, err = svc.Transition(context.Background(), "c1", dto.TransitionClassRequest{State: "cancelled", Reason: "holiday"})
	require.NoError(t, err)
}

func TestClassTransitionRejectsIllegalMove(t *testing.T) {
	classes := &stubClasses{byID: map[string]*models.Class{
		"c1": {ID: "c1", State: models.ClassRescheduled},
	}}
	svc := NewClassService(classes, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(), &stubEvaluator{}, nil, zap.NewNop())

	_, err := svc.Transition(context.Background(), "c1", dto.TransitionClassRequest{State: "scheduled"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStateTransition.Code, appErr.Code)
}

func TestClassDeleteOnlyWithoutBeneficiaries(t *testing.T) {
	classes := &stubClasses{byID: map[string]*models.Class{
		"c1": {ID: "c1", State: models.ClassScheduled,
			Beneficiaries: []models.ClassBeneficiary{{EnrollmentID: "e1"}}},
		"c2": {ID: "c2", State: models.ClassScheduled},
	}}
	svc := NewClassService(classes, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(), &stubEvaluator{}, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "c1")
	require.Error(t, err)

	require.NoError(t, svc.Delete(context.Background(), "c2"))
	assert.Equal(t, []string{"c2"}, classes.deleted)
}

func TestClassUpdateDetailsOnlyScheduled(t *testing.T) {
	classes := &stubClasses{byID: map[string]*models.Class{
		"c1": {ID: "c1", RoomID: "r1", State: models.ClassCancelled},
	}}
	svc := NewClassService(classes, fixtureSchedules(), fixtureRooms(), fixtureEnrollments(), &stubEvaluator{}, nil, zap.NewNop())

	_, err := svc.UpdateDetails(context.Background(), "c1", dto.UpdateClassRequest{
		EnrollmentIDs: []string{"e1"},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStateTransition.Code, appErr.Code)
}

func TestClassUpdateDetailsRechecksCapacity(t *testing.T) {
	classes := &stubClasses{byID: map[string]*models.Class{
		"c1": {ID: "c1", RoomID: "r1", State: models.ClassScheduled},
	}}
	rooms := &stubRooms{rooms: map[string]*models.Room{
		"r1": {ID: "r1", Capacity: 1, Status: models.RoomAvailable},
	}}
	svc := NewClassService(classes, fixtureSchedules(), rooms, fixtureEnrollments(), &stubEvaluator{}, nil, zap.NewNop())

	_, err := svc.UpdateDetails(context.Background(), "c1", dto.UpdateClassRequest{
		EnrollmentIDs: []string{"e1", "e2"},
	})
	require.Error(t, err)

	updated, err := svc.UpdateDetails(context.Background(), "c1", dto.UpdateClassRequest{
		EnrollmentIDs: []string{"e1"},
		Observations:  "bring sheet music",
	})
	require.NoError(t, err)
	assert.Equal(t, "bring sheet music", updated.Observations)
	assert.Len(t, updated.Beneficiaries, 1)
}

// Full booking round trip against the real evaluator: book, cancel, see the
// slot as reopenable, then book again displacing the cancelled class.
func TestClassBookCancelReopenRoundTrip(t *testing.T) {
	schedules := fixtureSchedules()
	classes := &stubClasses{}
	rooms := fixtureRooms()
	teachers := fixtureTeachers()
	availability := newAvailabilityFixture(schedules, classes, rooms, teachers, false)
	svc := NewClassService(classes, schedules, rooms, fixtureEnrollments(), availability, nil, zap.NewNop())

	booked, err := svc.Create(context.Background(), bookingRequest())
	require.NoError(t, err)

	result, err := availability.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotOccupied, result.Slots[0].Status)
	assert.Equal(t, models.CauseTeacherBusy, result.Slots[0].Cause)

	_, err = svc.Transition(context.Background(), booked.ID, dto.TransitionClassRequest{
		State: "cancelled", Reason: "student travelling",
	})
	require.NoError(t, err)

	result, err = availability.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, models.SlotReopenable, result.Slots[0].Status)
	assert.Equal(t, booked.ID, result.Slots[0].ReopenID)
	assert.Equal(t, "student travelling", result.Slots[0].ReopenNote)

	rebooked, err := svc.Create(context.Background(), bookingRequest())
	require.NoError(t, err)
	assert.NotEqual(t, booked.ID, rebooked.ID)
	assert.Equal(t, []string{booked.ID}, classes.reopened)

	old, err := classes.FindByID(context.Background(), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClassRescheduled, old.State)

	result, err = availability.Evaluate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotOccupied, result.Slots[0].Status)
	assert.Equal(t, models.CauseTeacherBusy, result.Slots[0].Cause)
}
