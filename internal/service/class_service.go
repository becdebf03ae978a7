package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/academia-hub/agenda-api/internal/dto"
	"github.com/academia-hub/agenda-api/internal/models"
	"github.com/academia-hub/agenda-api/internal/repository"
	appErrors "github.com/academia-hub/agenda-api/pkg/errors"
)

type classStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindBlocking(ctx context.Context, weekday models.Weekday, startTime, teacherID, roomID string) (*models.Class, error)
	CreateBooked(ctx context.Context, class *models.Class, enrollmentIDs []string, reopenClassID string) error
	UpdateState(ctx context.Context, id string, state models.ClassState, reason string) error
	UpdateDetails(ctx context.Context, id string, enrollmentIDs []string, observations string) error
	Delete(ctx context.Context, id string) error
}

type scheduleLookup interface {
	FindByID(ctx context.Context, id string) (*models.WeeklySchedule, error)
}

type roomStore interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	UpdateStatus(ctx context.Context, id string, status models.RoomStatus) error
}

type enrollmentResolver interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Enrollment, error)
}

type slotEvaluator interface {
	EvaluateSlot(ctx context.Context, teacherID string, slot models.Slot) (*dto.SlotEvaluation, error)
	Invalidate(ctx context.Context)
}

// ClassService books slots and drives the class lifecycle.
type ClassService struct {
	classes     classStore
	schedules   scheduleLookup
	rooms       roomStore
	enrollments enrollmentResolver
	evaluator   slotEvaluator
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(
	classes classStore,
	schedules scheduleLookup,
	rooms roomStore,
	enrollments enrollmentResolver,
	evaluator slotEvaluator,
	metrics *MetricsService,
	logger *zap.Logger,
) *ClassService {
	return &ClassService{
		classes:     classes,
		schedules:   schedules,
		rooms:       rooms,
		enrollments: enrollments,
		evaluator:   evaluator,
		metrics:     metrics,
		logger:      logger,
	}
}

// ListByTeacher returns a teacher's classes in all lifecycle states.
func (s *ClassService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	classes, err := s.classes.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list classes")
	}
	return classes, nil
}

// Get fetches one class with its beneficiaries.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load class")
	}
	return class, nil
}

// Create books one slot. The slot is re-evaluated against fresh state inside
// this call, and the database's partial unique indexes close the remaining
// race window: a losing concurrent writer gets a conflict error, never a
// double booking. Booking a reopenable slot displaces the cancelled class to
// rescheduled in the same transaction.
func (s *ClassService) Create(ctx context.Context, req dto.CreateClassRequest) (*models.Class, error) {
	weekday, err := models.ParseWeekday(req.Weekday)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	start, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	end, err := models.ParseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if end != start.AddMinutes(models.SlotDurationMinutes) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("a class spans exactly %d minutes", models.SlotDurationMinutes))
	}

	schedule, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load weekly schedule")
	}
	if schedule.Status != models.ScheduleActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classes can only be booked against an active weekly schedule")
	}

	enrollments, err := s.enrollments.FindByIDs(ctx, req.EnrollmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve enrollments")
	}
	if len(enrollments) != len(req.EnrollmentIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more enrollment references are unknown")
	}

	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	if room.Status == models.RoomInactive {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s is inactive", room.ID))
	}
	if err := ValidateCapacity(room, len(req.EnrollmentIDs)); err != nil {
		return nil, err
	}

	slot := models.Slot{Weekday: weekday, StartTime: start.String(), EndTime: end.String()}
	evaluation, err := s.evaluator.EvaluateSlot(ctx, schedule.TeacherID, slot)
	if err != nil {
		return nil, err
	}

	var reopenClassID string
	switch evaluation.Status {
	case models.SlotOccupied:
		if s.metrics != nil {
			s.metrics.RecordBookingConflict(evaluation.Cause)
		}
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable,
			fmt.Sprintf("slot %s %s is occupied (%s)", weekday, slot.StartTime, evaluation.Cause))
	case models.SlotReopenable:
		reopenClassID = evaluation.ReopenID
	}

	class := &models.Class{
		ScheduleID:   schedule.ID,
		TeacherID:    schedule.TeacherID,
		RoomID:       req.RoomID,
		Weekday:      weekday,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		Specialty:    req.Specialty,
		Observations: req.Observations,
	}
	if err := s.classes.CreateBooked(ctx, class, req.EnrollmentIDs, reopenClassID); err != nil {
		if constraint, ok := repository.UniqueViolation(err); ok {
			return nil, s.conflictError(ctx, constraint, class)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "book class")
	}

	class.Beneficiaries = beneficiariesFrom(class.ID, req.EnrollmentIDs, enrollments)

	if s.metrics != nil {
		s.metrics.RecordBooking()
		if reopenClassID != "" {
			s.metrics.RecordReopen()
		}
	}
	s.evaluator.Invalidate(ctx)
	if s.logger != nil {
		s.logger.Info("class booked",
			zap.String("class_id", class.ID),
			zap.String("teacher_id", class.TeacherID),
			zap.String("room_id", class.RoomID),
			zap.String("weekday", string(class.Weekday)),
			zap.String("start_time", class.StartTime),
			zap.String("reopened_class_id", reopenClassID))
	}
	return class, nil
}

// Transition moves a class to the requested lifecycle state. Executing an
// already executed class is an accepted no-op; execution releases the room.
func (s *ClassService) Transition(ctx context.Context, id string, req dto.TransitionClassRequest) (*models.Class, error) {
	target, ok := models.ParseClassState(req.State)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class state %q", req.State))
	}

	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !class.State.CanTransition(target) {
		return nil, appErrors.Clone(appErrors.ErrStateTransition,
			fmt.Sprintf("a %s class cannot move to %s", class.State, target))
	}
	if target == models.ClassCancelled && req.Reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cancellation reason is required")
	}

	if class.State == models.ClassExecuted && target == models.ClassExecuted {
		s.releaseRoom(ctx, class.RoomID)
		return class, nil
	}

	if err := s.classes.UpdateState(ctx, id, target, req.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update class state")
	}

	class.State = target
	if req.Reason != "" {
		class.Reason = req.Reason
	}
	if target == models.ClassExecuted {
		s.releaseRoom(ctx, class.RoomID)
	}
	s.evaluator.Invalidate(ctx)
	if s.logger != nil {
		s.logger.Info("class transitioned",
			zap.String("class_id", id),
			zap.String("state", string(target)),
			zap.String("reason", req.Reason))
	}
	return class, nil
}

// UpdateDetails replaces the beneficiary list and observations of a scheduled
// class. Capacity is re-validated against the class's room.
func (s *ClassService) UpdateDetails(ctx context.Context, id string, req dto.UpdateClassRequest) (*models.Class, error) {
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.State != models.ClassScheduled {
		return nil, appErrors.Clone(appErrors.ErrStateTransition, "only scheduled classes can be updated")
	}

	enrollments, err := s.enrollments.FindByIDs(ctx, req.EnrollmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve enrollments")
	}
	if len(enrollments) != len(req.EnrollmentIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more enrollment references are unknown")
	}

	room, err := s.rooms.FindByID(ctx, class.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	if err := ValidateCapacity(room, len(req.EnrollmentIDs)); err != nil {
		return nil, err
	}

	if err := s.classes.UpdateDetails(ctx, id, req.EnrollmentIDs, req.Observations); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update class")
	}

	class.Observations = req.Observations
	class.Beneficiaries = beneficiariesFrom(id, req.EnrollmentIDs, enrollments)
	s.evaluator.Invalidate(ctx)
	return class, nil
}

// Delete removes a class outright. Only classes with no beneficiaries may be
// deleted; anything booked must go through cancellation instead.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	class, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if len(class.Beneficiaries) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "a class with beneficiaries cannot be deleted, cancel it instead")
	}

	if err := s.classes.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete class")
	}
	s.evaluator.Invalidate(ctx)
	return nil
}

// conflictError maps a unique_violation constraint to a typed conflict,
// attaching the blocking class when it can still be found.
func (s *ClassService) conflictError(ctx context.Context, constraint string, attempted *models.Class) error {
	var base *appErrors.Error
	var dimension string
	switch constraint {
	case repository.ConstraintSlotTeacher:
		base = appErrors.ErrTeacherConflict
		dimension = "teacher"
	case repository.ConstraintSlotRoom:
		base = appErrors.ErrRoomConflict
		dimension = "room"
	default:
		base = appErrors.ErrConflict
		dimension = "unknown"
	}
	if s.metrics != nil {
		s.metrics.RecordBookingConflict(dimension)
	}

	conflict := &models.BookingConflictError{
		Type:    base.Code,
		Message: base.Message,
		Conflict: models.BookingConflict{
			TeacherID: attempted.TeacherID,
			RoomID:    attempted.RoomID,
			Weekday:   attempted.Weekday,
			StartTime: attempted.StartTime,
			EndTime:   attempted.EndTime,
			Dimension: dimension,
		},
	}
	if blocking, err := s.classes.FindBlocking(ctx, attempted.Weekday, attempted.StartTime, attempted.TeacherID, attempted.RoomID); err == nil {
		conflict.Conflict.ClassID = blocking.ID
		conflict.Conflict.TeacherID = blocking.TeacherID
		conflict.Conflict.RoomID = blocking.RoomID
	}

	return appErrors.Wrap(conflict, base.Code, base.Status, base.Message)
}

// releaseRoom resets the room to available after execution. The reset is
// idempotent and fail-soft: the class transition already committed.
func (s *ClassService) releaseRoom(ctx context.Context, roomID string) {
	if err := s.rooms.UpdateStatus(ctx, roomID, models.RoomAvailable); err != nil && s.logger != nil {
		s.logger.Warn("room release failed", zap.String("room_id", roomID), zap.Error(err))
	}
}

func beneficiariesFrom(classID string, orderedIDs []string, enrollments []models.Enrollment) []models.ClassBeneficiary {
	byID := make(map[string]models.Enrollment, len(enrollments))
	for _, enrollment := range enrollments {
		byID[enrollment.ID] = enrollment
	}
	beneficiaries := make([]models.ClassBeneficiary, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		enrollment := byID[id]
		beneficiaries = append(beneficiaries, models.ClassBeneficiary{
			ClassID:         classID,
			EnrollmentID:    id,
			Position:        i + 1,
			BeneficiaryName: enrollment.BeneficiaryName,
			Course:          enrollment.Course,
		})
	}
	return beneficiaries
}
