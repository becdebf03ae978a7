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

type scheduleStore interface {
	FindActiveByTeacher(ctx context.Context, teacherID string) (*models.WeeklySchedule, error)
	FindByID(ctx context.Context, id string) (*models.WeeklySchedule, error)
	HasActive(ctx context.Context, teacherID string) (bool, error)
	Create(ctx context.Context, schedule *models.WeeklySchedule) error
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, reason string) error
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// WeeklyScheduleService manages teacher availability records.
type WeeklyScheduleService struct {
	repo         scheduleStore
	teachers     teacherFinder
	availability *AvailabilityService
	logger       *zap.Logger
}

// NewWeeklyScheduleService constructs a WeeklyScheduleService.
func NewWeeklyScheduleService(repo scheduleStore, teachers teacherFinder, availability *AvailabilityService, logger *zap.Logger) *WeeklyScheduleService {
	return &WeeklyScheduleService{repo: repo, teachers: teachers, availability: availability, logger: logger}
}

// GetActiveByTeacher returns the teacher's single active schedule.
func (s *WeeklyScheduleService) GetActiveByTeacher(ctx context.Context, teacherID string) (*models.WeeklySchedule, error) {
	schedule, err := s.repo.FindActiveByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher has no active weekly schedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load weekly schedule")
	}
	return schedule, nil
}

// Create registers a new active schedule. A teacher may hold at most one; the
// partial unique index backs that invariant against concurrent writers.
func (s *WeeklyScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.WeeklySchedule, error) {
	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not active")
	}

	windows, err := buildWindows(req.Windows)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.HasActive(ctx, req.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check active schedule")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already has an active weekly schedule")
	}

	schedule := &models.WeeklySchedule{
		TeacherID: req.TeacherID,
		Status:    models.ScheduleActive,
		Windows:   windows,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		if constraint, ok := repository.UniqueViolation(err); ok && constraint == repository.ConstraintOneActiveSchedule {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already has an active weekly schedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create weekly schedule")
	}

	s.availability.Invalidate(ctx)
	if s.logger != nil {
		s.logger.Info("weekly schedule created",
			zap.String("schedule_id", schedule.ID),
			zap.String("teacher_id", schedule.TeacherID),
			zap.Int("windows", len(schedule.Windows)))
	}
	return schedule, nil
}

// Cancel retires an active schedule. Cancellation is the only retirement path;
// schedule rows are never deleted.
func (s *WeeklyScheduleService) Cancel(ctx context.Context, id, reason string) (*models.WeeklySchedule, error) {
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cancellation reason is required")
	}

	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load weekly schedule")
	}
	if schedule.Status != models.ScheduleActive {
		return nil, appErrors.Clone(appErrors.ErrStateTransition, "only active schedules can be cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.ScheduleCancelled, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "cancel weekly schedule")
	}

	schedule.Status = models.ScheduleCancelled
	schedule.Reason = reason
	s.availability.Invalidate(ctx)
	if s.logger != nil {
		s.logger.Info("weekly schedule cancelled", zap.String("schedule_id", id), zap.String("reason", reason))
	}
	return schedule, nil
}

// buildWindows validates and normalises the requested availability windows.
// At most one window per weekday; every window must span at least one slot.
func buildWindows(requests []dto.ScheduleWindowRequest) ([]models.ScheduleWindow, error) {
	if len(requests) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one availability window is required")
	}

	seen := make(map[models.Weekday]bool, len(requests))
	windows := make([]models.ScheduleWindow, 0, len(requests))
	for _, req := range requests {
		weekday, err := models.ParseWeekday(req.Weekday)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		if seen[weekday] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate window for weekday %s", weekday))
		}
		seen[weekday] = true

		start, err := models.ParseClock(req.StartTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %s: %v", weekday, err))
		}
		end, err := models.ParseClock(req.EndTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %s: %v", weekday, err))
		}
		if end <= start {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("window %s: end %s must be after start %s", weekday, req.EndTime, req.StartTime))
		}
		if start.AddMinutes(models.SlotDurationMinutes) > end {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("window %s is shorter than one %d-minute slot", weekday, models.SlotDurationMinutes))
		}

		windows = append(windows, models.ScheduleWindow{
			Weekday:   weekday,
			StartTime: start.String(),
			EndTime:   end.String(),
		})
	}
	return windows, nil
}
