package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/academia-hub/agenda-api/internal/dto"
	"github.com/academia-hub/agenda-api/internal/models"
	"github.com/academia-hub/agenda-api/pkg/config"
	appErrors "github.com/academia-hub/agenda-api/pkg/errors"
)

const (
	availabilityCachePrefix = "availability:"
	registryRoomsKey        = "registry:rooms"
	registryTeachersKey     = "registry:teachers"
)

type scheduleReader interface {
	FindActiveByTeacher(ctx context.Context, teacherID string) (*models.WeeklySchedule, error)
}

type classSnapshotter interface {
	Snapshot(ctx context.Context) ([]models.Class, error)
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type teacherRoster interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// registrySnapshot is the point-in-time resource census the evaluator
// classifies slots against. Inactive rooms do not count toward exhaustion.
type registrySnapshot struct {
	rooms        map[string]struct{}
	teacherCount int
}

// hasFreeRoom reports whether at least one active room is absent from the
// occupied set. An occupant in a room that has since gone inactive must not
// exhaust the remaining active rooms.
func (r registrySnapshot) hasFreeRoom(occupied map[string]struct{}) bool {
	for id := range r.rooms {
		if _, used := occupied[id]; !used {
			return true
		}
	}
	return false
}

// AvailabilityService evaluates a teacher's weekly slot horizon against the
// current occupancy of every booked class.
type AvailabilityService struct {
	schedules scheduleReader
	classes   classSnapshotter
	rooms     roomLister
	teachers  teacherRoster
	cache     *CacheService
	registry  *gocache.Cache
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       config.AvailabilityConfig
}

// NewAvailabilityService constructs an AvailabilityService. The registry
// census is memoised in-process with the configured TTL so a burst of
// evaluations does not re-count rooms and teachers on every request.
func NewAvailabilityService(
	schedules scheduleReader,
	classes classSnapshotter,
	rooms roomLister,
	teachers teacherRoster,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg config.AvailabilityConfig,
) *AvailabilityService {
	return &AvailabilityService{
		schedules: schedules,
		classes:   classes,
		rooms:     rooms,
		teachers:  teachers,
		cache:     cache,
		registry:  gocache.New(cfg.RegistryTTL, 2*cfg.RegistryTTL),
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Evaluate classifies every slot of the teacher's active weekly schedule.
// Results are served from the read-model cache when enabled; any write to
// schedules or classes invalidates the whole availability keyspace.
func (s *AvailabilityService) Evaluate(ctx context.Context, teacherID string) (*dto.AvailabilityResponse, error) {
	cacheKey := availabilityCachePrefix + teacherID
	if s.cache.Enabled() {
		var cached dto.AvailabilityResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	response, err := s.evaluate(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, response, s.cfg.CacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("availability cache write failed", zap.String("teacher_id", teacherID), zap.Error(err))
		}
	}
	return response, nil
}

// EvaluateSlot classifies a single slot for a teacher against fresh state.
// The booking path re-checks with this right before committing, since a cached
// full evaluation may be stale.
func (s *AvailabilityService) EvaluateSlot(ctx context.Context, teacherID string, slot models.Slot) (*dto.SlotEvaluation, error) {
	schedule, err := s.activeSchedule(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	slots, err := GenerateSlots(schedule.Windows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability window")
	}
	if !containsSlot(slots, slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("slot %s %s-%s does not match the teacher's availability", slot.Weekday, slot.StartTime, slot.EndTime))
	}

	snapshot, err := s.classes.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load class snapshot")
	}
	registry, err := s.registryCensus(ctx)
	if err != nil {
		return nil, err
	}

	index := BuildOccupancyIndex(snapshot)
	evaluation := s.classify(index, slot, teacherID, registry)
	return &evaluation, nil
}

func (s *AvailabilityService) evaluate(ctx context.Context, teacherID string) (*dto.AvailabilityResponse, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not active")
	}

	schedule, err := s.activeSchedule(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	slots, err := GenerateSlots(schedule.Windows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability window")
	}

	snapshot, err := s.classes.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load class snapshot")
	}
	registry, err := s.registryCensus(ctx)
	if err != nil {
		return nil, err
	}

	index := BuildOccupancyIndex(snapshot)
	evaluations := make([]dto.SlotEvaluation, 0, len(slots))
	for _, slot := range slots {
		evaluations = append(evaluations, s.classify(index, slot, teacherID, registry))
	}

	if s.metrics != nil {
		s.metrics.RecordEvaluation()
	}

	return &dto.AvailabilityResponse{TeacherID: teacherID, Slots: evaluations}, nil
}

// classify applies the slot rules in precedence order. A reopening candidate
// for this teacher wins over every occupancy cause.
func (s *AvailabilityService) classify(index OccupancyIndex, slot models.Slot, teacherID string, registry registrySnapshot) dto.SlotEvaluation {
	evaluation := dto.SlotEvaluation{
		Weekday:     slot.Weekday,
		WeekdayName: slot.Weekday.Name(),
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		Status:      models.SlotAvailable,
	}

	entry := index.Lookup(slot)
	if entry == nil {
		return evaluation
	}

	if candidate, ok := entry.Reopenable[teacherID]; ok {
		evaluation.Status = models.SlotReopenable
		evaluation.ReopenID = candidate.ClassID
		evaluation.ReopenNote = candidate.Reason
		return evaluation
	}

	if _, busy := entry.Teachers[teacherID]; busy {
		evaluation.Status = models.SlotOccupied
		evaluation.Cause = models.CauseTeacherBusy
		return evaluation
	}

	if len(registry.rooms) > 0 && !registry.hasFreeRoom(entry.Rooms) {
		evaluation.Status = models.SlotOccupied
		evaluation.Cause = models.CauseRoomsExhausted
		return evaluation
	}

	if s.cfg.GlobalTeacherCheck && registry.teacherCount > 0 && len(entry.Teachers) >= registry.teacherCount {
		evaluation.Status = models.SlotOccupied
		evaluation.Cause = models.CauseTeachersExhausted
		return evaluation
	}

	return evaluation
}

// Invalidate drops every cached availability read-model. Called after any
// schedule or class write.
func (s *AvailabilityService) Invalidate(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, availabilityCachePrefix+"*"); err != nil && s.logger != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *AvailabilityService) activeSchedule(ctx context.Context, teacherID string) (*models.WeeklySchedule, error) {
	schedule, err := s.schedules.FindActiveByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher has no active weekly schedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load weekly schedule")
	}
	return schedule, nil
}

func (s *AvailabilityService) registryCensus(ctx context.Context) (registrySnapshot, error) {
	snapshot := registrySnapshot{}

	if cached, ok := s.registry.Get(registryRoomsKey); ok {
		snapshot.rooms = cached.(map[string]struct{})
	} else {
		rooms, err := s.rooms.List(ctx)
		if err != nil {
			return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room registry")
		}
		active := make(map[string]struct{}, len(rooms))
		for _, room := range rooms {
			if room.Status != models.RoomInactive {
				active[room.ID] = struct{}{}
			}
		}
		snapshot.rooms = active
		s.registry.SetDefault(registryRoomsKey, active)
	}

	if cached, ok := s.registry.Get(registryTeachersKey); ok {
		snapshot.teacherCount = cached.(int)
	} else {
		ids, err := s.teachers.ListActiveIDs(ctx)
		if err != nil {
			return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher roster")
		}
		snapshot.teacherCount = len(ids)
		s.registry.SetDefault(registryTeachersKey, snapshot.teacherCount)
	}

	return snapshot, nil
}

// FlushRegistry clears the memoised registry census. Room registry writes call
// this so capacity changes show up without waiting out the TTL.
func (s *AvailabilityService) FlushRegistry() {
	s.registry.Delete(registryRoomsKey)
	s.registry.Delete(registryTeachersKey)
}

func containsSlot(slots []models.Slot, target models.Slot) bool {
	for _, slot := range slots {
		if slot == target {
			return true
		}
	}
	return false
}
