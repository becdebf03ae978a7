package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/academia-hub/agenda-api/internal/models"
)

type stubSchedules struct {
	active    map[string]*models.WeeklySchedule
	byID      map[string]*models.WeeklySchedule
	created   []*models.WeeklySchedule
	createErr error
}

func (s *stubSchedules) FindActiveByTeacher(ctx context.Context, teacherID string) (*models.WeeklySchedule, error) {
	if schedule, ok := s.active[teacherID]; ok {
		cp := *schedule
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubSchedules) FindByID(ctx context.Context, id string) (*models.WeeklySchedule, error) {
	if schedule, ok := s.byID[id]; ok {
		cp := *schedule
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubSchedules) HasActive(ctx context.Context, teacherID string) (bool, error) {
	_, ok := s.active[teacherID]
	return ok, nil
}

func (s *stubSchedules) Create(ctx context.Context, schedule *models.WeeklySchedule) error {
	if s.createErr != nil {
		return s.createErr
	}
	if schedule.ID == "" {
		schedule.ID = "sch-generated"
	}
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = schedule.CreatedAt
	cp := *schedule
	if s.active == nil {
		s.active = make(map[string]*models.WeeklySchedule)
	}
	if s.byID == nil {
		s.byID = make(map[string]*models.WeeklySchedule)
	}
	s.active[schedule.TeacherID] = &cp
	s.byID[schedule.ID] = &cp
	s.created = append(s.created, &cp)
	return nil
}

func (s *stubSchedules) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, reason string) error {
	schedule, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	schedule.Status = status
	schedule.Reason = reason
	if status != models.ScheduleActive {
		delete(s.active, schedule.TeacherID)
	}
	return nil
}

type stubClasses struct {
	snapshot     []models.Class
	byID         map[string]*models.Class
	bookErr      error
	booked       []*models.Class
	reopened     []string
	stateUpdates map[string]models.ClassState
	deleted      []string
	blocking     *models.Class
}

func (s *stubClasses) Snapshot(ctx context.Context) ([]models.Class, error) {
	return append([]models.Class(nil), s.snapshot...), nil
}

func (s *stubClasses) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	var classes []models.Class
	for _, class := range s.snapshot {
		if class.TeacherID == teacherID {
			classes = append(classes, class)
		}
	}
	return classes, nil
}

func (s *stubClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := s.byID[id]; ok {
		cp := *class
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubClasses) FindBlocking(ctx context.Context, weekday models.Weekday, startTime, teacherID, roomID string) (*models.Class, error) {
	if s.blocking != nil {
		cp := *s.blocking
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubClasses) CreateBooked(ctx context.Context, class *models.Class, enrollmentIDs []string, reopenClassID string) error {
	if s.bookErr != nil {
		return s.bookErr
	}
	if class.ID == "" {
		class.ID = fmt.Sprintf("class-%d", len(s.booked)+1)
	}
	class.State = models.ClassScheduled
	if reopenClassID != "" {
		s.reopened = append(s.reopened, reopenClassID)
		for i := range s.snapshot {
			if s.snapshot[i].ID == reopenClassID {
				s.snapshot[i].State = models.ClassRescheduled
			}
		}
		if old, ok := s.byID[reopenClassID]; ok {
			old.State = models.ClassRescheduled
		}
	}
	cp := *class
	s.snapshot = append(s.snapshot, cp)
	if s.byID == nil {
		s.byID = make(map[string]*models.Class)
	}
	s.byID[class.ID] = &cp
	s.booked = append(s.booked, &cp)
	return nil
}

func (s *stubClasses) UpdateState(ctx context.Context, id string, state models.ClassState, reason string) error {
	class, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	class.State = state
	if reason != "" {
		class.Reason = reason
	}
	for i := range s.snapshot {
		if s.snapshot[i].ID == id {
			s.snapshot[i].State = state
			s.snapshot[i].Reason = class.Reason
		}
	}
	if s.stateUpdates == nil {
		s.stateUpdates = make(map[string]models.ClassState)
	}
	s.stateUpdates[id] = state
	return nil
}

func (s *stubClasses) UpdateDetails(ctx context.Context, id string, enrollmentIDs []string, observations string) error {
	class, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	class.Observations = observations
	return nil
}

func (s *stubClasses) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubRooms struct {
	rooms         map[string]*models.Room
	statusUpdates map[string]models.RoomStatus
}

func (s *stubRooms) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	for _, room := range s.rooms {
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

func (s *stubRooms) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := s.rooms[id]; ok {
		cp := *room
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubRooms) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = "room-generated"
	}
	if s.rooms == nil {
		s.rooms = make(map[string]*models.Room)
	}
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *stubRooms) UpdateStatus(ctx context.Context, id string, status models.RoomStatus) error {
	room, ok := s.rooms[id]
	if !ok {
		return sql.ErrNoRows
	}
	room.Status = status
	if s.statusUpdates == nil {
		s.statusUpdates = make(map[string]models.RoomStatus)
	}
	s.statusUpdates[id] = status
	return nil
}

type stubTeachers struct {
	teachers map[string]*models.Teacher
}

func (s *stubTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubTeachers) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id, teacher := range s.teachers {
		if teacher.Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type stubEnrollments struct {
	enrollments map[string]models.Enrollment
}

func (s *stubEnrollments) FindByIDs(ctx context.Context, ids []string) ([]models.Enrollment, error) {
	var found []models.Enrollment
	for _, id := range ids {
		if enrollment, ok := s.enrollments[id]; ok {
			found = append(found, enrollment)
		}
	}
	return found, nil
}
