package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academia-hub/agenda-api/internal/models"
)

// ScheduleRepository manages persistence for weekly availability schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindActiveByTeacher fetches the single active schedule for a teacher,
// windows included. Returns sql.ErrNoRows when none exists.
func (r *ScheduleRepository) FindActiveByTeacher(ctx context.Context, teacherID string) (*models.WeeklySchedule, error) {
	const query = `SELECT id, teacher_id, status, reason, created_at, updated_at
		FROM weekly_schedules WHERE teacher_id = $1 AND status = 'active'`
	var schedule models.WeeklySchedule
	if err := r.db.GetContext(ctx, &schedule, query, teacherID); err != nil {
		return nil, err
	}
	if err := r.attachWindows(ctx, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindByID fetches a schedule by ID, windows included.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.WeeklySchedule, error) {
	const query = `SELECT id, teacher_id, status, reason, created_at, updated_at
		FROM weekly_schedules WHERE id = $1`
	var schedule models.WeeklySchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	if err := r.attachWindows(ctx, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// HasActive reports whether a teacher already has an active schedule.
func (r *ScheduleRepository) HasActive(ctx context.Context, teacherID string) (bool, error) {
	const query = `SELECT 1 FROM weekly_schedules WHERE teacher_id = $1 AND status = 'active' LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active schedule: %w", err)
	}
	return true, nil
}

// Create inserts a schedule and its windows in one transaction. The partial
// unique index on (teacher_id) WHERE status='active' backs the single-active
// invariant; a violation surfaces as a pq unique_violation.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.WeeklySchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSchedule = `INSERT INTO weekly_schedules (id, teacher_id, status, reason, created_at, updated_at)
		VALUES (:id, :teacher_id, :status, :reason, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertSchedule, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	const insertWindow = `INSERT INTO schedule_windows (id, schedule_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)`
	for i := range schedule.Windows {
		window := &schedule.Windows[i]
		if window.ID == "" {
			window.ID = uuid.NewString()
		}
		window.ScheduleID = schedule.ID
		if _, err = tx.ExecContext(ctx, insertWindow, window.ID, window.ScheduleID, window.Weekday, window.StartTime, window.EndTime); err != nil {
			return fmt.Errorf("create schedule window: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create schedule: %w", err)
	}
	return nil
}

// UpdateStatus transitions a schedule's lifecycle state.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, reason string) error {
	const query = `UPDATE weekly_schedules SET status = $2, reason = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ScheduleRepository) attachWindows(ctx context.Context, schedule *models.WeeklySchedule) error {
	const query = `SELECT id, schedule_id, weekday, start_time, end_time
		FROM schedule_windows WHERE schedule_id = $1 ORDER BY weekday`
	var windows []models.ScheduleWindow
	if err := r.db.SelectContext(ctx, &windows, query, schedule.ID); err != nil {
		return fmt.Errorf("load schedule windows: %w", err)
	}
	schedule.Windows = windows
	return nil
}
