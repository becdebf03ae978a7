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

const classColumns = `id, schedule_id, teacher_id, room_id, weekday, start_time, end_time,
	specialty, observations, reason, state, created_at, updated_at`

// ClassRepository manages persistence for booked classes and their beneficiaries.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Snapshot returns every class record in every state, without beneficiaries.
// This feeds the occupancy index, which is rebuilt per evaluation request.
func (r *ClassRepository) Snapshot(ctx context.Context) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes ORDER BY weekday, start_time`, classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("snapshot classes: %w", err)
	}
	return classes, nil
}

// ListByTeacher returns a teacher's classes in all states, beneficiaries attached.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE teacher_id = $1 ORDER BY weekday, start_time`, classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher classes: %w", err)
	}
	for i := range classes {
		if err := r.attachBeneficiaries(ctx, &classes[i]); err != nil {
			return nil, err
		}
	}
	return classes, nil
}

// FindByID fetches one class with its beneficiaries.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE id = $1`, classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	if err := r.attachBeneficiaries(ctx, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

// CreateBooked inserts a class and its beneficiary links in one transaction.
// When reopenClassID is set, the displaced cancelled class moves to
// rescheduled in the same transaction, vacating the slot's unique indexes
// before the insert. A losing concurrent writer surfaces a pq
// unique_violation on classes_slot_teacher or classes_slot_room.
func (r *ClassRepository) CreateBooked(ctx context.Context, class *models.Class, enrollmentIDs []string, reopenClassID string) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	class.State = models.ClassScheduled

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if reopenClassID != "" {
		const reopen = `UPDATE classes SET state = 'rescheduled', updated_at = $2
			WHERE id = $1 AND state = 'cancelled'`
		var result sql.Result
		result, err = tx.ExecContext(ctx, reopen, reopenClassID, now)
		if err != nil {
			return fmt.Errorf("reopen cancelled class: %w", err)
		}
		if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
			err = sql.ErrNoRows
			return fmt.Errorf("reopen cancelled class %s: %w", reopenClassID, err)
		}
	}

	const insertClass = `INSERT INTO classes (id, schedule_id, teacher_id, room_id, weekday, start_time, end_time,
			specialty, observations, reason, state, created_at, updated_at)
		VALUES (:id, :schedule_id, :teacher_id, :room_id, :weekday, :start_time, :end_time,
			:specialty, :observations, :reason, :state, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertClass, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}

	if err = insertBeneficiaries(ctx, tx, class.ID, enrollmentIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// FindBlocking returns the class currently holding the slot for the given
// teacher or room, if any. Used to describe a booking conflict after a
// unique_violation.
func (r *ClassRepository) FindBlocking(ctx context.Context, weekday models.Weekday, startTime, teacherID, roomID string) (*models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes
		WHERE weekday = $1 AND start_time = $2 AND state IN ('scheduled', 'cancelled')
			AND (teacher_id = $3 OR room_id = $4)
		LIMIT 1`, classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, weekday, startTime, teacherID, roomID); err != nil {
		return nil, err
	}
	return &class, nil
}

// UpdateState applies a lifecycle transition to a single class record.
func (r *ClassRepository) UpdateState(ctx context.Context, id string, state models.ClassState, reason string) error {
	const query = `UPDATE classes SET state = $2, reason = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update class state: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateDetails replaces the beneficiary list and observations without
// touching state or slot.
func (r *ClassRepository) UpdateDetails(ctx context.Context, id string, enrollmentIDs []string, observations string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateClass = `UPDATE classes SET observations = $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateClass, id, observations, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class: %w", err)
	}

	const clear = `DELETE FROM class_beneficiaries WHERE class_id = $1`
	if _, err = tx.ExecContext(ctx, clear, id); err != nil {
		return fmt.Errorf("clear beneficiaries: %w", err)
	}

	if err = insertBeneficiaries(ctx, tx, id, enrollmentIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class update: %w", err)
	}
	return nil
}

// Delete removes a class record outright. Callers must have verified the
// beneficiary list is empty.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM classes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ClassRepository) attachBeneficiaries(ctx context.Context, class *models.Class) error {
	const query = `SELECT cb.class_id, cb.enrollment_id, cb.position,
			COALESCE(e.beneficiary_name, '') AS beneficiary_name, COALESCE(e.course, '') AS course
		FROM class_beneficiaries cb
		LEFT JOIN enrollments e ON e.id = cb.enrollment_id
		WHERE cb.class_id = $1 ORDER BY cb.position`
	var beneficiaries []models.ClassBeneficiary
	if err := r.db.SelectContext(ctx, &beneficiaries, query, class.ID); err != nil {
		return fmt.Errorf("load class beneficiaries: %w", err)
	}
	class.Beneficiaries = beneficiaries
	return nil
}

func insertBeneficiaries(ctx context.Context, tx *sqlx.Tx, classID string, enrollmentIDs []string) error {
	const query = `INSERT INTO class_beneficiaries (class_id, enrollment_id, position) VALUES ($1, $2, $3)`
	for i, enrollmentID := range enrollmentIDs {
		if _, err := tx.ExecContext(ctx, query, classID, enrollmentID, i+1); err != nil {
			return fmt.Errorf("link beneficiary %s: %w", enrollmentID, err)
		}
	}
	return nil
}
