package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/academia-hub/agenda-api/internal/models"
)

// EnrollmentRepository reads opaque enrollment references from the external
// sales store. Only display fields are ever selected.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByIDs resolves a set of enrollment references.
func (r *EnrollmentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Enrollment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, beneficiary_name, course, created_at FROM enrollments WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build enrollment query: %w", err)
	}
	query = r.db.Rebind(query)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	return enrollments, nil
}
