package models

import "time"

// Enrollment is an opaque reference into the external sales/enrollment store.
// The engine counts enrollments for capacity and reads name/course for display only.
type Enrollment struct {
	ID              string    `db:"id" json:"id"`
	BeneficiaryName string    `db:"beneficiary_name" json:"beneficiary_name"`
	Course          string    `db:"course" json:"course"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
