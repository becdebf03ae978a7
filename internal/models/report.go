package models

import "time"

// ReportStatus tracks an agenda report job.
type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportProcessing ReportStatus = "processing"
	ReportReady      ReportStatus = "ready"
	ReportFailed     ReportStatus = "failed"
)

// AgendaReport is an asynchronous export of a teacher's weekly agenda grid.
type AgendaReport struct {
	ID          string       `json:"id"`
	TeacherID   string       `json:"teacher_id"`
	Format      string       `json:"format"`
	Status      ReportStatus `json:"status"`
	FilePath    string       `json:"-"`
	Error       string       `json:"error,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
