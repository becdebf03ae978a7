package dto

import "github.com/academia-hub/agenda-api/internal/models"

// CreateReportRequest queues an agenda export for one teacher.
type CreateReportRequest struct {
	TeacherID string `json:"teacher_id" binding:"required"`
	Format    string `json:"format" binding:"required,oneof=csv pdf"`
}

// ReportResponse describes a report job, with a signed download link once the
// file is ready.
type ReportResponse struct {
	models.AgendaReport
	DownloadURL string `json:"download_url,omitempty"`
}
