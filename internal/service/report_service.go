package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/academia-hub/agenda-api/internal/dto"
	"github.com/academia-hub/agenda-api/internal/models"
	"github.com/academia-hub/agenda-api/pkg/config"
	appErrors "github.com/academia-hub/agenda-api/pkg/errors"
	"github.com/academia-hub/agenda-api/pkg/export"
	"github.com/academia-hub/agenda-api/pkg/jobs"
	"github.com/academia-hub/agenda-api/pkg/storage"
)

const reportJobType = "agenda_export"

type agendaSource interface {
	Evaluate(ctx context.Context, teacherID string) (*dto.AvailabilityResponse, error)
}

// ReportService generates agenda exports asynchronously. Jobs and their
// status live in memory; the rendered files land in local storage and are
// served through signed, expiring download tokens.
type ReportService struct {
	availability agendaSource
	teachers     teacherFinder
	queue        *jobs.Queue
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	store        *storage.LocalStorage
	signer       *storage.SignedURLSigner
	logger       *zap.Logger

	mu      sync.RWMutex
	reports map[string]*models.AgendaReport
}

// NewReportService wires the report pipeline.
func NewReportService(
	availability agendaSource,
	teachers teacherFinder,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	logger *zap.Logger,
	cfg config.ReportsConfig,
) *ReportService {
	s := &ReportService{
		availability: availability,
		teachers:     teachers,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		store:        store,
		signer:       signer,
		logger:       logger,
		reports:      make(map[string]*models.AgendaReport),
	}
	s.queue = jobs.NewQueue("agenda-reports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Request queues an agenda export for a teacher.
func (s *ReportService) Request(ctx context.Context, req dto.CreateReportRequest) (*dto.ReportResponse, error) {
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher")
	}

	report := &models.AgendaReport{
		ID:          uuid.NewString(),
		TeacherID:   req.TeacherID,
		Format:      strings.ToLower(req.Format),
		Status:      models.ReportPending,
		RequestedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.reports[report.ID] = report
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: report.ID, Type: reportJobType, Payload: report.ID}); err != nil {
		s.markFailed(report.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "queue report")
	}

	return s.respond(report), nil
}

// Get returns a report's status, with a signed download link once ready.
func (s *ReportService) Get(ctx context.Context, id string) (*dto.ReportResponse, error) {
	s.mu.RLock()
	report, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return s.respond(report), nil
}

// Download validates a signed token and returns the rendered file.
func (s *ReportService) Download(ctx context.Context, token string) (string, []byte, error) {
	reportID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	s.mu.RLock()
	report, ok := s.reports[reportID]
	s.mu.RUnlock()
	if !ok || report.Status != models.ReportReady {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, "report not available")
	}

	data, err := s.store.Read(relPath)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read report file")
	}
	return fmt.Sprintf("agenda-%s.%s", report.TeacherID, report.Format), data, nil
}

func (s *ReportService) respond(report *models.AgendaReport) *dto.ReportResponse {
	s.mu.RLock()
	snapshot := *report
	s.mu.RUnlock()

	response := &dto.ReportResponse{AgendaReport: snapshot}
	if snapshot.Status == models.ReportReady && snapshot.FilePath != "" {
		if token, _, err := s.signer.Generate(snapshot.ID, snapshot.FilePath); err == nil {
			response.DownloadURL = "reports/download/" + token
		}
	}
	return response
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	reportID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	s.mu.Lock()
	report, found := s.reports[reportID]
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("report %s vanished", reportID)
	}
	report.Status = models.ReportProcessing
	teacherID := report.TeacherID
	format := report.Format
	s.mu.Unlock()

	dataset, subtitle, err := s.buildDataset(ctx, teacherID)
	if err != nil {
		s.markFailed(reportID, err)
		return err
	}

	var payload []byte
	switch format {
	case "pdf":
		payload, err = s.pdf.Render(dataset, "Weekly Agenda", subtitle)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.markFailed(reportID, err)
		return err
	}

	relPath := fmt.Sprintf("agenda/%s.%s", reportID, format)
	if _, err := s.store.Save(relPath, payload); err != nil {
		s.markFailed(reportID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	report.Status = models.ReportReady
	report.FilePath = relPath
	report.Error = ""
	report.CompletedAt = &now
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("agenda report ready",
			zap.String("report_id", reportID),
			zap.String("teacher_id", teacherID),
			zap.String("format", format))
	}
	return nil
}

// buildDataset renders the evaluated weekly horizon as a flat table, one row
// per slot.
func (s *ReportService) buildDataset(ctx context.Context, teacherID string) (export.Dataset, string, error) {
	evaluation, err := s.availability.Evaluate(ctx, teacherID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Status", "Detail"},
		Rows:    make([]map[string]string, 0, len(evaluation.Slots)),
	}
	for _, slot := range evaluation.Slots {
		detail := slot.Cause
		if slot.Status == models.SlotReopenable {
			detail = slot.ReopenNote
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":    slot.WeekdayName,
			"Start":  slot.StartTime,
			"End":    slot.EndTime,
			"Status": string(slot.Status),
			"Detail": detail,
		})
	}

	subtitle := fmt.Sprintf("%s, generated %s", teacher.FullName, time.Now().UTC().Format("2006-01-02 15:04"))
	return dataset, subtitle, nil
}

func (s *ReportService) markFailed(id string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report, ok := s.reports[id]; ok {
		report.Status = models.ReportFailed
		report.Error = cause.Error()
	}
}
