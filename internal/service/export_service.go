package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wellness-api/internal/models"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
	"github.com/noah-isme/wellness-api/pkg/export"
)

var appointmentExportHeaders = []string{"ID", "Counselor", "Student ID", "Start", "End", "Status", "Notes"}

type counselorResolver interface {
	GetByID(ctx context.Context, id int64) (*models.Counselor, error)
}

type appointmentLister interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error)
	ListByCounselor(ctx context.Context, counselorID int64) ([]models.Appointment, error)
}

// ExportService renders appointment data as downloadable CSV and PDF
// documents.
type ExportService struct {
	appointments appointmentLister
	counselors   counselorResolver
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	logger       *zap.Logger
}

// NewExportService creates an export service.
func NewExportService(appointments appointmentLister, counselors counselorResolver, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		appointments: appointments,
		counselors:   counselors,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		logger:       logger,
	}
}

// AppointmentsCSV exports appointments matching the filter as CSV.
func (s *ExportService) AppointmentsCSV(ctx context.Context, filter models.AppointmentFilter) ([]byte, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	appointments, _, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := s.buildDataset(ctx, appointments)
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}

	s.logger.Info("appointments exported", zap.String("format", "csv"), zap.Int("rows", len(appointments)))
	return payload, nil
}

// DailySchedulePDF exports a counselor's appointments for one day as PDF.
func (s *ExportService) DailySchedulePDF(ctx context.Context, counselorID int64, day time.Time) ([]byte, error) {
	counselor, err := s.counselors.GetByID(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	all, err := s.appointments.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)
	var scheduled []models.Appointment
	for _, appt := range all {
		if appt.StartTime.Before(endOfDay) && appt.EndTime.After(startOfDay) {
			scheduled = append(scheduled, appt)
		}
	}

	title := fmt.Sprintf("Schedule for %s on %s", counselor.FullName(), startOfDay.Format("2006-01-02"))
	dataset := s.buildDataset(ctx, scheduled)
	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}

	s.logger.Info("daily schedule exported",
		zap.String("format", "pdf"),
		zap.Int64("counselor_id", counselorID),
		zap.Int("rows", len(scheduled)))
	return payload, nil
}

func (s *ExportService) buildDataset(ctx context.Context, appointments []models.Appointment) export.Dataset {
	names := make(map[int64]string)
	rows := make([]map[string]string, 0, len(appointments))
	for _, appt := range appointments {
		name, ok := names[appt.CounselorID]
		if !ok {
			name = strconv.FormatInt(appt.CounselorID, 10)
			if counselor, err := s.counselors.GetByID(ctx, appt.CounselorID); err == nil {
				name = counselor.FullName()
			}
			names[appt.CounselorID] = name
		}
		rows = append(rows, map[string]string{
			"ID":         strconv.FormatInt(appt.ID, 10),
			"Counselor":  name,
			"Student ID": strconv.FormatInt(appt.StudentID, 10),
			"Start":      appt.StartTime.Format("2006-01-02 15:04"),
			"End":        appt.EndTime.Format("2006-01-02 15:04"),
			"Status":     string(appt.Status),
			"Notes":      appt.Notes,
		})
	}
	return export.Dataset{Headers: appointmentExportHeaders, Rows: rows}
}
