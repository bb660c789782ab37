package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-api/internal/models"
)

type mockExportAppointments struct {
	appointments []models.Appointment
}

func (m *mockExportAppointments) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	return m.appointments, &models.Pagination{Page: 1, PageSize: 100, TotalCount: len(m.appointments)}, nil
}

func (m *mockExportAppointments) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, appt := range m.appointments {
		if appt.CounselorID == counselorID {
			out = append(out, appt)
		}
	}
	return out, nil
}

type mockExportCounselors struct {
	counselor *models.Counselor
}

func (m *mockExportCounselors) GetByID(ctx context.Context, id int64) (*models.Counselor, error) {
	cp := *m.counselor
	cp.ID = id
	return &cp, nil
}

func exportFixture() ([]models.Appointment, *models.Counselor) {
	start := time.Date(2026, time.September, 14, 10, 0, 0, 0, time.UTC)
	appointments := []models.Appointment{
		{
			ID: 1, CounselorID: 1, StudentID: 10,
			StartTime: start, EndTime: start.Add(time.Hour),
			Status: models.StatusScheduled, Notes: "intake",
		},
		{
			ID: 2, CounselorID: 1, StudentID: 11,
			StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour),
			Status: models.StatusCompleted,
		},
	}
	counselor := &models.Counselor{ID: 1, FirstName: "Maya", LastName: "Tan", Email: "maya.tan@example.edu", Active: true}
	return appointments, counselor
}

func TestExportServiceAppointmentsCSV(t *testing.T) {
	appointments, counselor := exportFixture()
	svc := NewExportService(&mockExportAppointments{appointments: appointments}, &mockExportCounselors{counselor: counselor}, nil)

	payload, err := svc.AppointmentsCSV(context.Background(), models.AppointmentFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Counselor")
	assert.Contains(t, lines[1], "Maya Tan")
	assert.Contains(t, lines[1], "SCHEDULED")
	assert.Contains(t, lines[2], "COMPLETED")
}

func TestExportServiceDailySchedulePDF(t *testing.T) {
	appointments, counselor := exportFixture()
	svc := NewExportService(&mockExportAppointments{appointments: appointments}, &mockExportCounselors{counselor: counselor}, nil)

	payload, err := svc.DailySchedulePDF(context.Background(), 1, time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestExportServiceDailySchedulePDFEmptyDay(t *testing.T) {
	_, counselor := exportFixture()
	svc := NewExportService(&mockExportAppointments{}, &mockExportCounselors{counselor: counselor}, nil)

	payload, err := svc.DailySchedulePDF(context.Background(), 1, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}
