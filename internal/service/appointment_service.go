package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-api/internal/models"
	"github.com/noah-isme/wellness-api/internal/repository"
	"github.com/noah-isme/wellness-api/internal/scheduling"
	"github.com/noah-isme/wellness-api/pkg/config"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
)

type appointmentStore interface {
	Create(ctx context.Context, appt *models.Appointment) error
	Update(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id int64) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	ListByCounselor(ctx context.Context, counselorID int64) ([]models.Appointment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Appointment, error)
	FindByCounselorAndDateRange(ctx context.Context, counselorID int64, start, end time.Time) ([]models.Appointment, error)
	CountByStudentAndDateRange(ctx context.Context, studentID int64, start, end time.Time, excludeID int64) (int, error)
}

// BookAppointmentRequest describes the payload for booking an appointment.
type BookAppointmentRequest struct {
	CounselorID int64     `json:"counselor_id" validate:"required,gt=0"`
	StudentID   int64     `json:"student_id" validate:"required,gt=0"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Notes       string    `json:"notes"`
}

// AppointmentService is the scheduling engine: it owns booking validation,
// the appointment state machine and availability lookups. It is the only
// writer of appointment status and timestamps.
type AppointmentService struct {
	store        appointmentStore
	policy       *BookingPolicy
	hours        scheduling.WorkingHours
	slotDuration time.Duration
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAppointmentService instantiates the scheduling service.
func NewAppointmentService(store appointmentStore, policy *BookingPolicy, cfg config.BookingConfig, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) (*AppointmentService, error) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	start := cfg.WorkdayStart
	if start == "" {
		start = "09:00"
	}
	end := cfg.WorkdayEnd
	if end == "" {
		end = "17:00"
	}
	hours, err := scheduling.ParseWorkingHours(start, end)
	if err != nil {
		return nil, fmt.Errorf("invalid working hours: %w", err)
	}
	slotDuration := cfg.SlotDuration
	if slotDuration <= 0 {
		slotDuration = 30 * time.Minute
	}

	return &AppointmentService{
		store:        store,
		policy:       policy,
		hours:        hours,
		slotDuration: slotDuration,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}, nil
}

// Book validates the request against the booking policy and persists a new
// SCHEDULED appointment. Either the whole operation succeeds or nothing is
// persisted.
func (s *AppointmentService) Book(ctx context.Context, req BookAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordBooking("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	booking := models.BookingRequest{
		CounselorID: req.CounselorID,
		StudentID:   req.StudentID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Notes:       req.Notes,
	}
	if err := s.policy.Validate(ctx, booking); err != nil {
		if appErrors.HasCode(err, appErrors.ErrConflict.Code) {
			s.metrics.RecordBooking("conflict")
		} else {
			s.metrics.RecordBooking("rejected")
		}
		return nil, err
	}

	appt := &models.Appointment{
		CounselorID: booking.CounselorID,
		StudentID:   booking.StudentID,
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		Status:      models.StatusScheduled,
		Notes:       booking.Notes,
	}
	if err := s.store.Create(ctx, appt); err != nil {
		// A concurrent booking can win the race between the policy check
		// and the insert; the storage exclusion constraint reports it as
		// an overlap, which is a conflict, not an infrastructure failure.
		if errors.Is(err, repository.ErrOverlap) {
			s.metrics.RecordBooking("conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "the requested time slot is not available")
		}
		s.metrics.RecordBooking("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to save appointment")
	}

	s.metrics.RecordBooking("created")
	s.invalidateAvailability(ctx, appt.CounselorID)
	s.logger.Info("appointment booked",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("counselor_id", appt.CounselorID),
		zap.Int64("student_id", appt.StudentID),
		zap.Time("start_time", appt.StartTime))
	return appt, nil
}

// Cancel transitions a SCHEDULED appointment to CANCELLED. A second cancel
// is an error, not a no-op.
func (s *AppointmentService) Cancel(ctx context.Context, appointmentID int64, reason string) (*models.Appointment, error) {
	appt, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case models.StatusCompleted:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot cancel a completed appointment")
	case models.StatusCancelled:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "appointment is already cancelled")
	case models.StatusNoShow:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot cancel a no-show appointment")
	}

	appt.Status = models.StatusCancelled
	if reason != "" {
		appt.AppendNote("Cancellation reason: " + reason)
	}
	if err := s.store.Update(ctx, appt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to cancel appointment")
	}

	s.invalidateAvailability(ctx, appt.CounselorID)
	s.logger.Info("appointment cancelled", zap.Int64("appointment_id", appt.ID))
	return appt, nil
}

// Complete transitions a SCHEDULED appointment to COMPLETED.
func (s *AppointmentService) Complete(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	appt, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case models.StatusCancelled:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot complete a cancelled appointment")
	case models.StatusCompleted:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "appointment is already completed")
	case models.StatusNoShow:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot complete a no-show appointment")
	}

	appt.Status = models.StatusCompleted
	if err := s.store.Update(ctx, appt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to complete appointment")
	}

	s.invalidateAvailability(ctx, appt.CounselorID)
	s.logger.Info("appointment completed", zap.Int64("appointment_id", appt.ID))
	return appt, nil
}

// FindAvailableSlots returns the counselor's free slots for a calendar day.
// The read path is fail-open: store failures are logged and reported as no
// availability rather than propagated.
func (s *AppointmentService) FindAvailableSlots(ctx context.Context, counselorID int64, day time.Time) []models.TimeSlot {
	cacheKey := availabilityKey(counselorID, day)
	var cached []models.TimeSlot
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached
	}

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	booked, err := s.store.FindByCounselorAndDateRange(ctx, counselorID, startOfDay, endOfDay)
	if err != nil {
		s.logger.Warn("availability lookup failed, reporting no free slots",
			zap.Int64("counselor_id", counselorID),
			zap.Time("day", startOfDay),
			zap.Error(err))
		return []models.TimeSlot{}
	}

	slots := scheduling.FreeSlots(day, s.hours, s.slotDuration, booked)
	_ = s.cache.Set(ctx, cacheKey, slots, 0)
	return slots
}

// HasConflict reports whether the interval collides with an existing booking
// for the counselor. Unlike the availability read path, store failures are
// propagated so callers can tell a real conflict from an outage.
func (s *AppointmentService) HasConflict(ctx context.Context, counselorID int64, start, end time.Time, excludeID int64) (bool, error) {
	if counselorID <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "counselor id is required")
	}
	if start.IsZero() || end.IsZero() {
		return false, appErrors.Clone(appErrors.ErrValidation, "start and end times are required")
	}
	if !end.After(start) {
		return false, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	existing, err := s.store.FindByCounselorAndDateRange(ctx, counselorID, start, end)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check time slot availability")
	}

	req := models.BookingRequest{
		CounselorID:          counselorID,
		StartTime:            start,
		EndTime:              end,
		ExcludeAppointmentID: excludeID,
	}
	return len(scheduling.FindConflicts(req, existing)) > 0, nil
}

// GetByID loads a single appointment.
func (s *AppointmentService) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.load(ctx, id)
}

// List returns appointments with pagination metadata.
func (s *AppointmentService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown appointment status")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end of range must be after start")
	}

	appointments, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list appointments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return appointments, pagination, nil
}

// ListByCounselor returns a counselor's appointments.
func (s *AppointmentService) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Appointment, error) {
	if counselorID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "counselor id is required")
	}
	appointments, err := s.store.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list counselor appointments")
	}
	return appointments, nil
}

// ListByStudent returns a student's appointments.
func (s *AppointmentService) ListByStudent(ctx context.Context, studentID int64) ([]models.Appointment, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	appointments, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list student appointments")
	}
	return appointments, nil
}

func (s *AppointmentService) load(ctx context.Context, id int64) (*models.Appointment, error) {
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load appointment")
	}
	return appt, nil
}

func (s *AppointmentService) invalidateAvailability(ctx context.Context, counselorID int64) {
	_ = s.cache.InvalidatePattern(ctx, fmt.Sprintf("availability:%d:*", counselorID))
}

func availabilityKey(counselorID int64, day time.Time) string {
	return fmt.Sprintf("availability:%d:%s", counselorID, day.Format("2006-01-02"))
}
