package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/wellness-api/internal/models"
	"github.com/noah-isme/wellness-api/internal/scheduling"
	"github.com/noah-isme/wellness-api/pkg/config"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
)

// BookingLimits bounds appointment duration and the per-student daily quota.
type BookingLimits struct {
	MinDuration         time.Duration
	MaxDuration         time.Duration
	MaxPerStudentPerDay int
}

// LimitsFromConfig maps booking config onto policy limits, falling back to
// the office defaults for unset values.
func LimitsFromConfig(cfg config.BookingConfig) BookingLimits {
	limits := BookingLimits{
		MinDuration:         cfg.MinDuration,
		MaxDuration:         cfg.MaxDuration,
		MaxPerStudentPerDay: cfg.MaxPerDay,
	}
	if limits.MinDuration <= 0 {
		limits.MinDuration = 15 * time.Minute
	}
	if limits.MaxDuration <= 0 {
		limits.MaxDuration = 4 * time.Hour
	}
	if limits.MaxPerStudentPerDay <= 0 {
		limits.MaxPerStudentPerDay = 2
	}
	return limits
}

type policyStore interface {
	FindByCounselorAndDateRange(ctx context.Context, counselorID int64, start, end time.Time) ([]models.Appointment, error)
	CountByStudentAndDateRange(ctx context.Context, studentID int64, start, end time.Time, excludeID int64) (int, error)
}

type counselorDirectory interface {
	Exists(ctx context.Context, counselorID int64) (bool, error)
}

// BookingPolicy applies the booking rules in a fixed order and stops at the
// first violation. Cheap local checks run before anything that needs a store
// round-trip.
type BookingPolicy struct {
	store     policyStore
	directory counselorDirectory
	clock     Clock
	limits    BookingLimits
}

// NewBookingPolicy instantiates the policy.
func NewBookingPolicy(store policyStore, directory counselorDirectory, clock Clock, limits BookingLimits) *BookingPolicy {
	if clock == nil {
		clock = SystemClock()
	}
	return &BookingPolicy{store: store, directory: directory, clock: clock, limits: limits}
}

// Validate runs every rule against the request and returns the first
// violation, or nil when the booking may proceed.
func (p *BookingPolicy) Validate(ctx context.Context, req models.BookingRequest) error {
	if err := p.checkRequiredFields(req); err != nil {
		return err
	}
	if err := p.checkTimeRange(req); err != nil {
		return err
	}
	if err := p.checkCounselorExists(ctx, req); err != nil {
		return err
	}
	if err := p.checkAvailability(ctx, req); err != nil {
		return err
	}
	return p.checkStudentQuota(ctx, req)
}

func (p *BookingPolicy) checkRequiredFields(req models.BookingRequest) error {
	switch {
	case req.CounselorID <= 0:
		return appErrors.Clone(appErrors.ErrValidation, "counselor id is required")
	case req.StudentID <= 0:
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	case req.StartTime.IsZero():
		return appErrors.Clone(appErrors.ErrValidation, "start time is required")
	case req.EndTime.IsZero():
		return appErrors.Clone(appErrors.ErrValidation, "end time is required")
	}
	return nil
}

func (p *BookingPolicy) checkTimeRange(req models.BookingRequest) error {
	if !req.EndTime.After(req.StartTime) {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if req.StartTime.Before(p.clock.Now()) {
		return appErrors.Clone(appErrors.ErrValidation, "start time cannot be in the past")
	}

	duration := req.EndTime.Sub(req.StartTime)
	if duration < p.limits.MinDuration {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("minimum appointment duration is %d minutes", int(p.limits.MinDuration.Minutes())))
	}
	if duration > p.limits.MaxDuration {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("maximum appointment duration is %d hours", int(p.limits.MaxDuration.Hours())))
	}
	return nil
}

func (p *BookingPolicy) checkCounselorExists(ctx context.Context, req models.BookingRequest) error {
	exists, err := p.directory.Exists(ctx, req.CounselorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to verify counselor")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "counselor not found")
	}
	return nil
}

func (p *BookingPolicy) checkAvailability(ctx context.Context, req models.BookingRequest) error {
	existing, err := p.store.FindByCounselorAndDateRange(ctx, req.CounselorID, req.StartTime, req.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check time slot availability")
	}

	conflicts := scheduling.FindConflicts(req, existing)
	if len(conflicts) == 0 {
		return nil
	}

	details := make([]models.AppointmentConflict, 0, len(conflicts))
	for _, appt := range conflicts {
		details = append(details, models.AppointmentConflict{
			AppointmentID: appt.ID,
			CounselorID:   appt.CounselorID,
			StartTime:     appt.StartTime,
			EndTime:       appt.EndTime,
			Status:        appt.Status,
		})
	}
	domainErr := &models.BookingConflictError{
		Message:   "the requested time slot is not available",
		Conflicts: details,
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, domainErr.Message)
}

func (p *BookingPolicy) checkStudentQuota(ctx context.Context, req models.BookingRequest) error {
	startOfDay := time.Date(req.StartTime.Year(), req.StartTime.Month(), req.StartTime.Day(), 0, 0, 0, 0, req.StartTime.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	count, err := p.store.CountByStudentAndDateRange(ctx, req.StudentID, startOfDay, endOfDay, req.ExcludeAppointmentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check student appointment quota")
	}
	if count >= p.limits.MaxPerStudentPerDay {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("maximum of %d appointments per day allowed", p.limits.MaxPerStudentPerDay))
	}
	return nil
}
