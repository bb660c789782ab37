package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-api/internal/models"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type mockPolicyStore struct {
	appointments []models.Appointment
	rangeErr     error
	countErr     error
	lastExclude  int64
}

func (m *mockPolicyStore) FindByCounselorAndDateRange(ctx context.Context, counselorID int64, start, end time.Time) ([]models.Appointment, error) {
	if m.rangeErr != nil {
		return nil, m.rangeErr
	}
	var out []models.Appointment
	for _, appt := range m.appointments {
		if appt.CounselorID == counselorID && appt.StartTime.Before(end) && appt.EndTime.After(start) && appt.Status != models.StatusCancelled {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *mockPolicyStore) CountByStudentAndDateRange(ctx context.Context, studentID int64, start, end time.Time, excludeID int64) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.lastExclude = excludeID
	count := 0
	for _, appt := range m.appointments {
		if appt.ID == excludeID && excludeID != 0 {
			continue
		}
		if appt.StudentID == studentID && !appt.StartTime.Before(start) && appt.StartTime.Before(end) && appt.Status != models.StatusCancelled {
			count++
		}
	}
	return count, nil
}

type mockDirectory struct {
	known map[int64]bool
	err   error
}

func (m *mockDirectory) Exists(ctx context.Context, counselorID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.known[counselorID], nil
}

func newTestPolicy(store *mockPolicyStore, dir *mockDirectory, now time.Time) *BookingPolicy {
	return NewBookingPolicy(store, dir, fixedClock{now: now}, BookingLimits{
		MinDuration:         15 * time.Minute,
		MaxDuration:         4 * time.Hour,
		MaxPerStudentPerDay: 2,
	})
}

func day(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, time.September, 14, hour, minute, 0, 0, time.UTC)
}

func validRequest(t *testing.T) models.BookingRequest {
	t.Helper()
	return models.BookingRequest{
		CounselorID: 1,
		StudentID:   10,
		StartTime:   day(t, 10, 0),
		EndTime:     day(t, 11, 0),
	}
}

func TestBookingPolicyAcceptsValidRequest(t *testing.T) {
	store := &mockPolicyStore{}
	dir := &mockDirectory{known: map[int64]bool{1: true}}
	policy := newTestPolicy(store, dir, day(t, 8, 0))

	require.NoError(t, policy.Validate(context.Background(), validRequest(t)))
}

func TestBookingPolicyRequiredFields(t *testing.T) {
	store := &mockPolicyStore{}
	dir := &mockDirectory{known: map[int64]bool{1: true}}
	policy := newTestPolicy(store, dir, day(t, 8, 0))

	cases := []struct {
		name    string
		mutate  func(*models.BookingRequest)
		message string
	}{
		{"missing counselor", func(r *models.BookingRequest) { r.CounselorID = 0 }, "counselor id is required"},
		{"missing student", func(r *models.BookingRequest) { r.StudentID = 0 }, "student id is required"},
		{"missing start", func(r *models.BookingRequest) { r.StartTime = time.Time{} }, "start time is required"},
		{"missing end", func(r *models.BookingRequest) { r.EndTime = time.Time{} }, "end time is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(t)
			tc.mutate(&req)
			err := policy.Validate(context.Background(), req)
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestBookingPolicyTimeRange(t *testing.T) {
	store := &mockPolicyStore{}
	dir := &mockDirectory{known: map[int64]bool{1: true}}
	policy := newTestPolicy(store, dir, day(t, 8, 0))

	t.Run("end before start", func(t *testing.T) {
		req := validRequest(t)
		req.EndTime = req.StartTime.Add(-30 * time.Minute)
		err := policy.Validate(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "end time must be after start time")
	})

	t.Run("zero length", func(t *testing.T) {
		req := validRequest(t)
		req.EndTime = req.StartTime
		err := policy.Validate(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "end time must be after start time")
	})

	t.Run("in the past", func(t *testing.T) {
		policy := newTestPolicy(store, dir, day(t, 12, 0))
		req := validRequest(t)
		err := policy.Validate(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start time cannot be in the past")
	})

	t.Run("too short", func(t *testing.T) {
		req := validRequest(t)
		req.EndTime = req.StartTime.Add(10 * time.Minute)
		err := policy.Validate(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "minimum appointment duration is 15 minutes")
	})

	t.Run("too long", func(t *testing.T) {
		req := validRequest(t)
		req.EndTime = req.StartTime.Add(5 * time.Hour)
		err := policy.Validate(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maximum appointment duration is 4 hours")
	})
}

func TestBookingPolicyUnknownCounselor(t *testing.T) {
	store := &mockPolicyStore{}
	dir := &mockDirectory{known: map[int64]bool{}}
	policy := newTestPolicy(store, dir, day(t, 8, 0))

	err := policy.Validate(context.Background(), validRequest(t))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestBookingPolicyConflictDetection(t *testing.T) {
	existing := models.Appointment{
		ID:          7,
		CounselorID: 1,
		StudentID:   99,
		StartTime:   day(t, 10, 0),
		EndTime:     day(t, 11, 0),
		Status:      models.StatusScheduled,
	}
	dir := &mockDirectory{known: map[int64]bool{1: true}}

	t.Run("overlapping request is rejected with details", func(t *testing.T) {
		store := &mockPolicyStore{appointments: []models.Appointment{existing}}
		policy := newTestPolicy(store, dir, day(t, 8, 0))

		req := validRequest(t)
		req.StartTime = day(t, 10, 30)
		req.EndTime = day(t, 11, 30)
		err := policy.Validate(context.Background(), req)
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict.Code))

		var conflictErr *models.BookingConflictError
		require.True(t, errors.As(err, &conflictErr))
		require.Len(t, conflictErr.Conflicts, 1)
		assert.Equal(t, int64(7), conflictErr.Conflicts[0].AppointmentID)
	})

	t.Run("back to back is allowed", func(t *testing.T) {
		store := &mockPolicyStore{appointments: []models.Appointment{existing}}
		policy := newTestPolicy(store, dir, day(t, 8, 0))

		req := validRequest(t)
		req.StartTime = day(t, 11, 0)
		req.EndTime = day(t, 12, 0)
		require.NoError(t, policy.Validate(context.Background(), req))
	})

	t.Run("cancelled booking does not block", func(t *testing.T) {
		cancelled := existing
		cancelled.Status = models.StatusCancelled
		store := &mockPolicyStore{appointments: []models.Appointment{cancelled}}
		policy := newTestPolicy(store, dir, day(t, 8, 0))

		req := validRequest(t)
		req.StartTime = day(t, 10, 30)
		req.EndTime = day(t, 11, 30)
		require.NoError(t, policy.Validate(context.Background(), req))
	})
}

func TestBookingPolicyStudentQuota(t *testing.T) {
	dir := &mockDirectory{known: map[int64]bool{1: true, 2: true, 3: true}}
	makeAppt := func(id, counselorID int64, startHour int) models.Appointment {
		return models.Appointment{
			ID:          id,
			CounselorID: counselorID,
			StudentID:   10,
			StartTime:   day(t, startHour, 0),
			EndTime:     day(t, startHour+1, 0),
			Status:      models.StatusScheduled,
		}
	}

	t.Run("third booking same day rejected", func(t *testing.T) {
		store := &mockPolicyStore{appointments: []models.Appointment{
			makeAppt(1, 2, 9),
			makeAppt(2, 3, 13),
		}}
		policy := newTestPolicy(store, dir, day(t, 8, 0))

		req := validRequest(t)
		req.StartTime = day(t, 15, 0)
		req.EndTime = day(t, 16, 0)
		err := policy.Validate(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maximum of 2 appointments per day allowed")
	})

	t.Run("exclude id frees up its own slot in the count", func(t *testing.T) {
		store := &mockPolicyStore{appointments: []models.Appointment{
			makeAppt(1, 2, 9),
			makeAppt(2, 3, 13),
		}}
		policy := newTestPolicy(store, dir, day(t, 8, 0))

		req := validRequest(t)
		req.StartTime = day(t, 15, 0)
		req.EndTime = day(t, 16, 0)
		req.ExcludeAppointmentID = 2
		require.NoError(t, policy.Validate(context.Background(), req))
		assert.Equal(t, int64(2), store.lastExclude)
	})
}

func TestBookingPolicyStoreFailures(t *testing.T) {
	dir := &mockDirectory{known: map[int64]bool{1: true}}

	t.Run("availability lookup failure", func(t *testing.T) {
		store := &mockPolicyStore{rangeErr: fmt.Errorf("connection refused")}
		policy := newTestPolicy(store, dir, day(t, 8, 0))
		err := policy.Validate(context.Background(), validRequest(t))
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrUnavailable.Code))
	})

	t.Run("quota lookup failure", func(t *testing.T) {
		store := &mockPolicyStore{countErr: fmt.Errorf("connection refused")}
		policy := newTestPolicy(store, dir, day(t, 8, 0))
		err := policy.Validate(context.Background(), validRequest(t))
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrUnavailable.Code))
	})

	t.Run("directory failure", func(t *testing.T) {
		store := &mockPolicyStore{}
		failing := &mockDirectory{err: fmt.Errorf("connection refused")}
		policy := newTestPolicy(store, failing, day(t, 8, 0))
		err := policy.Validate(context.Background(), validRequest(t))
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrUnavailable.Code))
	})
}

func TestBookingPolicyRuleOrder(t *testing.T) {
	// A request that violates several rules at once reports the earliest one.
	store := &mockPolicyStore{rangeErr: fmt.Errorf("should not be reached")}
	dir := &mockDirectory{err: fmt.Errorf("should not be reached")}
	policy := newTestPolicy(store, dir, day(t, 8, 0))

	req := models.BookingRequest{
		StudentID: 10,
		StartTime: day(t, 11, 0),
		EndTime:   day(t, 10, 0),
	}
	err := policy.Validate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counselor id is required")
}
