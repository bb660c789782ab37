package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-api/internal/models"
)

func slotAt(hour, minute, durMinutes int) models.TimeSlot {
	start := time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
	return models.TimeSlot{Start: start, End: start.Add(time.Duration(durMinutes) * time.Minute)}
}

func TestConflictsIdenticalSlots(t *testing.T) {
	a := slotAt(10, 0, 30)
	assert.True(t, Conflicts(a, a))
}

func TestConflictsPartialOverlap(t *testing.T) {
	a := slotAt(10, 0, 30)
	b := slotAt(10, 15, 30)
	assert.True(t, Conflicts(a, b))
	assert.True(t, Conflicts(b, a))
}

func TestConflictsContainment(t *testing.T) {
	outer := slotAt(9, 0, 240)
	inner := slotAt(10, 0, 30)
	assert.True(t, Conflicts(outer, inner))
	assert.True(t, Conflicts(inner, outer))
}

func TestConflictsAdjacencyIsNotConflict(t *testing.T) {
	a := slotAt(10, 0, 30)
	b := slotAt(10, 30, 30)
	assert.False(t, Conflicts(a, b))
	assert.False(t, Conflicts(b, a))
}

func TestConflictsDisjoint(t *testing.T) {
	a := slotAt(9, 0, 30)
	b := slotAt(14, 0, 30)
	assert.False(t, Conflicts(a, b))
}

func TestFindConflictsMatchesCounselorOnly(t *testing.T) {
	existing := []models.Appointment{
		{ID: 1, CounselorID: 1, StartTime: slotAt(10, 0, 30).Start, EndTime: slotAt(10, 0, 30).End, Status: models.StatusScheduled},
		{ID: 2, CounselorID: 2, StartTime: slotAt(10, 0, 30).Start, EndTime: slotAt(10, 0, 30).End, Status: models.StatusScheduled},
	}
	req := models.BookingRequest{
		CounselorID: 1,
		StartTime:   slotAt(10, 15, 30).Start,
		EndTime:     slotAt(10, 15, 30).End,
	}

	conflicts := FindConflicts(req, existing)
	require.Len(t, conflicts, 1)
	assert.Equal(t, int64(1), conflicts[0].ID)
}

func TestFindConflictsExcludesSelf(t *testing.T) {
	existing := []models.Appointment{
		{ID: 7, CounselorID: 1, StartTime: slotAt(10, 0, 30).Start, EndTime: slotAt(10, 0, 30).End, Status: models.StatusScheduled},
	}
	req := models.BookingRequest{
		CounselorID:          1,
		StartTime:            slotAt(10, 0, 60).Start,
		EndTime:              slotAt(10, 0, 60).End,
		ExcludeAppointmentID: 7,
	}

	assert.Empty(t, FindConflicts(req, existing))
}

func TestFindConflictsAdjacentBookingAllowed(t *testing.T) {
	existing := []models.Appointment{
		{ID: 1, CounselorID: 1, StartTime: slotAt(10, 0, 30).Start, EndTime: slotAt(10, 0, 30).End, Status: models.StatusScheduled},
	}
	req := models.BookingRequest{
		CounselorID: 1,
		StartTime:   slotAt(10, 30, 30).Start,
		EndTime:     slotAt(10, 30, 30).End,
	}

	assert.Empty(t, FindConflicts(req, existing))
}

func TestFindConflictsIsPure(t *testing.T) {
	existing := []models.Appointment{
		{ID: 1, CounselorID: 1, StartTime: slotAt(10, 0, 30).Start, EndTime: slotAt(10, 0, 30).End, Status: models.StatusScheduled},
		{ID: 2, CounselorID: 1, StartTime: slotAt(11, 0, 30).Start, EndTime: slotAt(11, 0, 30).End, Status: models.StatusScheduled},
	}
	req := models.BookingRequest{
		CounselorID: 1,
		StartTime:   slotAt(9, 30, 120).Start,
		EndTime:     slotAt(9, 30, 120).End,
	}

	first := FindConflicts(req, existing)
	second := FindConflicts(req, existing)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
}
