package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-api/internal/models"
)

func defaultHours(t *testing.T) WorkingHours {
	t.Helper()
	hours, err := ParseWorkingHours("09:00", "17:00")
	require.NoError(t, err)
	return hours
}

func appointmentAt(day time.Time, hour, minute, durMinutes int, status models.AppointmentStatus) models.Appointment {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	return models.Appointment{
		CounselorID: 1,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(durMinutes) * time.Minute),
		Status:      status,
	}
}

func TestParseWorkingHours(t *testing.T) {
	hours, err := ParseWorkingHours("09:00", "17:00")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour, hours.Start)
	assert.Equal(t, 17*time.Hour, hours.End)

	_, err = ParseWorkingHours("17:00", "09:00")
	assert.Error(t, err)

	_, err = ParseWorkingHours("not-a-time", "17:00")
	assert.Error(t, err)
}

func TestFreeSlotsEmptyDay(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	slots := FreeSlots(day, defaultHours(t), 30*time.Minute, nil)
	require.Len(t, slots, 16)
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), slots[0].Start)
	assert.Equal(t, time.Date(2025, time.March, 10, 16, 30, 0, 0, time.UTC), slots[15].Start)
	assert.Equal(t, time.Date(2025, time.March, 10, 17, 0, 0, 0, time.UTC), slots[15].End)
}

func TestFreeSlotsExcludesBookedSlot(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	booked := []models.Appointment{appointmentAt(day, 10, 0, 30, models.StatusScheduled)}

	slots := FreeSlots(day, defaultHours(t), 30*time.Minute, booked)
	require.Len(t, slots, 15)
	for _, slot := range slots {
		assert.False(t, slot.Start.Equal(booked[0].StartTime), "10:00 slot should be excluded")
		assert.False(t, Conflicts(slot, booked[0].Slot()))
	}
}

func TestFreeSlotsIgnoresCancelledAppointments(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	booked := []models.Appointment{appointmentAt(day, 10, 0, 30, models.StatusCancelled)}

	slots := FreeSlots(day, defaultHours(t), 30*time.Minute, booked)
	assert.Len(t, slots, 16)
}

func TestFreeSlotsSpanningAppointmentBlocksMultipleSlots(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	// 10:15-11:15 straddles the 10:00, 10:30 and 11:00 candidates.
	booked := []models.Appointment{appointmentAt(day, 10, 15, 60, models.StatusScheduled)}

	slots := FreeSlots(day, defaultHours(t), 30*time.Minute, booked)
	assert.Len(t, slots, 13)
	for _, slot := range slots {
		assert.False(t, Conflicts(slot, booked[0].Slot()))
	}
}

func TestFreeSlotsAscendingAndNonOverlapping(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	booked := []models.Appointment{
		appointmentAt(day, 9, 30, 30, models.StatusScheduled),
		appointmentAt(day, 13, 0, 90, models.StatusScheduled),
	}

	slots := FreeSlots(day, defaultHours(t), 30*time.Minute, booked)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].End.Before(slots[i].End))
		assert.False(t, slots[i-1].Start.After(slots[i].Start))
		assert.False(t, Conflicts(slots[i-1], slots[i]))
	}
}

func TestFreeSlotsDeterministic(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	booked := []models.Appointment{appointmentAt(day, 11, 0, 45, models.StatusScheduled)}

	first := FreeSlots(day, defaultHours(t), 30*time.Minute, booked)
	second := FreeSlots(day, defaultHours(t), 30*time.Minute, booked)
	assert.Equal(t, first, second)
}

func TestFreeSlotsZeroDurationYieldsNothing(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, FreeSlots(day, defaultHours(t), 0, nil))
}
