package scheduling

import (
	"fmt"
	"time"

	"github.com/noah-isme/wellness-api/internal/models"
)

// WorkingHours describes a daily working window as offsets from midnight.
type WorkingHours struct {
	Start time.Duration
	End   time.Duration
}

// ParseWorkingHours builds a WorkingHours from "HH:MM" boundaries.
func ParseWorkingHours(start, end string) (WorkingHours, error) {
	s, err := parseClock(start)
	if err != nil {
		return WorkingHours{}, fmt.Errorf("parse workday start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return WorkingHours{}, fmt.Errorf("parse workday end: %w", err)
	}
	if e <= s {
		return WorkingHours{}, fmt.Errorf("workday end %s not after start %s", end, start)
	}
	return WorkingHours{Start: s, End: e}, nil
}

func parseClock(raw string) (time.Duration, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FreeSlots computes the open slots of length slotDuration for one calendar
// day. Candidate slots start at the working-hours start and step by
// slotDuration up to (but not including) the working-hours end; a candidate
// is dropped when it overlaps any non-cancelled appointment in booked. The
// result is ascending and is rebuilt from scratch on every call, so the same
// inputs always yield the same output.
func FreeSlots(day time.Time, hours WorkingHours, slotDuration time.Duration, booked []models.Appointment) []models.TimeSlot {
	if slotDuration <= 0 {
		return nil
	}

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	workEnd := startOfDay.Add(hours.End)

	free := make([]models.TimeSlot, 0)
	for start := startOfDay.Add(hours.Start); start.Before(workEnd); start = start.Add(slotDuration) {
		slot := models.TimeSlot{Start: start, End: start.Add(slotDuration)}
		if slotIsFree(slot, booked) {
			free = append(free, slot)
		}
	}
	return free
}

func slotIsFree(slot models.TimeSlot, booked []models.Appointment) bool {
	for _, appt := range booked {
		if appt.Status == models.StatusCancelled {
			continue
		}
		if Conflicts(slot, appt.Slot()) {
			return false
		}
	}
	return true
}
