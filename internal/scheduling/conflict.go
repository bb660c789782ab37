// Package scheduling holds the pure interval math behind booking decisions:
// half-open overlap detection and free-slot computation. Nothing in this
// package touches storage or the clock, which keeps it trivially testable.
package scheduling

import (
	"github.com/noah-isme/wellness-api/internal/models"
)

// Conflicts reports whether two slots for the same counselor collide.
// Intervals are half-open, so a slot ending exactly when another starts does
// not conflict.
func Conflicts(a, b models.TimeSlot) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FindConflicts returns every appointment in existing that belongs to the
// candidate's counselor, is not the appointment being updated, and overlaps
// the candidate interval. The result preserves the input order so callers can
// report the offending appointments deterministically.
func FindConflicts(candidate models.BookingRequest, existing []models.Appointment) []models.Appointment {
	var conflicts []models.Appointment
	slot := candidate.Slot()
	for _, appt := range existing {
		if appt.CounselorID != candidate.CounselorID {
			continue
		}
		if candidate.ExcludeAppointmentID != 0 && appt.ID == candidate.ExcludeAppointmentID {
			continue
		}
		if Conflicts(slot, appt.Slot()) {
			conflicts = append(conflicts, appt)
		}
	}
	return conflicts
}
