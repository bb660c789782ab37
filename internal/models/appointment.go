package models

import (
	"strings"
	"time"
)

// AppointmentStatus enumerates the appointment lifecycle states.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
)

// Valid reports whether the status is a known lifecycle state.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted out of s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Appointment represents a counseling session between a student and a counselor.
type Appointment struct {
	ID          int64             `db:"id" json:"id"`
	CounselorID int64             `db:"counselor_id" json:"counselor_id"`
	StudentID   int64             `db:"student_id" json:"student_id"`
	StartTime   time.Time         `db:"start_time" json:"start_time"`
	EndTime     time.Time         `db:"end_time" json:"end_time"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Notes       string            `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// Slot returns the appointment interval as a value copy.
func (a Appointment) Slot() TimeSlot {
	return TimeSlot{Start: a.StartTime, End: a.EndTime}
}

// AppendNote adds a line to the appointment notes, preserving prior content.
func (a *Appointment) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if a.Notes == "" {
		a.Notes = note
		return
	}
	a.Notes = a.Notes + "\n" + note
}

// TimeSlot is an immutable half-open interval [Start, End).
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the slot length.
func (t TimeSlot) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// BookingRequest carries everything needed to validate and create a booking.
// ExcludeAppointmentID is set when revalidating an existing appointment so it
// does not conflict with itself.
type BookingRequest struct {
	CounselorID          int64     `json:"counselor_id"`
	StudentID            int64     `json:"student_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Notes                string    `json:"notes,omitempty"`
	ExcludeAppointmentID int64     `json:"-"`
}

// Slot returns the requested interval as a value copy.
func (r BookingRequest) Slot() TimeSlot {
	return TimeSlot{Start: r.StartTime, End: r.EndTime}
}

// AppointmentConflict describes an existing appointment that blocks a booking.
type AppointmentConflict struct {
	AppointmentID int64             `json:"appointment_id"`
	CounselorID   int64             `json:"counselor_id"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	Status        AppointmentStatus `json:"status"`
}

// BookingConflictError is returned when a requested interval overlaps
// existing bookings. It carries the offending appointments for diagnostics.
type BookingConflictError struct {
	Message   string                `json:"message"`
	Conflicts []AppointmentConflict `json:"conflicts"`
}

// Error implements the error interface.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// AppointmentFilter describes query params for listing appointments.
type AppointmentFilter struct {
	CounselorID int64
	StudentID   int64
	Status      AppointmentStatus
	From        time.Time
	To          time.Time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
