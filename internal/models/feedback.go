package models

import "time"

// Feedback is a student's rating of a completed appointment. At most one
// feedback record may exist per appointment.
type Feedback struct {
	ID            int64     `db:"id" json:"id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	StudentID     int64     `db:"student_id" json:"student_id"`
	CounselorID   int64     `db:"counselor_id" json:"counselor_id"`
	Rating        int       `db:"rating" json:"rating"`
	Comments      string    `db:"comments" json:"comments"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CounselorRating aggregates feedback for one counselor.
type CounselorRating struct {
	CounselorID   int64   `json:"counselor_id"`
	AverageRating float64 `json:"average_rating"`
	FeedbackCount int     `json:"feedback_count"`
}
